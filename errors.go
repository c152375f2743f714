package drm

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var (
	// ErrWouldBlock is returned by ReadEvent when no event is queued.
	ErrWouldBlock = errors.New("drm: no event available")

	// ErrInvalidData reports malformed data coming from the kernel:
	// a truncated event record or an unknown property flag.
	ErrInvalidData = errors.New("drm: invalid data")

	// ErrFetchRaced is returned when the object lists of a request kept
	// growing between the count and the data round trips.
	ErrFetchRaced = errors.New("drm: object lists kept changing during fetch")

	// ErrMasterHeld is returned when master is requested through a
	// device that already holds it. It matches unix.EINVAL, the error
	// the kernel gives when another client is master.
	ErrMasterHeld = errors.WithMessage(unix.EINVAL, "drm: master already held through this device")
)
