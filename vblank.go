package drm

import (
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// union drm_wait_vblank. The request carries a signal value where the
// reply carries tval_sec.
type waitVBlank struct {
	typ      uint32
	sequence uint32
	signal   uint64
	usec     int64
}

const (
	vblankRelative      = 0x1
	vblankEvent         = 0x4000000
	vblankSecondary     = 0x20000000
	vblankHighCrtcShift = 1
	vblankHighCrtcMask  = 0x3e
	vblankMaxCrtc       = vblankHighCrtcMask >> vblankHighCrtcShift
)

// RequestVBlank asks for a VBlankEvent carrying userData on the next
// vblank of the CRTC at crtcIndex, the position of the CRTC in
// mode.Resources.Crtcs. Indexes past 31 do not fit the request and
// fail with EINVAL.
func (d *Device) RequestVBlank(userData uint64, crtcIndex uint32) error {
	if crtcIndex > vblankMaxCrtc {
		return errors.Wrapf(unix.EINVAL, "crtc index %d out of range", crtcIndex)
	}
	var typ uint32
	switch {
	case crtcIndex > 1:
		typ = (crtcIndex << vblankHighCrtcShift) & vblankHighCrtcMask
	case crtcIndex == 1:
		typ = vblankSecondary
	}
	req := &waitVBlank{
		typ:      typ | vblankRelative | vblankEvent,
		sequence: 1,
		signal:   userData,
	}
	return d.Ioctl(IOCTLWaitVBlank, unsafe.Pointer(req))
}

// WaitEvent waits up to timeout for an event to be readable. A negative
// timeout waits forever. It is a convenience for callers without their
// own poller; others register Fd instead.
func (d *Device) WaitEvent(timeout time.Duration) (bool, error) {
	if d.events.Buffered() > 0 {
		return true, nil
	}
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	fds := []unix.PollFd{{Fd: int32(d.Fd()), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
	}
}

// MonotonicNow reads CLOCK_MONOTONIC, the clock event timestamps use
// when CapTimestampMonotonic is set.
func MonotonicNow() (time.Duration, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0, err
	}
	return time.Duration(ts.Nano()), nil
}
