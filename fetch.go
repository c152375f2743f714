package drm

import (
	"runtime"
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// List is one variable-length output array of a request: a count field,
// a pointer field and the slice receiving the elements.
type List interface {
	len() uint64
	alloc(n uint64)
	trim(n uint64)
}

type counter interface {
	~uint32 | ~uint64
}

type array[C counter, E any] struct {
	count *C
	ptr   *uint64
	out   *[]E
}

// Array binds out to the count and pointer fields of a request struct.
// E must have the layout of the kernel's element type.
func Array[C counter, E any](count *C, ptr *uint64, out *[]E) List {
	return &array[C, E]{count: count, ptr: ptr, out: out}
}

func (a *array[C, E]) len() uint64 {
	return uint64(*a.count)
}

func (a *array[C, E]) alloc(n uint64) {
	*a.out = make([]E, n)
	*a.ptr = 0
	if n > 0 {
		*a.ptr = uint64(uintptr(unsafe.Pointer(&(*a.out)[0])))
	}
}

func (a *array[C, E]) trim(n uint64) {
	if n < uint64(len(*a.out)) {
		*a.out = (*a.out)[:n]
	}
}

// Fetch runs a list-returning request to completion.
//
// The kernel answers a request with null pointers with the element
// counts only. Fetch then allocates every array to its count and asks
// again. If any count grew in between, the answer is incomplete and the
// whole exchange restarts; a count that shrank trims its array.
//
// reset restores the request struct to its input state (object id set,
// counts and pointers zeroed) before each attempt. plan runs after the
// count query, so a request may pick its arrays from the answer.
// After the configured number of attempts Fetch fails with ErrFetchRaced.
func (d *Device) Fetch(code uint32, arg unsafe.Pointer, reset func(), plan func() ([]List, error)) error {
	for attempt := 1; attempt <= d.fetchAttempts; attempt++ {
		reset()
		if err := d.Ioctl(code, arg); err != nil {
			return err
		}

		lists, err := plan()
		if err != nil {
			return err
		}
		want := make([]uint64, len(lists))
		for i, l := range lists {
			want[i] = l.len()
			l.alloc(want[i])
		}

		if err := d.Ioctl(code, arg); err != nil {
			return err
		}
		runtime.KeepAlive(lists)

		if grown(lists, want) {
			d.log.Debug("object list grew between round trips, retrying",
				zap.Uint32("request", code),
				zap.Int("attempt", attempt))
			continue
		}
		for _, l := range lists {
			l.trim(l.len())
		}
		return nil
	}
	return errors.Wrapf(ErrFetchRaced, "request %#x after %d attempts", code, d.fetchAttempts)
}

func grown(lists []List, want []uint64) bool {
	for i, l := range lists {
		if l.len() > want[i] {
			return true
		}
	}
	return false
}
