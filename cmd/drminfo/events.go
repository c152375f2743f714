package main

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	drm "github.com/NeowayLabs/drmkms"
)

var errTimeout = errors.New("timed out waiting for an event")

func vblanks(w io.Writer, dev *drm.Device, n int) error {
	if err := dev.SetNonblock(true); err != nil {
		return err
	}
	defer dev.SetNonblock(false)

	for i := 0; i < n; i++ {
		if err := dev.RequestVBlank(uint64(i), 0); err != nil {
			return errors.Wrap(err, "request vblank")
		}
		ev, err := nextEvent(dev, time.Second)
		if err != nil {
			return err
		}
		now, err := drm.MonotonicNow()
		if err != nil {
			return err
		}
		switch ev := ev.(type) {
		case drm.VBlankEvent:
			fmt.Fprintf(w, "vblank %d: sequence=%d crtc=%d time=%v (%v ago)\n",
				ev.UserData, ev.Sequence, ev.Crtc, ev.Time, now-ev.Time)
		case drm.UnknownEvent:
			fmt.Fprintf(w, "unknown event type %#x\n", ev.Type)
		default:
			fmt.Fprintf(w, "unexpected event %#v\n", ev)
		}
	}
	return nil
}

// nextEvent reads one event, waiting up to timeout for the card to
// become readable. dev must be in non-blocking mode.
func nextEvent(dev *drm.Device, timeout time.Duration) (drm.Event, error) {
	for {
		ev, err := dev.ReadEvent()
		if !errors.Is(err, drm.ErrWouldBlock) {
			return ev, err
		}
		ready, err := dev.WaitEvent(timeout)
		if err != nil {
			return nil, err
		}
		if !ready {
			return nil, errTimeout
		}
	}
}
