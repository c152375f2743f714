package main

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	drm "github.com/NeowayLabs/drmkms"
	"github.com/NeowayLabs/drmkms/mode"
)

type display struct {
	set       *mode.Modeset
	savedCrtc *mode.Crtc
	bufs      [2]*mode.DumbBuffer
	front     int
	pending   bool
}

// paint shows a color ramp on every connected display for d, flipping
// between two buffers per display on every vblank.
func paint(dev *drm.Device, d time.Duration) (err error) {
	log := dev.Logger()
	start := time.Now()

	if !dev.HasDumbBuffer() {
		return errors.New("card does not support dumb buffers")
	}
	mset, err := mode.NewSimpleModeset(dev)
	if err != nil {
		return err
	}
	if len(mset.Modesets) == 0 {
		return errors.New("no connected display")
	}

	master, err := mode.AcquireMaster(dev)
	if err != nil {
		return errors.Wrap(err, "acquire master")
	}
	defer master.Release()

	displays := make([]*display, 0, len(mset.Modesets))
	defer func() {
		for _, disp := range displays {
			err = multierr.Append(err, disp.teardown(mset, master))
		}
		log.Info("modeset done", elapsed(start))
	}()

	for i := range mset.Modesets {
		disp, err := newDisplay(dev, &mset.Modesets[i])
		if disp != nil {
			displays = append(displays, disp)
		}
		if err != nil {
			return err
		}
		fill(disp.bufs[0], 0)
		if err := mset.Apply(master, disp.set, disp.bufs[0].Fb.ID); err != nil {
			return err
		}
		log.Info("display ready",
			zap.Stringer("connector", disp.set.Conn),
			zap.Stringer("crtc", disp.set.Crtc),
			zap.Stringer("mode", disp.set.Mode))
	}

	if err := dev.SetNonblock(true); err != nil {
		return err
	}
	defer dev.SetNonblock(false)

	deadline := time.Now().Add(d)
	for frame := uint32(1); time.Now().Before(deadline); frame++ {
		for i, disp := range displays {
			if disp.pending {
				continue
			}
			back := disp.bufs[disp.front^1]
			fill(back, frame)
			err := master.PageFlip(disp.set.Crtc, back.Fb.ID, mode.PageFlipEvent, uint64(i))
			if err != nil {
				return errors.Wrapf(err, "page flip on %s", disp.set.Crtc)
			}
			disp.pending = true
		}

		ev, err := nextEvent(dev, time.Second)
		if err != nil {
			return err
		}
		flip, ok := ev.(drm.PageFlipEvent)
		if !ok || flip.UserData >= uint64(len(displays)) {
			log.Debug("ignoring event", zap.Any("event", ev))
			continue
		}
		disp := displays[flip.UserData]
		disp.front ^= 1
		disp.pending = false
	}
	return nil
}

func newDisplay(dev *drm.Device, set *mode.Modeset) (*display, error) {
	saved, err := mode.GetCrtc(dev, set.Crtc)
	if err != nil {
		return nil, err
	}
	disp := &display{set: set, savedCrtc: saved}
	for i := range disp.bufs {
		buf, err := mode.CreateDumbBuffer(dev, uint32(set.Width), uint32(set.Height), 32, 0)
		if err != nil {
			return disp, err
		}
		disp.bufs[i] = buf
	}
	return disp, nil
}

func (disp *display) teardown(mset *mode.SimpleModeset, master *mode.Master) error {
	var err error
	if disp.savedCrtc != nil {
		err = mset.Restore(master, disp.set, disp.savedCrtc)
	}
	for _, buf := range disp.bufs {
		if buf != nil {
			err = multierr.Append(err, buf.Destroy())
		}
	}
	return err
}

// fill paints buf with a horizontal gradient that moves with frame.
func fill(buf *mode.DumbBuffer, frame uint32) {
	pixels := buf.Pixels()
	for y := uint32(0); y < buf.Height; y++ {
		row := pixels[y*buf.Pitch:]
		for x := uint32(0); x < buf.Width; x++ {
			r := (x + frame*4) & 0xff
			g := (y + frame*2) & 0xff
			b := frame & 0xff
			binary.NativeEndian.PutUint32(row[x*4:], r<<16|g<<8|b)
		}
	}
}
