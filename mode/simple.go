// Port of modeset.c example to Go
// Source: https://github.com/dvdhrm/docs/blob/master/drm-howto/modeset.c
package mode

import (
	"fmt"

	"go.uber.org/zap"

	drm "github.com/NeowayLabs/drmkms"
)

type (
	// Modeset pairs a connected connector with a free CRTC and the mode
	// to drive it with.
	Modeset struct {
		Width, Height uint16

		Mode Info
		Conn Id[Connector]
		Crtc Id[Crtc]
	}

	// SimpleModeset picks one CRTC for every connected connector, using
	// each connector's preferred mode.
	SimpleModeset struct {
		Modesets []Modeset
		dev      *drm.Device
	}
)

func (mset *SimpleModeset) prepare() error {
	res, err := GetResources(mset.dev)
	if err != nil {
		return fmt.Errorf("cannot retrieve resources: %w", err)
	}

	for i := 0; i < len(res.Connectors); i++ {
		conn, err := GetConnector(mset.dev, res.Connectors[i])
		if err != nil {
			return fmt.Errorf("cannot retrieve connector %s: %w", res.Connectors[i], err)
		}

		dev := Modeset{}
		dev.Conn = conn.ID
		ok, err := mset.setupDev(res, conn, &dev)
		if err != nil {
			return err
		}

		if !ok {
			continue
		}

		mset.dev.Logger().Debug("connector ready",
			zap.String("connector", conn.Name()),
			zap.Stringer("crtc", dev.Crtc),
			zap.Stringer("mode", dev.Mode))
		mset.Modesets = append(mset.Modesets, dev)
	}

	return nil
}

func (mset *SimpleModeset) setupDev(res *Resources, conn *Connector, dev *Modeset) (bool, error) {
	// check if a monitor is connected
	if conn.Connection != Connected {
		return false, nil
	}

	// check if there is at least one valid mode
	mode, ok := conn.PreferredMode()
	if !ok {
		return false, fmt.Errorf("no valid mode for connector %s", conn.Name())
	}
	dev.Mode = mode
	dev.Width = mode.Hdisplay
	dev.Height = mode.Vdisplay

	err := mset.findCrtc(res, conn, dev)
	if err != nil {
		return false, fmt.Errorf("no valid crtc for connector %s: %w", conn.Name(), err)
	}

	return true, nil
}

func (mset *SimpleModeset) taken(crtc Id[Crtc]) bool {
	for i := 0; i < len(mset.Modesets); i++ {
		if mset.Modesets[i].Crtc == crtc {
			return true
		}
	}
	return false
}

func (mset *SimpleModeset) findCrtc(res *Resources, conn *Connector, dev *Modeset) error {
	// first try the encoder+crtc the connector is already driven by
	if encID, ok := conn.Encoder(); ok {
		encoder, err := GetEncoder(mset.dev, encID)
		if err != nil {
			return err
		}
		if crtc, ok := encoder.Crtc(); ok && !mset.taken(crtc) {
			dev.Crtc = crtc
			return nil
		}
	}

	// If the connector is not currently bound to an encoder or if the
	// encoder+crtc is already used by another connector (actually unlikely
	// but lets be safe), iterate all other available encoders to find a
	// matching CRTC.
	for i := 0; i < len(conn.Encoders); i++ {
		encoder, err := GetEncoder(mset.dev, conn.Encoders[i])
		if err != nil {
			return fmt.Errorf("cannot retrieve encoder: %w", err)
		}
		// iterate all global CRTCs
		for j := 0; j < len(res.Crtcs); j++ {
			// check whether this CRTC works with the encoder
			if !encoder.CanUseCrtc(j) {
				continue
			}

			// check that no other device already uses this CRTC
			if !mset.taken(res.Crtcs[j]) {
				dev.Crtc = res.Crtcs[j]
				return nil
			}
		}
	}

	return fmt.Errorf("cannot find a suitable CRTC for connector %s", conn.Name())
}

// Apply scans fb out on the modeset's CRTC and connector.
func (mset *SimpleModeset) Apply(m *Master, dev *Modeset, fb Id[Fb]) error {
	mode := dev.Mode
	err := m.SetCrtc(dev.Crtc, fb, 0, 0, []Id[Connector]{dev.Conn}, &mode)
	if err != nil {
		return fmt.Errorf("failed to set CRTC %s: %w", dev.Crtc, err)
	}
	return nil
}

// Restore puts back the CRTC state saved before Apply. A CRTC that had
// no mode is disabled again.
func (mset *SimpleModeset) Restore(m *Master, dev *Modeset, savedCrtc *Crtc) error {
	var (
		mode  *Info
		conns []Id[Connector]
	)
	if saved, ok := savedCrtc.Mode(); ok {
		mode = &saved
		conns = []Id[Connector]{dev.Conn}
	}
	fb, _ := savedCrtc.Fb()
	err := m.SetCrtc(savedCrtc.ID, fb,
		savedCrtc.X, savedCrtc.Y,
		conns,
		mode,
	)
	if err != nil {
		return fmt.Errorf("failed to restore CRTC: %w", err)
	}

	return nil
}

func NewSimpleModeset(dev *drm.Device) (*SimpleModeset, error) {
	var err error

	mset := &SimpleModeset{
		dev: dev,
	}
	err = mset.prepare()
	if err != nil {
		return nil, err
	}

	return mset, nil
}
