package mode

import (
	"unsafe"

	drm "github.com/NeowayLabs/drmkms"
)

type (
	sysCrtc struct {
		setConnectorsPtr uint64
		countConnectors  uint32

		id   uint32
		fbID uint32 // Id of framebuffer

		x, y uint32 // Position on the frameuffer

		gammaSize uint32
		modeValid uint32
		mode      Info
	}

	// Crtc is a snapshot of a scan-out engine.
	Crtc struct {
		ID Id[Crtc]

		X, Y          uint32 // Position on the framebuffer
		Width, Height uint32 // of the current mode, 0 when none

		GammaSize uint32 // Number of gamma stops

		fb        Id[Fb]
		mode      Info
		modeValid bool
	}
)

// GetCrtc reads the current state of a CRTC.
func GetCrtc(dev *drm.Device, id Id[Crtc]) (*Crtc, error) {
	crtc := &sysCrtc{}
	crtc.id = id.raw
	err := dev.Ioctl(IOCTLModeGetCrtc, unsafe.Pointer(crtc))
	if err != nil {
		return nil, err
	}
	ret := &Crtc{
		ID:        id,
		X:         crtc.x,
		Y:         crtc.y,
		GammaSize: crtc.gammaSize,
		fb:        Id[Fb]{raw: crtc.fbID},
	}
	if crtc.modeValid != 0 {
		ret.mode = crtc.mode
		ret.modeValid = true
		ret.Width = uint32(crtc.mode.Hdisplay)
		ret.Height = uint32(crtc.mode.Vdisplay)
	}
	return ret, nil
}

// Fb returns the framebuffer being scanned out.
func (c *Crtc) Fb() (Id[Fb], bool) {
	return optional[Fb](c.fb.raw)
}

// Mode returns the active mode. A CRTC without one is disabled.
func (c *Crtc) Mode() (Info, bool) {
	return c.mode, c.modeValid
}
