package mode

import (
	"unsafe"

	drm "github.com/NeowayLabs/drmkms"
)

type (
	sysResources struct {
		fbIDPtr              uint64
		crtcIDPtr            uint64
		connectorIDPtr       uint64
		encoderIDPtr         uint64
		countFbs             uint32
		countCrtcs           uint32
		countConnectors      uint32
		countEncoders        uint32
		minWidth, maxWidth   uint32
		minHeight, maxHeight uint32
	}

	sysPlaneResources struct {
		planeIDPtr  uint64
		countPlanes uint32
	}

	// Resources is the card's object inventory at the time of the call.
	// It goes stale as soon as a display is plugged or another client
	// adds a framebuffer; fetch it again instead of caching it.
	Resources struct {
		Fbs        []Id[Fb]
		Crtcs      []Id[Crtc]
		Connectors []Id[Connector]
		Encoders   []Id[Encoder]

		MinWidth, MinHeight uint32
		MaxWidth, MaxHeight uint32
	}
)

func GetResources(dev *drm.Device) (*Resources, error) {
	var (
		mres sysResources
		res  Resources
	)
	err := dev.Fetch(IOCTLModeResources, unsafe.Pointer(&mres),
		func() { mres = sysResources{} },
		func() ([]drm.List, error) {
			return []drm.List{
				drm.Array(&mres.countFbs, &mres.fbIDPtr, &res.Fbs),
				drm.Array(&mres.countCrtcs, &mres.crtcIDPtr, &res.Crtcs),
				drm.Array(&mres.countConnectors, &mres.connectorIDPtr, &res.Connectors),
				drm.Array(&mres.countEncoders, &mres.encoderIDPtr, &res.Encoders),
			}, nil
		})
	if err != nil {
		return nil, err
	}

	res.MinWidth, res.MinHeight = mres.minWidth, mres.minHeight
	res.MaxWidth, res.MaxHeight = mres.maxWidth, mres.maxHeight
	return &res, nil
}

// CrtcIndex returns the position of id in Crtcs, the index used by
// possible-CRTC masks and vblank requests.
func (r *Resources) CrtcIndex(id Id[Crtc]) (int, bool) {
	for i, c := range r.Crtcs {
		if c == id {
			return i, true
		}
	}
	return 0, false
}

// GetPlaneResources lists the planes of the card. Planes are not part of
// Resources. Without drm.ClientCapUniversalPlanes only overlay planes
// are listed.
func GetPlaneResources(dev *drm.Device) ([]Id[Plane], error) {
	var (
		pres   sysPlaneResources
		planes []Id[Plane]
	)
	err := dev.Fetch(IOCTLModeGetPlaneResources, unsafe.Pointer(&pres),
		func() { pres = sysPlaneResources{} },
		func() ([]drm.List, error) {
			return []drm.List{
				drm.Array(&pres.countPlanes, &pres.planeIDPtr, &planes),
			}, nil
		})
	if err != nil {
		return nil, err
	}
	return planes, nil
}
