package mode

import (
	"unsafe"

	drm "github.com/NeowayLabs/drmkms"
)

type (
	sysFBCmd struct {
		fbID          uint32
		width, height uint32
		pitch         uint32
		bpp           uint32
		depth         uint32

		/* driver specific handle */
		handle uint32
	}

	// Fb is a framebuffer: the metadata binding a buffer object to a
	// geometry and pixel layout for scan-out.
	Fb struct {
		ID            Id[Fb]
		Width, Height uint32
		Pitch         uint32 // bytes per row
		BPP           uint32
		Depth         uint32
		Handle        uint32 // buffer object, 0 unless the caller owns it
	}
)

// GetFb reads the description of a framebuffer.
func GetFb(dev *drm.Device, id Id[Fb]) (*Fb, error) {
	f := &sysFBCmd{fbID: id.raw}
	if err := dev.Ioctl(IOCTLModeGetFB, unsafe.Pointer(f)); err != nil {
		return nil, err
	}
	return &Fb{
		ID:     id,
		Width:  f.width,
		Height: f.height,
		Pitch:  f.pitch,
		BPP:    f.bpp,
		Depth:  f.depth,
		Handle: f.handle,
	}, nil
}

// AddFB registers a framebuffer over the buffer object boHandle. The
// framebuffer lives until RmFB or until the device is closed.
func AddFB(dev *drm.Device, width, height, depth, bpp, pitch, boHandle uint32) (Fb, error) {
	f := &sysFBCmd{
		width:  width,
		height: height,
		pitch:  pitch,
		bpp:    bpp,
		depth:  depth,
		handle: boHandle,
	}
	err := dev.Ioctl(IOCTLModeAddFB, unsafe.Pointer(f))
	if err != nil {
		return Fb{}, err
	}
	return Fb{
		ID:     Id[Fb]{raw: f.fbID},
		Width:  width,
		Height: height,
		Pitch:  pitch,
		BPP:    bpp,
		Depth:  depth,
		Handle: boHandle,
	}, nil
}

// RmFB removes a framebuffer added with AddFB.
func RmFB(dev *drm.Device, id Id[Fb]) error {
	raw := id.raw
	return dev.Ioctl(IOCTLModeRmFB, unsafe.Pointer(&raw))
}
