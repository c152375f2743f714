package mode

import (
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	drm "github.com/NeowayLabs/drmkms"
)

type (
	sysCreateDumb struct {
		height, width uint32
		bpp           uint32
		flags         uint32

		// returned values
		handle uint32
		pitch  uint32
		size   uint64
	}

	sysMapDumb struct {
		handle uint32 // Handle for the object being mapped
		pad    uint32

		// Fake offset to use for subsequent mmap call
		// This is a fixed-size type for 32/64 compatibility.
		offset uint64
	}

	sysDestroyDumb struct {
		handle uint32
	}

	// Dumb is an unmapped dumb buffer object as returned by CreateDumb.
	Dumb struct {
		Height, Width, BPP uint32
		Flags              DumbFlags
		Handle             uint32
		Pitch              uint32
		Size               uint64
	}

	// DumbFlags is passed through to the driver. No flags are defined
	// yet; use 0.
	DumbFlags uint32

	// DumbBuffer is a CPU mapped scan-out buffer with its framebuffer.
	//
	// Nothing is released when a DumbBuffer is garbage collected: call
	// Destroy to unmap it and free the framebuffer and the buffer object.
	// Closing the device frees the kernel objects as well but leaves the
	// mapping in place.
	DumbBuffer struct {
		Dumb
		Fb Fb

		data []byte
		dev  *drm.Device
	}

	// GemHandle is a buffer object usable as a cursor image.
	GemHandle interface {
		BufferObject() (handle, width, height uint32)
	}
)

// CreateDumb allocates a dumb buffer object. The driver picks the pitch
// and may pad rows beyond width*bpp/8.
func CreateDumb(dev *drm.Device, width, height, bpp uint32, flags DumbFlags) (*Dumb, error) {
	fb := &sysCreateDumb{}
	fb.width = width
	fb.height = height
	fb.bpp = bpp
	fb.flags = uint32(flags)
	err := dev.Ioctl(IOCTLModeCreateDumb, unsafe.Pointer(fb))
	if err != nil {
		return nil, err
	}
	return &Dumb{
		Height: fb.height,
		Width:  fb.width,
		BPP:    fb.bpp,
		Flags:  flags,
		Handle: fb.handle,
		Pitch:  fb.pitch,
		Size:   fb.size,
	}, nil
}

// MapDumb returns the fake offset to mmap the buffer object at.
func MapDumb(dev *drm.Device, boHandle uint32) (uint64, error) {
	mreq := &sysMapDumb{}
	mreq.handle = boHandle
	err := dev.Ioctl(IOCTLModeMapDumb, unsafe.Pointer(mreq))
	if err != nil {
		return 0, err
	}
	return mreq.offset, nil
}

// DestroyDumb frees the dumb buffer behind handle.
func DestroyDumb(dev *drm.Device, handle uint32) error {
	return dev.Ioctl(IOCTLModeDestroyDumb, unsafe.Pointer(&sysDestroyDumb{handle}))
}

// CreateDumbBuffer allocates a dumb buffer, adds a framebuffer for it and
// maps it. The depth is 24 for 32 bpp buffers and bpp otherwise.
func CreateDumbBuffer(dev *drm.Device, width, height, bpp uint32, flags DumbFlags) (*DumbBuffer, error) {
	depth := bpp
	if bpp == 32 {
		depth = 24
	}
	return CreateDumbBufferDepth(dev, width, height, bpp, depth, flags)
}

// CreateDumbBufferDepth is CreateDumbBuffer with an explicit color depth.
// When a step fails, the objects created by the previous steps are
// released again.
func CreateDumbBufferDepth(dev *drm.Device, width, height, bpp, depth uint32, flags DumbFlags) (_ *DumbBuffer, err error) {
	log := dev.Logger()

	dumb, err := CreateDumb(dev, width, height, bpp, flags)
	if err != nil {
		return nil, errors.Wrap(err, "create dumb buffer")
	}
	defer func() {
		if err == nil {
			return
		}
		if derr := DestroyDumb(dev, dumb.Handle); derr != nil {
			log.Warn("destroying dumb buffer after failed setup",
				zap.Uint32("handle", dumb.Handle), zap.Error(derr))
		}
	}()

	fb, err := AddFB(dev, width, height, depth, bpp, dumb.Pitch, dumb.Handle)
	if err != nil {
		return nil, errors.Wrap(err, "add framebuffer")
	}
	defer func() {
		if err == nil {
			return
		}
		if rerr := RmFB(dev, fb.ID); rerr != nil {
			log.Warn("removing framebuffer after failed setup",
				zap.Stringer("fb", fb.ID), zap.Error(rerr))
		}
	}()

	offset, err := MapDumb(dev, dumb.Handle)
	if err != nil {
		return nil, errors.Wrap(err, "map dumb buffer")
	}
	data, err := dev.Mmap(int64(offset), int(dumb.Size))
	if err != nil {
		return nil, errors.Wrap(err, "mmap dumb buffer")
	}

	return &DumbBuffer{
		Dumb: *dumb,
		Fb:   fb,
		data: data,
		dev:  dev,
	}, nil
}

// Pixels returns the mapped buffer, Size bytes long. Rows start every
// Pitch bytes.
func (b *DumbBuffer) Pixels() []byte {
	return b.data
}

func (b *DumbBuffer) BufferObject() (handle, width, height uint32) {
	return b.Handle, b.Width, b.Height
}

// Destroy unmaps the buffer and releases its framebuffer and buffer
// object. The buffer must not be scanned out anymore. Every step is
// attempted; the errors are combined.
func (b *DumbBuffer) Destroy() error {
	var err error
	if b.data != nil {
		err = multierr.Append(err, errors.Wrap(b.dev.Munmap(b.data), "munmap"))
		b.data = nil
	}
	if !b.Fb.ID.IsZero() {
		err = multierr.Append(err, errors.Wrap(RmFB(b.dev, b.Fb.ID), "remove framebuffer"))
		b.Fb.ID = Id[Fb]{}
	}
	if b.Handle != 0 {
		err = multierr.Append(err, errors.Wrap(DestroyDumb(b.dev, b.Handle), "destroy dumb buffer"))
		b.Handle = 0
	}
	return err
}
