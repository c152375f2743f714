package mode

import (
	"runtime"
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	drm "github.com/NeowayLabs/drmkms"
)

type (
	sysCursor struct {
		flags  uint32
		crtcID uint32
		x, y   int32
		width  uint32
		height uint32
		handle uint32
	}

	sysPageFlip struct {
		crtcID   uint32
		fbID     uint32
		flags    uint32
		reserved uint32
		userData uint64
	}

	// Master is the right to change the display configuration. Only one
	// client of a card is master at a time.
	//
	// Queries and event reads do not need it and can go on while a Master
	// is held. A Master is not safe for concurrent use.
	Master struct {
		dev      *drm.Device
		released bool
	}

	PageFlipFlags uint32
)

const (
	cursorBO   = 0x01
	cursorMove = 0x02

	// PageFlipEvent queues a drm.PageFlipEvent when the flip completes.
	PageFlipEvent PageFlipFlags = 0x01
	// PageFlipAsync flips without waiting for vblank, when the driver
	// reports drm.CapAsyncPageFlip.
	PageFlipAsync PageFlipFlags = 0x02
)

// ErrMasterReleased is returned by the methods of a released Master.
var ErrMasterReleased = errors.New("mode: master released")

// AcquireMaster makes this client the card master. It fails with an
// error matching unix.EINVAL when another client is master, and with
// drm.ErrMasterHeld when dev already holds master.
//
// Release the master when done, usually with defer m.Release().
func AcquireMaster(dev *drm.Device) (*Master, error) {
	if err := dev.SetMaster(); err != nil {
		return nil, err
	}
	return &Master{dev: dev}, nil
}

// Device returns the device the master was acquired through.
func (m *Master) Device() *drm.Device {
	return m.dev
}

// Release drops master. A failure is logged and otherwise ignored: the
// kernel drops master anyway when the device is closed. Release may be
// called more than once.
func (m *Master) Release() {
	if m.released {
		return
	}
	m.released = true
	if err := m.dev.DropMaster(); err != nil {
		m.dev.Logger().Warn("dropping master", zap.Error(err))
	}
}

// check refuses mutations once the token is released or once master
// was dropped on the device behind its back.
func (m *Master) check() error {
	if m.released || !m.dev.IsMaster() {
		return ErrMasterReleased
	}
	return nil
}

// SetCrtc scans fb out on crtc with mode, starting at (x, y) of the
// framebuffer, and routes the output to connectors. The driver picks
// the encoders. Disabling the CRTC takes a zero fb, a nil mode and no
// connectors; the kernel refuses connectors without a mode.
func (m *Master) SetCrtc(crtc Id[Crtc], fb Id[Fb], x, y uint32, connectors []Id[Connector], mode *Info) error {
	if err := m.check(); err != nil {
		return err
	}
	req := &sysCrtc{
		id:              crtc.raw,
		fbID:            fb.raw,
		x:               x,
		y:               y,
		countConnectors: uint32(len(connectors)),
	}
	if len(connectors) > 0 {
		req.setConnectorsPtr = uint64(uintptr(unsafe.Pointer(&connectors[0])))
	}
	if mode != nil {
		req.mode = *mode
		req.modeValid = 1
	}
	err := m.dev.Ioctl(IOCTLModeSetCrtc, unsafe.Pointer(req))
	runtime.KeepAlive(connectors)
	return err
}

// SetCursor shows bo as the hardware cursor of crtc.
func (m *Master) SetCursor(crtc Id[Crtc], bo GemHandle) error {
	if err := m.check(); err != nil {
		return err
	}
	handle, width, height := bo.BufferObject()
	return m.cursor(&sysCursor{
		flags:  cursorBO,
		crtcID: crtc.raw,
		width:  width,
		height: height,
		handle: handle,
	})
}

// ClearCursor hides the hardware cursor of crtc.
func (m *Master) ClearCursor(crtc Id[Crtc]) error {
	if err := m.check(); err != nil {
		return err
	}
	return m.cursor(&sysCursor{flags: cursorBO, crtcID: crtc.raw})
}

// MoveCursor places the cursor of crtc at (x, y) of the CRTC's output.
func (m *Master) MoveCursor(crtc Id[Crtc], x, y int32) error {
	if err := m.check(); err != nil {
		return err
	}
	return m.cursor(&sysCursor{flags: cursorMove, crtcID: crtc.raw, x: x, y: y})
}

func (m *Master) cursor(req *sysCursor) error {
	return m.dev.Ioctl(IOCTLModeCursor, unsafe.Pointer(req))
}

// PageFlip replaces the framebuffer scanned out by crtc at the next
// vblank. fb must match the geometry and format of the current one.
// With PageFlipEvent, completion is reported as a drm.PageFlipEvent
// carrying userData.
func (m *Master) PageFlip(crtc Id[Crtc], fb Id[Fb], flags PageFlipFlags, userData uint64) error {
	if err := m.check(); err != nil {
		return err
	}
	req := &sysPageFlip{
		crtcID:   crtc.raw,
		fbID:     fb.raw,
		flags:    uint32(flags),
		userData: userData,
	}
	return m.dev.Ioctl(IOCTLModePageFlip, unsafe.Pointer(req))
}
