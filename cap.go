package drm

import "unsafe"

type (
	capability struct {
		cap uint64
		val uint64
	}

	// Capability is a driver capability queried with Device.Capability.
	Capability uint64

	// ClientCapability is an opt-in feature set with
	// Device.SetClientCapability.
	ClientCapability uint64
)

const (
	CapDumbBuffer Capability = iota + 1
	CapVBlankHighCRTC
	CapDumbPreferredDepth
	CapDumbPreferShadow
	CapPrime
	CapTimestampMonotonic
	CapAsyncPageFlip
	CapCursorWidth
	CapCursorHeight

	CapAddFB2Modifiers   Capability = 0x10
	CapPageFlipTarget    Capability = 0x11
	CapCrtcInVBlankEvent Capability = 0x12
	CapSyncObj           Capability = 0x13
)

const (
	ClientCapStereo3D ClientCapability = iota + 1
	ClientCapUniversalPlanes
	ClientCapAtomic
	ClientCapAspectRatio
	ClientCapWritebackConnectors
)

// Capability returns the value the driver reports for c. Boolean
// capabilities report 0 or 1.
func (d *Device) Capability(c Capability) (uint64, error) {
	arg := &capability{cap: uint64(c)}
	if err := d.Ioctl(IOCTLGetCap, unsafe.Pointer(arg)); err != nil {
		return 0, err
	}
	return arg.val, nil
}

func (d *Device) HasDumbBuffer() bool {
	val, err := d.Capability(CapDumbBuffer)
	if err != nil {
		return false
	}
	return val != 0
}

// SetClientCapability enables or configures a client capability, such as
// exposing every plane type with ClientCapUniversalPlanes.
func (d *Device) SetClientCapability(c ClientCapability, val uint64) error {
	arg := &capability{cap: uint64(c), val: val}
	return d.Ioctl(IOCTLSetClientCap, unsafe.Pointer(arg))
}
