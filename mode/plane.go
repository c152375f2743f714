package mode

import (
	"fmt"
	"unsafe"

	drm "github.com/NeowayLabs/drmkms"
)

type (
	sysGetPlane struct {
		planeID          uint32
		crtcID           uint32
		fbID             uint32
		possibleCrtcs    uint32
		gammaSize        uint32
		countFormatTypes uint32
		formatTypePtr    uint64
	}

	// Plane is a snapshot of a scan-out surface that a CRTC composes
	// into its output, such as a cursor or an overlay.
	Plane struct {
		ID            Id[Plane]
		PossibleCrtcs uint32
		GammaSize     uint32
		Formats       []Format

		crtc Id[Crtc]
		fb   Id[Fb]
	}

	// Format is a fourcc pixel format code.
	Format uint32
)

var (
	FormatXRGB8888 = FourCC('X', 'R', '2', '4')
	FormatARGB8888 = FourCC('A', 'R', '2', '4')
	FormatRGB565   = FourCC('R', 'G', '1', '6')
)

func FourCC(a, b, c, d byte) Format {
	return Format(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

func (f Format) String() string {
	b := [4]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("Format(0x%08x)", uint32(f))
		}
	}
	return string(b[:])
}

// GetPlane reads a plane and the formats it accepts.
func GetPlane(dev *drm.Device, id Id[Plane]) (*Plane, error) {
	var (
		plane   sysGetPlane
		formats []Format
	)
	err := dev.Fetch(IOCTLModeGetPlane, unsafe.Pointer(&plane),
		func() { plane = sysGetPlane{planeID: id.raw} },
		func() ([]drm.List, error) {
			return []drm.List{
				drm.Array(&plane.countFormatTypes, &plane.formatTypePtr, &formats),
			}, nil
		})
	if err != nil {
		return nil, err
	}
	return &Plane{
		ID:            id,
		PossibleCrtcs: plane.possibleCrtcs,
		GammaSize:     plane.gammaSize,
		Formats:       formats,
		crtc:          Id[Crtc]{raw: plane.crtcID},
		fb:            Id[Fb]{raw: plane.fbID},
	}, nil
}

// Crtc returns the CRTC the plane is attached to.
func (p *Plane) Crtc() (Id[Crtc], bool) {
	return optional[Crtc](p.crtc.raw)
}

// Fb returns the framebuffer the plane shows.
func (p *Plane) Fb() (Id[Fb], bool) {
	return optional[Fb](p.fb.raw)
}

func (p *Plane) Supports(f Format) bool {
	for _, have := range p.Formats {
		if have == f {
			return true
		}
	}
	return false
}
