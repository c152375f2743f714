package mode

import (
	"unsafe"

	drm "github.com/NeowayLabs/drmkms"
)

type (
	sysGetEncoder struct {
		id  uint32
		typ uint32

		crtcID uint32

		possibleCrtcs  uint32
		possibleClones uint32
	}

	Encoder struct {
		ID   Id[Encoder]
		Type EncoderType

		// PossibleCrtcs has bit i set when the CRTC at index i of
		// Resources.Crtcs can feed this encoder.
		PossibleCrtcs uint32
		// PossibleClones has bit i set when the encoder at index i of
		// Resources.Encoders can share a CRTC with this one.
		PossibleClones uint32

		crtc Id[Crtc]
	}

	EncoderType uint32
)

const (
	EncoderNone EncoderType = iota
	EncoderDAC
	EncoderTMDS
	EncoderLVDS
	EncoderTVDAC
	EncoderVirtual
	EncoderDSI
	EncoderDPMST
	EncoderDPI

	// EncoderUnknown stands for type codes this package does not know.
	EncoderUnknown EncoderType = 0xffffffff
)

func (t EncoderType) String() string {
	switch t {
	case EncoderNone:
		return "None"
	case EncoderDAC:
		return "DAC"
	case EncoderTMDS:
		return "TMDS"
	case EncoderLVDS:
		return "LVDS"
	case EncoderTVDAC:
		return "TVDAC"
	case EncoderVirtual:
		return "Virtual"
	case EncoderDSI:
		return "DSI"
	case EncoderDPMST:
		return "DPMST"
	case EncoderDPI:
		return "DPI"
	}
	return "Unknown"
}

func encoderType(u uint32) EncoderType {
	if u > uint32(EncoderDPI) {
		return EncoderUnknown
	}
	return EncoderType(u)
}

// GetEncoder reads an encoder and the CRTCs it can drive.
func GetEncoder(dev *drm.Device, id Id[Encoder]) (*Encoder, error) {
	encoder := &sysGetEncoder{}
	encoder.id = id.raw

	err := dev.Ioctl(IOCTLModeGetEncoder, unsafe.Pointer(encoder))
	if err != nil {
		return nil, err
	}

	return &Encoder{
		ID:             id,
		Type:           encoderType(encoder.typ),
		PossibleCrtcs:  encoder.possibleCrtcs,
		PossibleClones: encoder.possibleClones,
		crtc:           Id[Crtc]{raw: encoder.crtcID},
	}, nil
}

// Crtc returns the CRTC currently feeding the encoder.
func (e *Encoder) Crtc() (Id[Crtc], bool) {
	return optional[Crtc](e.crtc.raw)
}

// CanUseCrtc reports whether the CRTC at index i of Resources.Crtcs can
// feed the encoder.
func (e *Encoder) CanUseCrtc(i int) bool {
	return i >= 0 && i < 32 && e.PossibleCrtcs&(1<<uint(i)) != 0
}
