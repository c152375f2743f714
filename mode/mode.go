package mode

import (
	"bytes"
	"fmt"
)

const (
	DisplayInfoLen   = 32
	ConnectorNameLen = 32
	DisplayModeLen   = 32
	PropNameLen      = 32
)

type (
	// Info is a display timing, struct drm_mode_modeinfo. It is a plain
	// value: copy it freely and compare it with ==.
	Info struct {
		Clock                                         uint32 // pixel clock in kHz
		Hdisplay, HsyncStart, HsyncEnd, Htotal, Hskew uint16
		Vdisplay, VsyncStart, VsyncEnd, Vtotal, Vscan uint16

		Vrefresh uint32

		Flags ModeFlags
		Type  ModeType
		Name  [DisplayModeLen]uint8
	}

	ModeType  uint32
	ModeFlags uint32
)

const (
	TypeBuiltin   ModeType = 1 << 0
	TypeClockC    ModeType = 1<<1 | TypeBuiltin
	TypeCrtcC     ModeType = 1<<2 | TypeBuiltin
	TypePreferred ModeType = 1 << 3
	TypeDefault   ModeType = 1 << 4
	TypeUserDef   ModeType = 1 << 5
	TypeDriver    ModeType = 1 << 6
)

const (
	FlagPHSync    ModeFlags = 1 << 0
	FlagNHSync    ModeFlags = 1 << 1
	FlagPVSync    ModeFlags = 1 << 2
	FlagNVSync    ModeFlags = 1 << 3
	FlagInterlace ModeFlags = 1 << 4
	FlagDblScan   ModeFlags = 1 << 5
	FlagCSync     ModeFlags = 1 << 6
	FlagPCSync    ModeFlags = 1 << 7
	FlagNCSync    ModeFlags = 1 << 8
	FlagHSkew     ModeFlags = 1 << 9
	FlagBCast     ModeFlags = 1 << 10
	FlagPixMux    ModeFlags = 1 << 11
	FlagDblClk    ModeFlags = 1 << 12
	FlagClkDiv2   ModeFlags = 1 << 13

	Flag3DMask ModeFlags = 0x1f << 14
)

// ModeName returns the mode name, "1920x1080" for most modes.
func (m Info) ModeName() string {
	name := m.Name[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

// Preferred reports whether the connector's display prefers this mode.
func (m Info) Preferred() bool {
	return m.Type&TypePreferred != 0
}

// Refresh returns the refresh rate in Hz computed from the timings,
// falling back to Vrefresh for incomplete modes.
func (m Info) Refresh() float64 {
	if m.Htotal == 0 || m.Vtotal == 0 {
		return float64(m.Vrefresh)
	}
	refresh := float64(m.Clock) * 1000 / (float64(m.Htotal) * float64(m.Vtotal))
	if m.Flags&FlagInterlace != 0 {
		refresh *= 2
	}
	if m.Flags&FlagDblScan != 0 {
		refresh /= 2
	}
	if m.Vscan > 1 {
		refresh /= float64(m.Vscan)
	}
	return refresh
}

func (m Info) String() string {
	return fmt.Sprintf("%dx%d@%.2f", m.Hdisplay, m.Vdisplay, m.Refresh())
}

// SetName stores name, truncated to fit the kernel field.
func (m *Info) SetName(name string) {
	m.Name = [DisplayModeLen]uint8{}
	copy(m.Name[:DisplayModeLen-1], name)
}
