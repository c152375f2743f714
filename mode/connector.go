package mode

import (
	"fmt"
	"unsafe"

	drm "github.com/NeowayLabs/drmkms"
)

type (
	sysGetConnector struct {
		encodersPtr   uint64
		modesPtr      uint64
		propsPtr      uint64
		propValuesPtr uint64

		countModes    uint32
		countProps    uint32
		countEncoders uint32

		encoderID       uint32 // current encoder
		connectorID     uint32
		connectorType   uint32
		connectorTypeID uint32

		connection        uint32
		mmWidth, mmHeight uint32 // HxW in millimeters
		subpixel          uint32
		pad               uint32
	}

	// Connector is a snapshot of a display output.
	Connector struct {
		ID            Id[Connector]
		Type          ConnectorType
		TypeID        uint32 // index among connectors of the same type
		Connection    Connection
		Width, Height uint32 // physical size in millimeters
		Subpixel      Subpixel

		Modes    []Info
		Props    []PropertyValue
		Encoders []Id[Encoder] // encoders the connector can be driven by

		encoder Id[Encoder]
	}

	// PropertyValue is the current value of a property on an object.
	PropertyValue struct {
		ID    Id[Property]
		Value uint64
	}

	ConnectorType uint32
	Connection    uint32
	Subpixel      uint32
)

const (
	ConnectorUnknown ConnectorType = iota
	ConnectorVGA
	ConnectorDVII
	ConnectorDVID
	ConnectorDVIA
	ConnectorComposite
	ConnectorSVIDEO
	ConnectorLVDS
	ConnectorComponent
	Connector9PinDIN
	ConnectorDisplayPort
	ConnectorHDMIA
	ConnectorHDMIB
	ConnectorTV
	ConnectorEDP
	ConnectorVirtual
	ConnectorDSI
	ConnectorDPI
	ConnectorWriteback
	ConnectorSPI
	ConnectorUSB
)

const (
	Connected         Connection = 1
	Disconnected      Connection = 2
	UnknownConnection Connection = 3
)

const (
	SubpixelUnknown Subpixel = iota + 1
	SubpixelHorizontalRGB
	SubpixelHorizontalBGR
	SubpixelVerticalRGB
	SubpixelVerticalBGR
	SubpixelNone
)

var connectorNames = [...]string{
	ConnectorUnknown:     "Unknown",
	ConnectorVGA:         "VGA",
	ConnectorDVII:        "DVI-I",
	ConnectorDVID:        "DVI-D",
	ConnectorDVIA:        "DVI-A",
	ConnectorComposite:   "Composite",
	ConnectorSVIDEO:      "SVIDEO",
	ConnectorLVDS:        "LVDS",
	ConnectorComponent:   "Component",
	Connector9PinDIN:     "DIN",
	ConnectorDisplayPort: "DP",
	ConnectorHDMIA:       "HDMI-A",
	ConnectorHDMIB:       "HDMI-B",
	ConnectorTV:          "TV",
	ConnectorEDP:         "eDP",
	ConnectorVirtual:     "Virtual",
	ConnectorDSI:         "DSI",
	ConnectorDPI:         "DPI",
	ConnectorWriteback:   "Writeback",
	ConnectorSPI:         "SPI",
	ConnectorUSB:         "USB",
}

func (t ConnectorType) String() string {
	if int(t) >= len(connectorNames) {
		return connectorNames[ConnectorUnknown]
	}
	return connectorNames[t]
}

func connectorType(u uint32) ConnectorType {
	if u >= uint32(len(connectorNames)) {
		return ConnectorUnknown
	}
	return ConnectorType(u)
}

func (c Connection) String() string {
	switch c {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

func connection(u uint32) Connection {
	switch Connection(u) {
	case Connected, Disconnected:
		return Connection(u)
	}
	return UnknownConnection
}

func subpixel(u uint32) Subpixel {
	if u < uint32(SubpixelUnknown) || u > uint32(SubpixelNone) {
		return SubpixelUnknown
	}
	return Subpixel(u)
}

// GetConnector fetches a connector. On most drivers this polls the
// output, which can take a while on connectors with slow DDC.
func GetConnector(dev *drm.Device, id Id[Connector]) (*Connector, error) {
	var (
		conn       sysGetConnector
		modes      []Info
		props      []Id[Property]
		propValues []uint64
		encoders   []Id[Encoder]
	)

	err := dev.Fetch(IOCTLModeGetConnector, unsafe.Pointer(&conn),
		func() { conn = sysGetConnector{connectorID: id.raw} },
		func() ([]drm.List, error) {
			return []drm.List{
				drm.Array(&conn.countModes, &conn.modesPtr, &modes),
				drm.Array(&conn.countProps, &conn.propsPtr, &props),
				drm.Array(&conn.countProps, &conn.propValuesPtr, &propValues),
				drm.Array(&conn.countEncoders, &conn.encodersPtr, &encoders),
			}, nil
		})
	if err != nil {
		return nil, err
	}

	ret := &Connector{
		ID:         id,
		Type:       connectorType(conn.connectorType),
		TypeID:     conn.connectorTypeID,
		Connection: connection(conn.connection),
		Width:      conn.mmWidth,
		Height:     conn.mmHeight,
		Subpixel:   subpixel(conn.subpixel),
		Modes:      modes,
		Encoders:   encoders,
		encoder:    Id[Encoder]{raw: conn.encoderID},
	}
	ret.Props = make([]PropertyValue, len(props))
	for i := range props {
		ret.Props[i] = PropertyValue{ID: props[i], Value: propValues[i]}
	}
	return ret, nil
}

// Encoder returns the encoder currently driving the connector.
func (c *Connector) Encoder() (Id[Encoder], bool) {
	return optional[Encoder](c.encoder.raw)
}

// Name returns the conventional connector name, like "HDMI-A-1".
func (c *Connector) Name() string {
	return fmt.Sprintf("%s-%d", c.Type, c.TypeID)
}

// PreferredMode returns the mode flagged preferred, or the first mode.
func (c *Connector) PreferredMode() (Info, bool) {
	for _, m := range c.Modes {
		if m.Preferred() {
			return m, true
		}
	}
	if len(c.Modes) == 0 {
		return Info{}, false
	}
	return c.Modes[0], true
}
