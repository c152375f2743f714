package drm

import (
	"bufio"
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	EventVBlank       = 0x01
	EventFlipComplete = 0x02

	eventHeaderSize = 8
	vblankEventSize = 32
	eventBufferSize = 1024
)

type (
	// Event is one record read from a card node: UnknownEvent,
	// VBlankEvent or PageFlipEvent.
	Event interface {
		event()
	}

	// UnknownEvent is a record of a type this package does not decode.
	UnknownEvent struct {
		Type uint32
	}

	// VBlankEvent answers Device.RequestVBlank.
	//
	// Time is read on the driver's clock and may lie in the future: drivers
	// report when the vblank happens, which can be after the event is
	// queued. Compare it with other event times or MonotonicNow, never
	// assume it has passed.
	VBlankEvent struct {
		Sequence uint32
		Time     time.Duration
		UserData uint64
		Crtc     uint32 // set when CapCrtcInVBlankEvent is supported
	}

	// PageFlipEvent reports the completion of Master.PageFlip.
	PageFlipEvent struct {
		Sequence uint32
		Time     time.Duration
		UserData uint64
		Crtc     uint32
	}

	// EventReader decodes the record stream of a card node.
	EventReader struct {
		r *bufio.Reader
	}
)

func (UnknownEvent) event()  {}
func (VBlankEvent) event()   {}
func (PageFlipEvent) event() {}

func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{r: bufio.NewReaderSize(r, eventBufferSize)}
}

// Buffered returns the number of bytes read from the node but not yet
// decoded.
func (er *EventReader) Buffered() int {
	return er.r.Buffered()
}

// ReadEvent decodes the next record. It returns ErrWouldBlock when
// nothing is queued and ErrInvalidData for a truncated record, which is
// dropped.
func (er *EventReader) ReadEvent() (Event, error) {
	hdr, err := er.r.Peek(eventHeaderSize)
	if len(hdr) == 0 {
		if err == io.EOF || err == io.ErrNoProgress || errors.Is(err, unix.EAGAIN) {
			return nil, ErrWouldBlock
		}
		return nil, err
	}
	if len(hdr) < eventHeaderSize {
		er.drop()
		return nil, errors.Wrapf(ErrInvalidData, "event header of %d bytes", len(hdr))
	}

	typ := binary.NativeEndian.Uint32(hdr[0:])
	length := int(binary.NativeEndian.Uint32(hdr[4:]))
	if length < eventHeaderSize || er.r.Buffered() < length {
		n := er.drop()
		return nil, errors.Wrapf(ErrInvalidData, "short event: %d of %d bytes", n, length)
	}

	rec, err := er.r.Peek(length)
	if err != nil {
		return nil, err
	}

	var ev Event
	switch typ {
	case EventVBlank, EventFlipComplete:
		if length < vblankEventSize {
			er.r.Discard(length)
			return nil, errors.Wrapf(ErrInvalidData, "vblank event of %d bytes", length)
		}
		v := VBlankEvent{
			UserData: binary.NativeEndian.Uint64(rec[8:]),
			Time: time.Duration(binary.NativeEndian.Uint32(rec[16:]))*time.Second +
				time.Duration(binary.NativeEndian.Uint32(rec[20:]))*time.Microsecond,
			Sequence: binary.NativeEndian.Uint32(rec[24:]),
			Crtc:     binary.NativeEndian.Uint32(rec[28:]),
		}
		if typ == EventVBlank {
			ev = v
		} else {
			ev = PageFlipEvent(v)
		}
	default:
		ev = UnknownEvent{Type: typ}
	}

	if _, err := er.r.Discard(length); err != nil {
		return nil, err
	}
	return ev, nil
}

func (er *EventReader) drop() int {
	n, _ := er.r.Discard(er.r.Buffered())
	return n
}

// ReadEvent reads the next event queued on the node. Events are only
// queued after RequestVBlank or a page flip. In non-blocking mode an
// empty queue yields ErrWouldBlock.
func (d *Device) ReadEvent() (Event, error) {
	return d.events.ReadEvent()
}
