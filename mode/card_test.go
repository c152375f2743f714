package mode

import (
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"

	drm "github.com/NeowayLabs/drmkms"
	"github.com/NeowayLabs/drmkms/internal/kerneltest"
)

type (
	fakeConnector struct {
		sys      sysGetConnector
		modes    []Info
		props    []uint32
		values   []uint64
		encoders []uint32
	}

	fakeProperty struct {
		flags  uint32
		name   string
		values []uint64
		enums  []sysPropertyEnum
		blobs  []uint32
	}

	// fakeCard answers mode requests for a card with two CRTCs, an
	// HDMI connector driven by encoder 60 and CRTC 41, and a
	// disconnected VGA connector.
	fakeCard struct {
		ch *kerneltest.Channel

		res        sysResources
		fbs        []uint32
		crtcIDs    []uint32
		connIDs    []uint32
		encoderIDs []uint32
		planeIDs   []uint32

		connectors map[uint32]*fakeConnector
		encoders   map[uint32]sysGetEncoder
		crtcs      map[uint32]sysCrtc
		planes     map[uint32]sysGetPlane
		formats    []uint32
		props      map[uint32]*fakeProperty
		blobs      map[uint32][]byte
		objProps   map[uint32][]PropertyValue
		objTypes   []uint32

		framebuffers map[uint32]sysFBCmd
		dumbs        map[uint32]sysCreateDumb
		nextFb       uint32
		nextHandle   uint32

		master    bool
		setCrtc   []sysCrtc
		setConns  [][]uint32
		cursors   []sysCursor
		flips     []sysPageFlip
		addFBErr  error
		dropErr   error
		rmfbs     int
		destroyed int
	}
)

var mode1080 = func() Info {
	m := Info{
		Clock:    148500,
		Hdisplay: 1920, HsyncStart: 2008, HsyncEnd: 2052, Htotal: 2200,
		Vdisplay: 1080, VsyncStart: 1084, VsyncEnd: 1089, Vtotal: 1125,
		Vrefresh: 60,
		Flags:    FlagPHSync | FlagPVSync,
		Type:     TypeDriver | TypePreferred,
	}
	m.SetName("1920x1080")
	return m
}()

var mode720 = func() Info {
	m := Info{
		Clock:    74250,
		Hdisplay: 1280, HsyncStart: 1390, HsyncEnd: 1430, Htotal: 1650,
		Vdisplay: 720, VsyncStart: 725, VsyncEnd: 730, Vtotal: 750,
		Vrefresh: 60,
		Type:     TypeDriver,
	}
	m.SetName("1280x720")
	return m
}()

// snapshotOpts lets cmp look at the unexported references of snapshots.
var snapshotOpts = cmp.AllowUnexported(
	Connector{}, Crtc{}, Encoder{}, Plane{},
	Id[Connector]{}, Id[Crtc]{}, Id[Encoder]{}, Id[Fb]{},
	Id[Plane]{}, Id[Property]{}, Id[PropertyBlob]{},
)

func newFakeCard(t *testing.T) (*fakeCard, *drm.Device) {
	t.Helper()
	c := &fakeCard{
		ch:         kerneltest.New(),
		res:        sysResources{minWidth: 8, maxWidth: 16384, minHeight: 8, maxHeight: 16384},
		fbs:        []uint32{70},
		crtcIDs:    []uint32{41, 42},
		connIDs:    []uint32{50, 51},
		encoderIDs: []uint32{60, 61},
		planeIDs:   []uint32{30},
		connectors: map[uint32]*fakeConnector{
			50: {
				sys: sysGetConnector{
					encoderID:       60,
					connectorType:   uint32(ConnectorHDMIA),
					connectorTypeID: 1,
					connection:      uint32(Connected),
					mmWidth:         510, mmHeight: 290,
					subpixel: uint32(SubpixelHorizontalRGB),
				},
				modes:    []Info{mode720, mode1080},
				props:    []uint32{1, 2},
				values:   []uint64{0, 100},
				encoders: []uint32{60},
			},
			51: {
				sys: sysGetConnector{
					connectorType:   uint32(ConnectorVGA),
					connectorTypeID: 1,
					connection:      uint32(Disconnected),
				},
				encoders: []uint32{61},
			},
		},
		encoders: map[uint32]sysGetEncoder{
			60: {id: 60, typ: uint32(EncoderTMDS), crtcID: 41, possibleCrtcs: 0x3},
			61: {id: 61, typ: uint32(EncoderDAC), possibleCrtcs: 0x2, possibleClones: 0x1},
		},
		crtcs: map[uint32]sysCrtc{
			41: {id: 41, fbID: 70, gammaSize: 256, modeValid: 1, mode: mode1080},
			42: {id: 42, gammaSize: 256},
		},
		planes: map[uint32]sysGetPlane{
			30: {planeID: 30, crtcID: 41, fbID: 70, possibleCrtcs: 0x3},
		},
		formats: []uint32{uint32(FormatXRGB8888), uint32(FormatARGB8888)},
		props: map[uint32]*fakeProperty{
			1: {
				flags:  uint32(PropEnum),
				name:   "DPMS",
				values: []uint64{0, 1, 2, 3},
				enums:  enums("On", "Standby", "Suspend", "Off"),
			},
			2: {
				flags: uint32(PropBlob | PropImmutable),
				name:  "EDID",
				blobs: []uint32{100},
			},
			3: {
				flags:  uint32(PropRange),
				name:   "gamma",
				values: []uint64{0, 1023},
			},
		},
		blobs: map[uint32][]byte{
			100: {0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00},
		},
		objProps: map[uint32][]PropertyValue{
			41: {{ID: UnsafeId[Property](3), Value: 512}},
		},
		framebuffers: map[uint32]sysFBCmd{
			70: {fbID: 70, width: 1920, height: 1080, pitch: 7680, bpp: 32, depth: 24},
		},
		dumbs:      make(map[uint32]sysCreateDumb),
		nextFb:     71,
		nextHandle: 1,
	}
	c.install()
	return c, drm.New(c.ch)
}

func enums(names ...string) []sysPropertyEnum {
	ret := make([]sysPropertyEnum, len(names))
	for i, name := range names {
		ret[i].value = uint64(i)
		copy(ret[i].name[:], name)
	}
	return ret
}

func (c *fakeCard) resources(arg unsafe.Pointer) error {
	r := (*sysResources)(arg)
	r.minWidth, r.maxWidth = c.res.minWidth, c.res.maxWidth
	r.minHeight, r.maxHeight = c.res.minHeight, c.res.maxHeight
	kerneltest.Put(&r.countFbs, r.fbIDPtr, c.fbs)
	kerneltest.Put(&r.countCrtcs, r.crtcIDPtr, c.crtcIDs)
	kerneltest.Put(&r.countConnectors, r.connectorIDPtr, c.connIDs)
	kerneltest.Put(&r.countEncoders, r.encoderIDPtr, c.encoderIDs)
	return nil
}

func (c *fakeCard) install() {
	c.ch.Handle(IOCTLModeResources, c.resources)
	c.ch.Handle(IOCTLModeGetPlaneResources, func(arg unsafe.Pointer) error {
		r := (*sysPlaneResources)(arg)
		kerneltest.Put(&r.countPlanes, r.planeIDPtr, c.planeIDs)
		return nil
	})
	c.ch.Handle(IOCTLModeGetConnector, func(arg unsafe.Pointer) error {
		r := (*sysGetConnector)(arg)
		f, ok := c.connectors[r.connectorID]
		if !ok {
			return unix.ENOENT
		}
		in := *r
		*r = f.sys
		r.connectorID = in.connectorID
		r.modesPtr, r.propsPtr, r.propValuesPtr, r.encodersPtr =
			in.modesPtr, in.propsPtr, in.propValuesPtr, in.encodersPtr
		r.countModes, r.countProps, r.countEncoders = in.countModes, in.countProps, in.countEncoders

		kerneltest.Put(&r.countModes, r.modesPtr, f.modes)
		room := r.countProps
		kerneltest.Put(&r.countProps, r.propsPtr, f.props)
		kerneltest.Put(&room, r.propValuesPtr, f.values)
		kerneltest.Put(&r.countEncoders, r.encodersPtr, f.encoders)
		return nil
	})
	c.ch.Handle(IOCTLModeGetEncoder, func(arg unsafe.Pointer) error {
		r := (*sysGetEncoder)(arg)
		e, ok := c.encoders[r.id]
		if !ok {
			return unix.ENOENT
		}
		*r = e
		return nil
	})
	c.ch.Handle(IOCTLModeGetCrtc, func(arg unsafe.Pointer) error {
		r := (*sysCrtc)(arg)
		s, ok := c.crtcs[r.id]
		if !ok {
			return unix.ENOENT
		}
		*r = s
		return nil
	})
	c.ch.Handle(IOCTLModeGetPlane, func(arg unsafe.Pointer) error {
		r := (*sysGetPlane)(arg)
		p, ok := c.planes[r.planeID]
		if !ok {
			return unix.ENOENT
		}
		ptr, count := r.formatTypePtr, r.countFormatTypes
		*r = p
		r.formatTypePtr, r.countFormatTypes = ptr, count
		kerneltest.Put(&r.countFormatTypes, r.formatTypePtr, c.formats)
		return nil
	})
	c.ch.Handle(IOCTLModeGetProperty, func(arg unsafe.Pointer) error {
		r := (*sysGetProperty)(arg)
		p, ok := c.props[r.propID]
		if !ok {
			return unix.ENOENT
		}
		r.flags = p.flags
		r.name = [PropNameLen]byte{}
		copy(r.name[:], p.name)
		kerneltest.Put(&r.countValues, r.valuesPtr, p.values)
		switch {
		case p.enums != nil:
			kerneltest.Put(&r.countEnumBlobs, r.enumBlobPtr, p.enums)
		case p.blobs != nil:
			kerneltest.Put(&r.countEnumBlobs, r.enumBlobPtr, p.blobs)
		}
		return nil
	})
	c.ch.Handle(IOCTLModeGetPropBlob, func(arg unsafe.Pointer) error {
		r := (*sysGetBlob)(arg)
		data, ok := c.blobs[r.blobID]
		if !ok {
			return unix.ENOENT
		}
		kerneltest.Put(&r.length, r.data, data)
		return nil
	})
	c.ch.Handle(IOCTLModeObjGetProperties, func(arg unsafe.Pointer) error {
		r := (*sysObjGetProperties)(arg)
		c.objTypes = append(c.objTypes, r.objType)
		pvs, ok := c.objProps[r.objID]
		if !ok {
			return unix.ENOENT
		}
		ids := make([]uint32, len(pvs))
		values := make([]uint64, len(pvs))
		for i, pv := range pvs {
			ids[i], values[i] = pv.ID.Uint32(), pv.Value
		}
		room := r.countProps
		kerneltest.Put(&r.countProps, r.propsPtr, ids)
		kerneltest.Put(&room, r.propValuesPtr, values)
		return nil
	})
	c.ch.Handle(IOCTLModeGetFB, func(arg unsafe.Pointer) error {
		r := (*sysFBCmd)(arg)
		f, ok := c.framebuffers[r.fbID]
		if !ok {
			return unix.ENOENT
		}
		*r = f
		return nil
	})
	c.ch.Handle(IOCTLModeCreateDumb, func(arg unsafe.Pointer) error {
		r := (*sysCreateDumb)(arg)
		if r.width == 0 || r.height == 0 || r.bpp == 0 {
			return unix.EINVAL
		}
		r.handle = c.nextHandle
		r.pitch = r.width * ((r.bpp + 7) / 8)
		r.size = uint64(r.pitch) * uint64(r.height)
		c.nextHandle++
		c.dumbs[r.handle] = *r
		return nil
	})
	c.ch.Handle(IOCTLModeMapDumb, func(arg unsafe.Pointer) error {
		r := (*sysMapDumb)(arg)
		if _, ok := c.dumbs[r.handle]; !ok {
			return unix.ENOENT
		}
		r.offset = uint64(r.handle) << 12
		return nil
	})
	c.ch.Handle(IOCTLModeDestroyDumb, func(arg unsafe.Pointer) error {
		r := (*sysDestroyDumb)(arg)
		if _, ok := c.dumbs[r.handle]; !ok {
			return unix.ENOENT
		}
		delete(c.dumbs, r.handle)
		c.destroyed++
		return nil
	})
	c.ch.Handle(IOCTLModeAddFB, func(arg unsafe.Pointer) error {
		if c.addFBErr != nil {
			return c.addFBErr
		}
		r := (*sysFBCmd)(arg)
		if _, ok := c.dumbs[r.handle]; !ok {
			return unix.ENOENT
		}
		r.fbID = c.nextFb
		c.nextFb++
		c.framebuffers[r.fbID] = *r
		return nil
	})
	c.ch.Handle(IOCTLModeRmFB, func(arg unsafe.Pointer) error {
		id := *(*uint32)(arg)
		if _, ok := c.framebuffers[id]; !ok {
			return unix.ENOENT
		}
		delete(c.framebuffers, id)
		c.rmfbs++
		return nil
	})
	c.ch.Handle(drm.IOCTLSetMaster, func(unsafe.Pointer) error {
		if c.master {
			return unix.EINVAL
		}
		c.master = true
		return nil
	})
	c.ch.Handle(drm.IOCTLDropMaster, func(unsafe.Pointer) error {
		if c.dropErr != nil {
			return c.dropErr
		}
		if !c.master {
			return unix.EINVAL
		}
		c.master = false
		return nil
	})
	c.ch.Handle(IOCTLModeSetCrtc, func(arg unsafe.Pointer) error {
		if !c.master {
			return unix.EACCES
		}
		r := (*sysCrtc)(arg)
		if r.countConnectors > 0 && r.modeValid == 0 {
			return unix.EINVAL
		}
		if r.modeValid != 0 && r.fbID == 0 {
			return unix.EINVAL
		}
		var conns []uint32
		if r.countConnectors > 0 {
			src := unsafe.Slice((*uint32)(unsafe.Pointer(uintptr(r.setConnectorsPtr))), r.countConnectors)
			conns = append(conns, src...)
		}
		c.setCrtc = append(c.setCrtc, *r)
		c.setConns = append(c.setConns, conns)
		return nil
	})
	c.ch.Handle(IOCTLModeCursor, func(arg unsafe.Pointer) error {
		if !c.master {
			return unix.EACCES
		}
		c.cursors = append(c.cursors, *(*sysCursor)(arg))
		return nil
	})
	c.ch.Handle(IOCTLModePageFlip, func(arg unsafe.Pointer) error {
		if !c.master {
			return unix.EACCES
		}
		c.flips = append(c.flips, *(*sysPageFlip)(arg))
		return nil
	})
}
