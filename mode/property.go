package mode

import (
	"bytes"
	"unsafe"

	"github.com/pkg/errors"

	drm "github.com/NeowayLabs/drmkms"
)

type (
	sysGetProperty struct {
		valuesPtr      uint64
		enumBlobPtr    uint64
		propID         uint32
		flags          uint32
		name           [PropNameLen]byte
		countValues    uint32
		countEnumBlobs uint32
	}

	sysPropertyEnum struct {
		value uint64
		name  [PropNameLen]byte
	}

	sysGetBlob struct {
		blobID uint32
		length uint32
		data   uint64
	}

	sysObjGetProperties struct {
		propsPtr      uint64
		propValuesPtr uint64
		countProps    uint32
		objID         uint32
		objType       uint32
	}

	// Property describes a property objects can carry: EDID, DPMS,
	// rotation, and so on. Values holds the range bounds of range
	// properties and the enum values of enum properties.
	Property struct {
		ID      Id[Property]
		Flags   PropertyFlags
		Name    string
		Values  []uint64
		Payload PropertyPayload // nil, EnumTable or BlobList
	}

	// PropertyPayload is either an EnumTable or a BlobList.
	PropertyPayload interface {
		propertyPayload()
	}

	// EnumTable names the values of an enum or bitmask property.
	EnumTable []PropertyEnum

	// BlobList lists the blobs of a blob property, as reported by old
	// kernels. Current kernels report none; the blob id is the value of
	// the property on its object.
	BlobList []Id[PropertyBlob]

	PropertyEnum struct {
		Value uint64
		Name  string
	}

	PropertyFlags uint32

	// PropertyBlob is a chunk of binary property data, like an EDID.
	PropertyBlob struct {
		ID   Id[PropertyBlob]
		Data []byte
	}
)

func (EnumTable) propertyPayload() {}
func (BlobList) propertyPayload()  {}

const (
	PropPending   PropertyFlags = 1 << 0
	PropRange     PropertyFlags = 1 << 1
	PropImmutable PropertyFlags = 1 << 2
	PropEnum      PropertyFlags = 1 << 3
	PropBlob      PropertyFlags = 1 << 4
	PropBitmask   PropertyFlags = 1 << 5

	// PropExtendedType holds the types added after the legacy bits ran
	// out: PropObject and PropSignedRange.
	PropExtendedType PropertyFlags = 0x0000ffc0
	PropObject       PropertyFlags = 1 << 6
	PropSignedRange  PropertyFlags = 2 << 6

	PropAtomic PropertyFlags = 0x80000000

	propLegacy = PropPending | PropRange | PropImmutable | PropEnum | PropBlob | PropBitmask
)

func propertyFlags(u uint32) (PropertyFlags, error) {
	f := PropertyFlags(u)
	if unknown := f &^ (propLegacy | PropExtendedType | PropAtomic); unknown != 0 {
		return 0, errors.Wrapf(drm.ErrInvalidData, "unknown property flags %#x", uint32(unknown))
	}
	switch f & PropExtendedType {
	case 0, PropObject, PropSignedRange:
	default:
		return 0, errors.Wrapf(drm.ErrInvalidData, "unknown property type %#x", uint32(f&PropExtendedType))
	}
	return f, nil
}

// GetProperty fetches a property description. An unknown flag bit fails
// the fetch with drm.ErrInvalidData.
func GetProperty(dev *drm.Device, id Id[Property]) (*Property, error) {
	var (
		prop   sysGetProperty
		flags  PropertyFlags
		values []uint64
		enums  []sysPropertyEnum
		blobs  []Id[PropertyBlob]
	)

	err := dev.Fetch(IOCTLModeGetProperty, unsafe.Pointer(&prop),
		func() { prop = sysGetProperty{propID: id.raw} },
		func() ([]drm.List, error) {
			var err error
			flags, err = propertyFlags(prop.flags)
			if err != nil {
				return nil, err
			}
			enums, blobs = nil, nil
			lists := []drm.List{drm.Array(&prop.countValues, &prop.valuesPtr, &values)}
			switch {
			case flags&(PropEnum|PropBitmask) != 0:
				lists = append(lists, drm.Array(&prop.countEnumBlobs, &prop.enumBlobPtr, &enums))
			case flags&PropBlob != 0:
				lists = append(lists, drm.Array(&prop.countEnumBlobs, &prop.enumBlobPtr, &blobs))
			}
			return lists, nil
		})
	if err != nil {
		return nil, err
	}

	ret := &Property{
		ID:     id,
		Flags:  flags,
		Name:   cString(prop.name[:]),
		Values: values,
	}
	switch {
	case enums != nil:
		table := make(EnumTable, len(enums))
		for i, e := range enums {
			table[i] = PropertyEnum{Value: e.value, Name: cString(e.name[:])}
		}
		ret.Payload = table
	case blobs != nil:
		ret.Payload = BlobList(blobs)
	}
	return ret, nil
}

// EnumName returns the name of value v of an enum property.
func (p *Property) EnumName(v uint64) (string, bool) {
	table, ok := p.Payload.(EnumTable)
	if !ok {
		return "", false
	}
	for _, e := range table {
		if e.Value == v {
			return e.Name, true
		}
	}
	return "", false
}

// Immutable reports whether only the kernel can change the property.
func (p *Property) Immutable() bool {
	return p.Flags&PropImmutable != 0
}

func GetPropertyBlob(dev *drm.Device, id Id[PropertyBlob]) (*PropertyBlob, error) {
	var (
		blob sysGetBlob
		data []byte
	)
	err := dev.Fetch(IOCTLModeGetPropBlob, unsafe.Pointer(&blob),
		func() { blob = sysGetBlob{blobID: id.raw} },
		func() ([]drm.List, error) {
			return []drm.List{drm.Array(&blob.length, &blob.data, &data)}, nil
		})
	if err != nil {
		return nil, err
	}
	return &PropertyBlob{ID: id, Data: data}, nil
}

// GetObjectProperties returns the properties attached to any object and
// their current values.
func GetObjectProperties[T Object](dev *drm.Device, id Id[T]) ([]PropertyValue, error) {
	var (
		zero   T
		req    sysObjGetProperties
		props  []Id[Property]
		values []uint64
	)
	err := dev.Fetch(IOCTLModeObjGetProperties, unsafe.Pointer(&req),
		func() {
			req = sysObjGetProperties{objID: id.raw, objType: uint32(zero.objectType())}
		},
		func() ([]drm.List, error) {
			return []drm.List{
				drm.Array(&req.countProps, &req.propsPtr, &props),
				drm.Array(&req.countProps, &req.propValuesPtr, &values),
			}, nil
		})
	if err != nil {
		return nil, err
	}
	ret := make([]PropertyValue, len(props))
	for i := range props {
		ret[i] = PropertyValue{ID: props[i], Value: values[i]}
	}
	return ret, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
