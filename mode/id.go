package mode

import (
	"cmp"
	"fmt"
)

// objType is the kernel's object class tag, used by the object
// properties request.
type objType uint32

const (
	objCrtc      objType = 0xcccccccc
	objConnector objType = 0xc0c0c0c0
	objEncoder   objType = 0xe0e0e0e0
	objMode      objType = 0xdededede
	objProperty  objType = 0xb0b0b0b0
	objFb        objType = 0xfbfbfbfb
	objBlob      objType = 0xbbbbbbbb
	objPlane     objType = 0xeeeeeeee
)

func (t objType) String() string {
	switch t {
	case objCrtc:
		return "Crtc"
	case objConnector:
		return "Connector"
	case objEncoder:
		return "Encoder"
	case objMode:
		return "Mode"
	case objProperty:
		return "Property"
	case objFb:
		return "Fb"
	case objBlob:
		return "PropertyBlob"
	case objPlane:
		return "Plane"
	}
	return fmt.Sprintf("objType(%#x)", uint32(t))
}

// Object is implemented by the KMS object classes of this package:
// Connector, Crtc, Encoder, Fb, Plane, Property and PropertyBlob.
type Object interface {
	objectType() objType
}

func (Connector) objectType() objType    { return objConnector }
func (Crtc) objectType() objType         { return objCrtc }
func (Encoder) objectType() objType      { return objEncoder }
func (Fb) objectType() objType           { return objFb }
func (Plane) objectType() objType        { return objPlane }
func (Property) objectType() objType     { return objProperty }
func (PropertyBlob) objectType() objType { return objBlob }

// Id identifies a kernel object of class T. Ids of different classes
// are distinct types, so a connector id cannot be passed where a CRTC
// id is expected. The zero Id is the absent object.
//
// Ids are comparable and can be used as map keys. The kernel may reuse
// or drop an id at any time (hotplug, other clients), so an Id is only a
// handle to fetch the object again.
type Id[T Object] struct {
	raw uint32
}

// UnsafeId wraps a raw id. Nothing checks that raw names an object of
// class T.
func UnsafeId[T Object](raw uint32) Id[T] {
	return Id[T]{raw: raw}
}

func (id Id[T]) Uint32() uint32 {
	return id.raw
}

func (id Id[T]) IsZero() bool {
	return id.raw == 0
}

// Compare orders ids by raw value.
func (id Id[T]) Compare(other Id[T]) int {
	return cmp.Compare(id.raw, other.raw)
}

func (id Id[T]) Less(other Id[T]) bool {
	return id.raw < other.raw
}

func (id Id[T]) String() string {
	var zero T
	return fmt.Sprintf("%s(%d)", zero.objectType(), id.raw)
}

// optional turns the kernel's "0 means none" convention into an
// (id, ok) pair.
func optional[T Object](raw uint32) (Id[T], bool) {
	return Id[T]{raw: raw}, raw != 0
}
