package mode

import (
	"github.com/pkg/errors"

	drm "github.com/NeowayLabs/drmkms"
)

// Get fetches the object id refers to, dispatching on its class:
//
//	conn, err := mode.Get(dev, connID) // *mode.Connector
func Get[T Object](dev *drm.Device, id Id[T]) (*T, error) {
	var (
		obj any
		err error
	)
	switch id := any(id).(type) {
	case Id[Connector]:
		obj, err = GetConnector(dev, id)
	case Id[Crtc]:
		obj, err = GetCrtc(dev, id)
	case Id[Encoder]:
		obj, err = GetEncoder(dev, id)
	case Id[Fb]:
		obj, err = GetFb(dev, id)
	case Id[Plane]:
		obj, err = GetPlane(dev, id)
	case Id[Property]:
		obj, err = GetProperty(dev, id)
	case Id[PropertyBlob]:
		obj, err = GetPropertyBlob(dev, id)
	default:
		return nil, errors.Errorf("mode: cannot fetch objects of %T", id)
	}
	if err != nil {
		return nil, err
	}
	return obj.(*T), nil
}
