package drm

import "unsafe"

// SetMaster makes this client the card master. It fails with
// ErrMasterHeld if this Device already holds master and with the
// kernel's EINVAL when another client does. Most callers want
// mode.AcquireMaster, which pairs it with a scoped release.
func (d *Device) SetMaster() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.master {
		return ErrMasterHeld
	}
	if err := d.Ioctl(IOCTLSetMaster, unsafe.Pointer(nil)); err != nil {
		return err
	}
	d.master = true
	return nil
}

// DropMaster gives master up. The Device stops considering itself master
// even if the kernel call fails, since nothing can retry it usefully.
func (d *Device) DropMaster() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.master {
		return nil
	}
	d.master = false
	return d.Ioctl(IOCTLDropMaster, unsafe.Pointer(nil))
}

// IsMaster reports whether master is held through this Device.
func (d *Device) IsMaster() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.master
}
