// Package drm provides a library to interact with DRM
// (Direct Rendering Manager) and KMS (Kernel Mode Setting) interfaces.
// DRM is a low level interface for the graphics card (gpu) and this package
// enables the creation of graphics library on top of the kernel drm/kms
// subsystem.
//
// A Device owns one opened card node. Requests are issued with Device.Ioctl,
// list-returning requests go through Device.Fetch, and the events the kernel
// queues on the node (vblank, page flip) are read with Device.ReadEvent.
// The mode subpackage builds the typed KMS object model on top of it.
package drm
