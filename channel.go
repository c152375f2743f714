package drm

import "unsafe"

// Channel is the transport of an opened card node. Device issues every
// request, read and mapping through it.
type Channel interface {
	// Ioctl issues one request. arg points at the request's fixed
	// layout struct and is updated in place.
	Ioctl(code uint32, arg unsafe.Pointer) error

	// Read reads queued event bytes. A zero byte read reports io.EOF.
	Read(p []byte) (int, error)

	// Mmap maps length bytes of the node at offset, shared and
	// read-write.
	Mmap(offset int64, length int) ([]byte, error)
	Munmap(b []byte) error

	SetNonblock(nonblocking bool) error
	Fd() uintptr
	Close() error
}
