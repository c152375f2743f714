// Package kerneltest provides an in-memory DRM channel for tests. Requests
// are answered by handlers registered per request code, the way the
// kernel answers them on a card node.
package kerneltest

import (
	"bytes"
	"io"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Handler answers one request. arg points at the request struct.
type Handler func(arg unsafe.Pointer) error

// Channel implements drm.Channel. Requests without a handler fail with
// ENOTTY, like an ioctl the driver does not know.
type Channel struct {
	mu          sync.Mutex
	handlers    map[uint32]Handler
	calls       map[uint32]int
	events      bytes.Buffer
	nonblocking bool
	mappings    int
	closed      bool

	// MmapErr, when set, fails every Mmap.
	MmapErr error
}

func New() *Channel {
	return &Channel{
		handlers: make(map[uint32]Handler),
		calls:    make(map[uint32]int),
	}
}

// Handle registers h for code, replacing any previous handler.
func (c *Channel) Handle(code uint32, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[code] = h
}

// Calls returns how many times code was issued, interrupted calls
// included.
func (c *Channel) Calls(code uint32) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[code]
}

// QueueEvent appends raw event bytes to the read side.
func (c *Channel) QueueEvent(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.Write(b)
}

// Mappings returns the number of live mappings.
func (c *Channel) Mappings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mappings
}

func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) Ioctl(code uint32, arg unsafe.Pointer) error {
	c.mu.Lock()
	c.calls[code]++
	h, ok := c.handlers[code]
	c.mu.Unlock()
	if !ok {
		return unix.ENOTTY
	}
	return h(arg)
}

// Read returns the queued event bytes. An empty queue reads as EAGAIN in
// non-blocking mode and as end of file otherwise, since nothing could
// ever wake a blocked reader.
func (c *Channel) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.events.Len() == 0 {
		if c.nonblocking {
			return 0, unix.EAGAIN
		}
		return 0, io.EOF
	}
	return c.events.Read(p)
}

func (c *Channel) Mmap(offset int64, length int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.MmapErr != nil {
		return nil, c.MmapErr
	}
	c.mappings++
	return make([]byte, length), nil
}

func (c *Channel) Munmap(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mappings == 0 {
		return unix.EINVAL
	}
	c.mappings--
	return nil
}

func (c *Channel) SetNonblock(nonblocking bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonblocking = nonblocking
	return nil
}

func (c *Channel) Fd() uintptr {
	return ^uintptr(0)
}

func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return unix.EBADF
	}
	c.closed = true
	return nil
}

// Put answers one list of a request the way the kernel does: the
// elements are copied to ptr only when the caller made room for all of
// them, and the count is set to the number of elements either way.
func Put[C ~uint32 | ~uint64, E any](count *C, ptr uint64, src []E) {
	if ptr != 0 && len(src) > 0 && uint64(*count) >= uint64(len(src)) {
		dst := unsafe.Slice((*E)(unsafe.Pointer(uintptr(ptr))), len(src))
		copy(dst, src)
	}
	*count = C(len(src))
}

// Interrupt wraps h so that its first n calls fail with EINTR.
func Interrupt(n int, h Handler) Handler {
	var mu sync.Mutex
	return func(arg unsafe.Pointer) error {
		mu.Lock()
		interrupted := n > 0
		if interrupted {
			n--
		}
		mu.Unlock()
		if interrupted {
			return unix.EINTR
		}
		return h(arg)
	}
}
