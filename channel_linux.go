package drm

import (
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
	"launchpad.net/gommap"

	"github.com/NeowayLabs/drmkms/ioctl"
)

// fileChannel talks to the kernel through a raw descriptor. os.File is
// not used because its reads park on the runtime poller instead of
// reporting EAGAIN in non-blocking mode.
type fileChannel struct {
	fd int
}

func openChannel(path string) (*fileChannel, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return &fileChannel{fd: fd}, nil
}

func (c *fileChannel) Ioctl(code uint32, arg unsafe.Pointer) error {
	return ioctl.Do(uintptr(c.fd), code, arg)
}

func (c *fileChannel) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(c.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

func (c *fileChannel) Mmap(offset int64, length int) ([]byte, error) {
	m, err := gommap.MapAt(0, uintptr(c.fd), offset, int64(length),
		gommap.PROT_READ|gommap.PROT_WRITE, gommap.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return []byte(m), nil
}

func (c *fileChannel) Munmap(b []byte) error {
	return gommap.MMap(b).UnsafeUnmap()
}

func (c *fileChannel) SetNonblock(nonblocking bool) error {
	return unix.SetNonblock(c.fd, nonblocking)
}

func (c *fileChannel) Fd() uintptr {
	return uintptr(c.fd)
}

func (c *fileChannel) Close() error {
	return unix.Close(c.fd)
}
