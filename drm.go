package drm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

type (
	version struct {
		Major   int32
		Minor   int32
		Patch   int32
		namelen uint64
		name    uint64
		datelen uint64
		date    uint64
		desclen uint64
		desc    uint64
	}

	unique struct {
		len uint64
		ptr uint64
	}

	// Version of DRM driver
	Version struct {
		Major, Minor, Patch int32
		Name                string // Name of the driver (eg.: i915)
		Date                string // YYYYMMDD
		Desc                string
	}

	// Device is an opened card node.
	Device struct {
		ch            Channel
		log           *zap.Logger
		events        *EventReader
		fetchAttempts int

		mu     sync.Mutex
		master bool
	}

	// Option configures a Device.
	Option func(*Device)
)

const (
	driPath = "/dev/dri"

	// DefaultFetchAttempts bounds the retries of Fetch.
	DefaultFetchAttempts = 16
)

// WithLogger sets the logger a Device reports retries and best-effort
// cleanup failures to. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.log = l
		}
	}
}

// WithFetchAttempts sets how many count/data round trips Fetch makes
// before giving up with ErrFetchRaced.
func WithFetchAttempts(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.fetchAttempts = n
		}
	}
}

// New returns a Device issuing its requests through ch.
func New(ch Channel, opts ...Option) *Device {
	d := &Device{
		ch:            ch,
		log:           zap.NewNop(),
		fetchAttempts: DefaultFetchAttempts,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.events = NewEventReader(ch)
	return d
}

// Open opens the card node at path read-write.
func Open(path string, opts ...Option) (*Device, error) {
	ch, err := openChannel(path)
	if err != nil {
		return nil, err
	}
	d := New(ch, opts...)
	d.log = d.log.With(zap.String("card", path))
	return d, nil
}

// OpenCard opens /dev/dri/card<n>.
func OpenCard(n int, opts ...Option) (*Device, error) {
	return Open(fmt.Sprintf("%s/card%d", driPath, n), opts...)
}

// Cards lists the card nodes under /dev/dri in name order.
func Cards() ([]string, error) {
	return filepath.Glob(filepath.Join(driPath, "card*"))
}

// FirstCard opens the first card node found. Programs driving a specific
// display should let the user pick the card instead.
func FirstCard(opts ...Option) (*Device, error) {
	cards, err := Cards()
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, errors.Wrapf(os.ErrNotExist, "no cards found in %s", driPath)
	}
	return Open(cards[0], opts...)
}

// Available reports the version of the driver behind card0.
func Available() (Version, error) {
	dev, err := OpenCard(0)
	if err != nil {
		// handle backward linux compat?
		// check /proc/dri/0 ?
		return Version{}, err
	}
	defer dev.Close()
	return dev.Version()
}

// Close releases the node. Mappings made from it stay valid until
// unmapped.
func (d *Device) Close() error {
	return d.ch.Close()
}

// Fd returns the node's descriptor, for registration with a poller.
func (d *Device) Fd() uintptr {
	return d.ch.Fd()
}

// SetNonblock switches event reads between blocking and failing with
// ErrWouldBlock.
func (d *Device) SetNonblock(nonblocking bool) error {
	return d.ch.SetNonblock(nonblocking)
}

// Logger returns the logger set with WithLogger, a no-op one by default.
func (d *Device) Logger() *zap.Logger {
	return d.log
}

// Ioctl issues one request, retrying while the call is interrupted.
// Other errors are returned unchanged as a unix.Errno.
func (d *Device) Ioctl(code uint32, arg unsafe.Pointer) error {
	for {
		err := d.ch.Ioctl(code, arg)
		if err != unix.EINTR {
			return err
		}
	}
}

// Mmap maps length bytes of the node at the fake offset handed out by
// the kernel for a buffer object.
func (d *Device) Mmap(offset int64, length int) ([]byte, error) {
	return d.ch.Mmap(offset, length)
}

// Munmap releases a mapping returned by Mmap.
func (d *Device) Munmap(b []byte) error {
	return d.ch.Munmap(b)
}

// Version returns the driver version and identification strings.
func (d *Device) Version() (Version, error) {
	var (
		v                version
		name, date, desc []byte
	)

	err := d.Fetch(IOCTLVersion, unsafe.Pointer(&v),
		func() { v = version{} },
		func() ([]List, error) {
			return []List{
				Array(&v.namelen, &v.name, &name),
				Array(&v.datelen, &v.date, &date),
				Array(&v.desclen, &v.desc, &desc),
			}, nil
		})
	if err != nil {
		return Version{}, err
	}

	return Version{
		Major: v.Major,
		Minor: v.Minor,
		Patch: v.Patch,
		Name:  cString(name),
		Date:  cString(date),
		Desc:  cString(desc),
	}, nil
}

// BusID returns the bus identifier of the card. Many drivers report an
// empty string.
func (d *Device) BusID() (string, error) {
	var (
		u  unique
		id []byte
	)
	err := d.Fetch(IOCTLGetUnique, unsafe.Pointer(&u),
		func() { u = unique{} },
		func() ([]List, error) {
			return []List{Array(&u.len, &u.ptr, &id)}, nil
		})
	if err != nil {
		return "", err
	}
	return cString(id), nil
}

// remove C null bytes at end
func cString(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}
