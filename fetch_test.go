package drm

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"

	"github.com/NeowayLabs/drmkms/internal/kerneltest"
)

// versionHandler answers IOCTLVersion. Every call takes the next name
// from names, repeating the last one.
func versionHandler(names ...string) kerneltest.Handler {
	calls := 0
	return func(arg unsafe.Pointer) error {
		v := (*version)(arg)
		name := names[len(names)-1]
		if calls < len(names) {
			name = names[calls]
		}
		calls++
		v.Major, v.Minor, v.Patch = 1, 6, 1
		kerneltest.Put(&v.namelen, v.name, []byte(name))
		kerneltest.Put(&v.datelen, v.date, []byte("20160425"))
		kerneltest.Put(&v.desclen, v.desc, []byte("Intel Graphics"))
		return nil
	}
}

func TestFetchRetriesOnGrowth(t *testing.T) {
	ch := kerneltest.New()
	// the name grows between the count and the data round trip of the
	// first attempt
	ch.Handle(IOCTLVersion, versionHandler("i9", "i915"))
	dev := New(ch)

	v, err := dev.Version()
	if err != nil {
		t.Fatal(err)
	}
	want := Version{Major: 1, Minor: 6, Patch: 1, Name: "i915", Date: "20160425", Desc: "Intel Graphics"}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("version mismatch (-want +got):\n%s", diff)
	}
	if n := ch.Calls(IOCTLVersion); n != 4 {
		t.Errorf("expected 2 attempts of 2 calls, got %d calls", n)
	}
}

func TestFetchTrimsOnShrink(t *testing.T) {
	ch := kerneltest.New()
	ch.Handle(IOCTLVersion, versionHandler("i915", "vc4"))
	dev := New(ch)

	v, err := dev.Version()
	if err != nil {
		t.Fatal(err)
	}
	if v.Name != "vc4" {
		t.Errorf("expected trimmed name vc4, got %q", v.Name)
	}
	if n := ch.Calls(IOCTLVersion); n != 2 {
		t.Errorf("shrinking list must not retry, got %d calls", n)
	}
}

func TestFetchRaced(t *testing.T) {
	ch := kerneltest.New()
	calls := 0
	ch.Handle(IOCTLGetUnique, func(arg unsafe.Pointer) error {
		u := (*unique)(arg)
		calls++
		kerneltest.Put(&u.len, u.ptr, make([]byte, calls))
		return nil
	})
	dev := New(ch, WithFetchAttempts(3))

	_, err := dev.BusID()
	if !errors.Is(err, ErrFetchRaced) {
		t.Fatalf("expected ErrFetchRaced, got %v", err)
	}
	if calls != 6 {
		t.Errorf("expected 3 attempts of 2 calls, got %d calls", calls)
	}
}

func TestFetchPropagatesErrors(t *testing.T) {
	ch := kerneltest.New()
	dev := New(ch)
	_, err := dev.BusID()
	if !errors.Is(err, unix.ENOTTY) {
		t.Errorf("expected ENOTTY, got %v", err)
	}
}

func TestBusID(t *testing.T) {
	ch := kerneltest.New()
	ch.Handle(IOCTLGetUnique, func(arg unsafe.Pointer) error {
		u := (*unique)(arg)
		kerneltest.Put(&u.len, u.ptr, []byte("pci:0000:00:02.0\x00"))
		return nil
	})
	id, err := New(ch).BusID()
	if err != nil {
		t.Fatal(err)
	}
	if id != "pci:0000:00:02.0" {
		t.Errorf("bus id: got %q", id)
	}
}
