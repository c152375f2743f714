package main

import (
	"bytes"
	"strings"
	"testing"
	"unsafe"

	drm "github.com/NeowayLabs/drmkms"
	"github.com/NeowayLabs/drmkms/internal/kerneltest"
	"github.com/NeowayLabs/drmkms/mode"
)

// kernel layouts of the requests an empty card answers
type (
	version struct {
		major, minor, patch int32
		namelen, name       uint64
		datelen, date       uint64
		desclen, desc       uint64
	}

	cardRes struct {
		fbs, crtcs, connectors, encoders uint64
		countFbs, countCrtcs             uint32
		countConnectors, countEncoders   uint32
		minWidth, maxWidth               uint32
		minHeight, maxHeight             uint32
	}

	planeRes struct {
		planes      uint64
		countPlanes uint32
	}
)

func emptyCard() *drm.Device {
	ch := kerneltest.New()
	ch.Handle(drm.IOCTLVersion, func(arg unsafe.Pointer) error {
		v := (*version)(arg)
		v.major, v.minor = 1, 0
		kerneltest.Put(&v.namelen, v.name, []byte("vkms"))
		kerneltest.Put(&v.datelen, v.date, []byte("20180514"))
		kerneltest.Put(&v.desclen, v.desc, []byte("Virtual Kernel Mode Setting"))
		return nil
	})
	ch.Handle(mode.IOCTLModeResources, func(arg unsafe.Pointer) error {
		r := (*cardRes)(arg)
		r.minWidth, r.minHeight = 1, 1
		r.maxWidth, r.maxHeight = 8192, 8192
		return nil
	})
	ch.Handle(mode.IOCTLModeGetPlaneResources, func(arg unsafe.Pointer) error {
		(*planeRes)(arg).countPlanes = 0
		return nil
	})
	return drm.New(ch)
}

func TestDumpEmptyCard(t *testing.T) {
	var out bytes.Buffer
	if err := dump(&out, emptyCard(), true); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Driver: vkms 1.0.0 (20180514) Virtual Kernel Mode Setting\n",
		"Dumb buffers: false\n",
		"Size: 1x1 to 8192x8192\n",
		"\nConnectors:\n",
		"\nPlanes:\n",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output lacks %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "Bus:") {
		t.Errorf("empty bus id printed:\n%s", out.String())
	}
}
