package drm_test

import (
	"testing"

	drm "github.com/NeowayLabs/drmkms"
	"github.com/NeowayLabs/drmkms/mode"
)

func TestDRIOpen(t *testing.T) {
	dev, _ := openCard(t)
	if dev.Fd() == 0 {
		t.Error("unexpected descriptor 0")
	}
}

func TestAvailableCard(t *testing.T) {
	_, cardInfo := openCard(t)
	v, err := drm.Available()
	if err != nil {
		t.Fatal(err)
	}
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		t.Fatalf("failed to get driver version: %#v", v)
	}
	if v.Major != cardInfo.version.Major && v.Minor != cardInfo.version.Minor &&
		v.Patch != cardInfo.version.Patch {
		t.Logf("Unknow driver version: %d.%d.%d", v.Major, v.Minor, v.Patch)
	}

	t.Logf("Driver name: %s", v.Name)
	t.Logf("Driver version: %d.%d.%d", v.Major, v.Minor, v.Patch)
	t.Logf("Driver date: %s", v.Date)
	t.Logf("Driver description: %s", v.Desc)
}

func TestModeRes(t *testing.T) {
	dev, _ := openCard(t)
	mres, err := mode.GetResources(dev)
	if err != nil {
		t.Fatal(err)
	}

	t.Logf("Number of framebuffers: %d", len(mres.Fbs))
	t.Logf("Number of CRTCs: %d", len(mres.Crtcs))
	t.Logf("Number of connectors: %d", len(mres.Connectors))
	t.Logf("Number of encoders: %d", len(mres.Encoders))
	t.Logf("Framebuffers ids: %v", mres.Fbs)
	t.Logf("CRTC ids: %v", mres.Crtcs)
	t.Logf("Connector ids: %v", mres.Connectors)
	t.Logf("Encoder ids: %v", mres.Encoders)
}

func TestModeResTwice(t *testing.T) {
	dev, _ := openCard(t)
	a, err := mode.GetResources(dev)
	if err != nil {
		t.Fatal(err)
	}
	b, err := mode.GetResources(dev)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Connectors) != len(b.Connectors) || len(a.Crtcs) != len(b.Crtcs) {
		t.Errorf("catalog changed between fetches: %v / %v", a, b)
	}
}
