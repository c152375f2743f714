package drm_test

import (
	"os"
	"testing"

	drm "github.com/NeowayLabs/drmkms"
)

type (
	cardDetail struct {
		version      drm.Version
		capabilities map[drm.Capability]uint64
	}
)

var (
	cards = map[string]cardDetail{
		"i915": cardDetail{
			version: drm.Version{
				Major: 1,
				Minor: 6,
				Patch: 1,
				Name:  "i915",
				Desc:  "i915",
				Date:  "20160425",
			},
			capabilities: map[drm.Capability]uint64{
				drm.CapDumbBuffer:         1,
				drm.CapVBlankHighCRTC:     1,
				drm.CapDumbPreferredDepth: 24,
				drm.CapDumbPreferShadow:   1,
				drm.CapPrime:              3,
				drm.CapTimestampMonotonic: 1,
				drm.CapAsyncPageFlip:      0,
				drm.CapCursorWidth:        256,
				drm.CapCursorHeight:       256,

				drm.CapAddFB2Modifiers: 1,
			},
		},
	}
)

// openCard opens card 0 for the tests that need real hardware. They only
// run with DRM_CARD_TESTS set, on a card listed in cards.
func openCard(t *testing.T) (*drm.Device, cardDetail) {
	t.Helper()
	if os.Getenv("DRM_CARD_TESTS") == "" {
		t.Skip("DRM_CARD_TESTS not set")
	}
	dev, err := drm.OpenCard(0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { dev.Close() })

	v, err := dev.Version()
	if err != nil {
		t.Fatal(err)
	}
	info, ok := cards[v.Name]
	if !ok {
		t.Skipf("No tests for card '%s'", v.Name)
	}
	return dev, info
}
