// Command drminfo prints the display pipeline of a DRM card and exercises
// its mode setting and event interfaces.
//
//	drminfo                     # connectors, encoders, CRTCs, planes
//	drminfo -props              # with object properties
//	drminfo -events 10          # wait for 10 vblanks of the first CRTC
//	drminfo -modeset 5s         # paint every connected display for 5s
//	drminfo -watch              # dump again on every hotplug
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	drm "github.com/NeowayLabs/drmkms"
	"github.com/NeowayLabs/drmkms/internal/logging"
)

func main() {
	var (
		card    = flag.String("card", "", "card node to open (default: first card in /dev/dri)")
		debug   = flag.Bool("debug", false, "enable debug logging")
		props   = flag.Bool("props", false, "print object properties")
		events  = flag.Int("events", 0, "wait for `n` vblank events of the first CRTC")
		modeset = flag.Duration("modeset", 0, "paint every connected display for `duration`")
		watch   = flag.Bool("watch", false, "dump the card again on every hotplug event")
	)
	flag.Parse()

	log := logging.New(*debug)
	defer log.Sync()

	dev, err := openDevice(*card, log)
	if err != nil {
		log.Fatal("cannot open card", zap.Error(err))
	}
	defer dev.Close()

	if err := dump(os.Stdout, dev, *props); err != nil {
		log.Fatal("cannot dump card", zap.Error(err))
	}

	if *events > 0 {
		if err := vblanks(os.Stdout, dev, *events); err != nil {
			log.Error("waiting for vblanks", zap.Error(err))
		}
	}

	if *modeset > 0 {
		if err := paint(dev, *modeset); err != nil {
			log.Error("modeset failed", zap.Error(err))
		}
	}

	if *watch {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		if err := watchHotplug(os.Stdout, dev, *props, sigCh); err != nil {
			log.Error("hotplug watch failed", zap.Error(err))
		}
	}
}

func openDevice(path string, log *zap.Logger) (*drm.Device, error) {
	if path == "" {
		return drm.FirstCard(drm.WithLogger(log))
	}
	return drm.Open(path, drm.WithLogger(log))
}

func elapsed(start time.Time) zap.Field {
	return zap.Duration("elapsed", time.Since(start))
}
