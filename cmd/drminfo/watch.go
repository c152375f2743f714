package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	drm "github.com/NeowayLabs/drmkms"
	"github.com/NeowayLabs/drmkms/internal/hotplug"
)

// watchHotplug dumps the card again on every hotplug uevent until a
// signal arrives.
func watchHotplug(w io.Writer, dev *drm.Device, props bool, sigCh <-chan os.Signal) error {
	log := dev.Logger()
	watcher := hotplug.New(log)
	events, err := watcher.Start()
	if err != nil {
		return err
	}
	defer watcher.Stop()

	log.Info("watching hotplug events")
	for {
		select {
		case sig := <-sigCh:
			log.Info("stopping", zap.Stringer("signal", sig))
			return nil
		case ev := <-events:
			log.Info("uevent",
				zap.String("action", ev.Action),
				zap.String("device", ev.Device),
				zap.Bool("hotplug", ev.Hotplug))
			if !ev.Hotplug {
				continue
			}
			fmt.Fprintf(w, "\n--- %s %s ---\n", ev.Action, ev.Device)
			if err := dump(w, dev, props); err != nil {
				log.Error("dump after hotplug", zap.Error(err))
			}
		}
	}
}
