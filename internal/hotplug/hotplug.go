// Package hotplug reports DRM uevents: cards appearing or going away and
// connectors changing state. Snapshots fetched before an event may be
// stale after it.
package hotplug

import (
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"
	"go.uber.org/zap"
)

type (
	// Event is one DRM uevent.
	Event struct {
		Action  string // add, remove, change
		Device  string // device node, like /dev/dri/card0
		Hotplug bool   // a connector of the card changed
	}

	// Watcher forwards DRM uevents until stopped.
	Watcher struct {
		log    *zap.Logger
		events chan Event
		stop   chan struct{}
		once   sync.Once
	}
)

func New(log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		log:    log,
		events: make(chan Event, 10),
		stop:   make(chan struct{}),
	}
}

// Start connects to the kernel uevent socket. Reading it usually
// requires root.
func (w *Watcher) Start() (<-chan Event, error) {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.KernelEvent); err != nil {
		return nil, err
	}
	queue := make(chan netlink.UEvent)
	errChan := make(chan error)
	quit := conn.Monitor(queue, errChan, nil)

	go func() {
		defer conn.Close()
		for {
			select {
			case <-w.stop:
				close(quit)
				return
			case err := <-errChan:
				w.log.Debug("uevent socket", zap.Error(err))
			case uevent := <-queue:
				ev, ok := fromUEvent(uevent)
				if !ok {
					continue
				}
				select {
				case w.events <- ev:
				case <-w.stop:
					close(quit)
					return
				}
			}
		}
	}()
	return w.events, nil
}

// Stop ends the watch. The event channel is not closed.
func (w *Watcher) Stop() {
	w.once.Do(func() { close(w.stop) })
}

func fromUEvent(uevent netlink.UEvent) (Event, bool) {
	if uevent.Env["SUBSYSTEM"] != "drm" {
		return Event{}, false
	}
	devName := uevent.Env["DEVNAME"]
	if devName == "" {
		// connectors and other sub-objects carry no node
		return Event{}, false
	}
	if !strings.HasPrefix(devName, "/dev") {
		devName = "/dev/" + devName
	}
	return Event{
		Action:  string(uevent.Action),
		Device:  devName,
		Hotplug: uevent.Env["HOTPLUG"] == "1",
	}, true
}
