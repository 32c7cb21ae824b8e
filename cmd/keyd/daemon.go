package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/keyd-project/keyd/internal/config"
	"github.com/keyd-project/keyd/internal/configdir"
	"github.com/keyd-project/keyd/internal/dispatcher"
	"github.com/keyd-project/keyd/internal/event"
	"github.com/keyd-project/keyd/internal/eventloop"
	"github.com/keyd-project/keyd/internal/evdevdevice"
	"github.com/keyd-project/keyd/internal/ipc"
	"github.com/keyd-project/keyd/internal/logging"
	"github.com/keyd-project/keyd/internal/vkbd"
)

// controlRequest carries one decoded control-channel request from the
// accept goroutine to the single dispatch goroutine (spec.md §5: all
// Dispatcher calls happen from one thread of control).
type controlRequest struct {
	con dispatcher.Listener
	msg ipc.Message
}

// run wires every adapter into a Dispatcher and drives it until
// SIGINT/SIGTERM, mirroring daemon.c's reload()-then-evloop() sequence
// and its atexit(cleanup) (spec.md §5, §11).
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetLevel(cfg.LogLevel)

	// daemon.c line 385: nice(-20). unix.Setpriority is the literal
	// equivalent; failure (e.g. no CAP_SYS_NICE) is logged, not fatal.
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, cfg.Niceness); err != nil {
		logging.Warnf("setpriority(%d): %v", cfg.Niceness, err)
	}

	sink, err := vkbd.Open()
	if err != nil {
		return err
	}
	defer sink.Close()

	backend := evdevdevice.New()
	watcher, err := evdevdevice.NewWatcher(backend)
	if err != nil {
		return err
	}
	defer watcher.Close()

	loader := configdir.NewLoader(cfg.ConfigDir)
	d := dispatcher.New(sink, backend, loader, dispatcher.WithLogger(logging.Logger))

	if err := d.Reload(); err != nil {
		return err
	}

	loop, err := eventloop.New()
	if err != nil {
		return err
	}
	defer loop.Close()

	listener, err := ipc.Listen(cfg.SocketPath)
	if err != nil {
		return err
	}
	defer listener.Close()
	defer os.Remove(cfg.SocketPath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deviceEvents := make(chan event.Event, 64)
	timerExpired := make(chan struct{}, 1)
	controlRequests := make(chan controlRequest)

	// Initial enumeration: every device already present is a DeviceAdded,
	// same as the original daemon's startup sweep of /dev/input.
	existing, err := backend.Enumerate()
	if err != nil {
		return err
	}
	for _, dev := range existing {
		deviceEvents <- event.Event{Kind: event.KindDeviceAdded, Device: dev}
	}

	if err := loop.Register(watcher.FD(), func(uint32) {
		added, removed, err := watcher.Read()
		if err != nil {
			logging.Warnf("hotplug read: %v", err)
			return
		}
		for _, dev := range added {
			deviceEvents <- event.Event{Kind: event.KindDeviceAdded, Device: dev}
		}
		for _, path := range removed {
			for _, dev := range d.Devices() {
				if dev.Path == path {
					deviceEvents <- event.Event{Kind: event.KindDeviceRemoved, Device: dev}
				}
			}
		}
	}); err != nil {
		return err
	}

	go acceptControlConnections(ctx, listener, controlRequests)
	go func() {
		_ = loop.Run(ctx, func() {
			select {
			case timerExpired <- struct{}{}:
			default:
			}
		})
	}()

	dispatchLoop(ctx, d, loop, backend, deviceEvents, timerExpired, controlRequests)
	return nil
}

// dispatchLoop is the single goroutine that ever calls into d — the
// "single thread of control" spec.md §5 requires.
func dispatchLoop(
	ctx context.Context,
	d *dispatcher.Dispatcher,
	loop *eventloop.Loop,
	backend *evdevdevice.Backend,
	deviceEvents <-chan event.Event,
	timerExpired <-chan struct{},
	controlRequests <-chan controlRequest,
) {
	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-deviceEvents:
			timeout := d.Handle(ev)
			afterDeviceEvent(d, loop, backend, ev, deviceEvents)
			_ = loop.SetTimeout(timeout)

		case <-timerExpired:
			timeout := d.Handle(event.Event{Kind: event.KindTimerExpired})
			_ = loop.SetTimeout(timeout)

		case req := <-controlRequests:
			d.HandleRequest(req.con, req.msg, func(err error) {
				logging.Fatalf("reload: %v", err)
			})
		}
	}
}

// afterDeviceEvent registers or unregisters the physical device's fd
// with the event loop once the dispatcher has updated its binding.
func afterDeviceEvent(d *dispatcher.Dispatcher, loop *eventloop.Loop, backend *evdevdevice.Backend, ev event.Event, deviceEvents chan<- event.Event) {
	switch ev.Kind {
	case event.KindDeviceAdded:
		if !ev.Device.Bound() {
			return
		}
		fd, ok := backend.FD(ev.Device)
		if !ok {
			return
		}
		dev := ev.Device
		_ = loop.Register(fd, func(uint32) {
			payload, ok, err := backend.ReadEvent(dev.Path)
			if err != nil {
				deviceEvents <- event.Event{Kind: event.KindDeviceRemoved, Device: dev}
				return
			}
			if ok {
				deviceEvents <- event.Event{Kind: event.KindDeviceEvent, Device: dev, Payload: payload}
			}
		})
	case event.KindDeviceRemoved:
		if fd, ok := backend.FD(ev.Device); ok {
			_ = loop.Unregister(fd)
		}
	}
}
