// Package evdevdevice implements the Device backend adapter of
// SPEC_FULL.md §9: enumeration, exclusive grab/ungrab, and event
// translation on top of github.com/gvalkov/golang-evdev, grounded on
// other_examples/a3894e84_gonzaru-mouseless, which reads the same
// library's InputDevice/InputEvent types for the same purpose.
package evdevdevice

import (
	"fmt"
	"sync"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/keyd-project/keyd/internal/device"
)

// Backend owns the set of currently-grabbed evdev handles, keyed by
// device path, and satisfies dispatcher.Grabber.
type Backend struct {
	mu     sync.Mutex
	open   map[string]*evdev.InputDevice
	accum  map[string]*pendingMotion
}

// New creates an empty Backend. No devices are opened until Grab is
// called for one discovered by Enumerate.
func New() *Backend {
	return &Backend{
		open:  map[string]*evdev.InputDevice{},
		accum: map[string]*pendingMotion{},
	}
}

// Enumerate lists every input device currently under /dev/input and
// translates each into the dispatcher's Device Table representation
// (spec.md §3), without opening or grabbing any of them.
func (b *Backend) Enumerate() ([]*device.Device, error) {
	raw, err := evdev.ListInputDevices("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("evdevdevice: enumerate: %w", err)
	}

	devices := make([]*device.Device, 0, len(raw))
	for _, dev := range raw {
		devices = append(devices, &device.Device{
			Path:         dev.Fn,
			Name:         dev.Name,
			VendorID:     dev.ID.Vendor,
			ProductID:    dev.ID.Product,
			Capabilities: capabilitiesOf(dev),
		})
	}
	return devices, nil
}

// capabilitiesOf classifies a raw evdev device the same way
// findKeyboardDevices in the gonzaru-mouseless reference does for
// keyboards (presence of EV_KEY plus a letter key), extended here to
// also recognize relative and absolute pointer capability so rank-2
// configs (spec.md §4.1) can bind mice and tablets too.
func capabilitiesOf(dev *evdev.InputDevice) device.Capability {
	var caps device.Capability
	for capType, codes := range dev.Capabilities {
		switch capType.Type {
		case evdev.EV_KEY:
			for _, code := range codes {
				if code.Code == evdev.KEY_A || code.Code == evdev.KEY_SPACE {
					caps |= device.CapKeyboard
				}
			}
		case evdev.EV_REL:
			for _, code := range codes {
				if code.Code == evdev.REL_X || code.Code == evdev.REL_Y {
					caps |= device.CapMouseRelative
				}
			}
		case evdev.EV_ABS:
			for _, code := range codes {
				if code.Code == evdev.ABS_X || code.Code == evdev.ABS_Y {
					caps |= device.CapMouseAbsolute
				}
			}
		}
	}
	return caps
}

// Grab implements dispatcher.Grabber: opens the device file if needed
// and issues EVIOCGRAB so only this process receives its events
// (spec.md §4.1).
func (b *Backend) Grab(dev *device.Device) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	handle, ok := b.open[dev.Path]
	if !ok {
		opened, err := evdev.Open(dev.Path)
		if err != nil {
			return fmt.Errorf("evdevdevice: open %s: %w", dev.Path, err)
		}
		handle = opened
		b.open[dev.Path] = handle
		b.accum[dev.Path] = &pendingMotion{}
	}

	if err := handle.Grab(); err != nil {
		return fmt.Errorf("evdevdevice: grab %s: %w", dev.Path, err)
	}
	return nil
}

// Ungrab implements dispatcher.Grabber: releases the exclusive grab and
// closes the device file. A device that was never grabbed is a no-op,
// matching the dispatcher's unconditional call on every non-match
// (internal/dispatcher/matching.go).
func (b *Backend) Ungrab(dev *device.Device) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	handle, ok := b.open[dev.Path]
	if !ok {
		return nil
	}
	delete(b.open, dev.Path)
	delete(b.accum, dev.Path)

	if err := handle.Release(); err != nil {
		handle.File.Close()
		return fmt.Errorf("evdevdevice: release %s: %w", dev.Path, err)
	}
	return handle.File.Close()
}

// FD returns the file descriptor backing an already-grabbed device, for
// registration with internal/eventloop. The second return is false if
// dev has not been grabbed.
func (b *Backend) FD(dev *device.Device) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	handle, ok := b.open[dev.Path]
	if !ok {
		return 0, false
	}
	return int(handle.File.Fd()), true
}
