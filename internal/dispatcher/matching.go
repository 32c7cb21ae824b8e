package dispatcher

import "github.com/keyd-project/keyd/internal/device"

// match implements spec.md §4.1: score dev against the Registry, bind
// if the rank's capability condition is satisfied, otherwise clear the
// binding and ungrab.
func (d *Dispatcher) match(dev *device.Device) {
	entry, rank := lookupMatch(d.registry, dev.ID())

	bind := entry != nil && rankSatisfied(rank, dev.Capabilities)

	if bind {
		if err := d.grabber.Grab(dev); err != nil {
			d.log.Warnf("failed to grab %s: %v", dev.Path, err)
			dev.Binding = nil
			return
		}
		dev.Binding = entry.Interpreter
		d.log.Infof("match   %04x:%04x  %s\t(%s)", dev.VendorID, dev.ProductID, entry.Path, dev.Name)
		return
	}

	dev.Binding = nil
	if err := d.grabber.Ungrab(dev); err != nil {
		d.log.Warnf("ungrab %s: %v", dev.Path, err)
	}
	d.log.Warnf("ignoring %04x:%04x  (%s)", dev.VendorID, dev.ProductID, dev.Name)
}

// rankSatisfied implements spec.md §4.1's capability gate: rank 1 binds
// only a KEYBOARD-capable device; rank 2 also binds MOUSE_RELATIVE or
// MOUSE_ABSOLUTE devices (and, being >=1, keyboards too).
func rankSatisfied(rank int, caps device.Capability) bool {
	switch rank {
	case 1:
		return caps.Has(device.CapKeyboard)
	case 2:
		return caps.Has(device.CapKeyboard) || caps.Has(device.CapMouseRelative) || caps.Has(device.CapMouseAbsolute)
	default:
		return false
	}
}

// addDevice appends dev to the Device Table and runs matching. Panics
// if the table is full: spec.md §4.2 calls overflow "an assertion
// failure" because MaxDevices is a static upper bound that a correctly
// behaving host never exceeds.
func (d *Dispatcher) addDevice(dev *device.Device) {
	if len(d.devices) >= MaxDevices {
		panic("dispatcher: device table overflow")
	}
	d.devices = append(d.devices, dev)
	d.match(dev)
}

// removeDevice deletes dev from the Device Table by identity,
// compacting in place and preserving the relative order of survivors
// (spec.md §4.2). No ungrab is issued: the device is already gone.
func (d *Dispatcher) removeDevice(dev *device.Device) {
	n := 0
	for _, existing := range d.devices {
		if existing != dev {
			d.devices[n] = existing
			n++
		}
	}
	d.devices = d.devices[:n]
	d.log.Warnf("removed\t%04x:%04x %s", dev.VendorID, dev.ProductID, dev.Name)
}
