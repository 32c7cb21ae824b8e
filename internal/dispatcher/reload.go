package dispatcher

import "fmt"

// Reload implements spec.md §4.5: rebuild the Configuration Registry,
// re-run matching for every device already in the Device Table, then
// drain the Sink Mirror so no stale Interpreter is left holding a key.
//
// A configuration parse failure is fatal per spec.md §7 ("no partial
// registries"); the caller (cmd/keyd) is expected to exit the process
// on a non-nil error rather than retry.
func (d *Dispatcher) Reload() error {
	entries, err := d.loader.Load(d.emit, d.onLayerChange)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	d.registry = entries
	// The Interpreter last-active referenced before this reload belongs
	// to a registry that no longer exists; nothing should route a
	// timer tick to it.
	d.lastActive = nil

	for _, dev := range d.devices {
		d.match(dev)
	}

	d.drain()
	return nil
}
