// Package dispatcher implements the core event dispatcher of spec.md:
// the device-to-configuration matching engine, the ingress event loop
// integration, and the emission path that keeps the virtual sink's
// held-key state mirrored so it can be drained cleanly on reload.
//
// Everything in this package is driven from a single goroutine (spec.md
// §5: "single-threaded cooperative"); there is no internal locking
// because the caller — the Event Loop integration in cmd/keyd — never
// calls into a Dispatcher concurrently with itself.
package dispatcher

import (
	"fmt"

	"github.com/keyd-project/keyd/internal/device"
	"github.com/keyd-project/keyd/internal/interpreter"
)

// MaxDevices bounds the Device Table (spec.md §3, §4.2).
const MaxDevices = 256

// Sink is the Virtual Sink contract (spec.md §2 item 2): no state of
// its own, just emission primitives.
type Sink interface {
	KeyPress(code uint8, pressed bool) error
	MoveRelative(dx, dy int32) error
	MoveAbsolute(x, y int32) error
	Scroll(dx, dy int32) error
	// Name is the sink's advertised device name; a device-added event
	// carrying this name is the daemon's own virtual keyboard and must
	// never enter the Device Table (spec.md §3, §4.2).
	Name() string
}

// Grabber performs the OS-level exclusive grab/ungrab of a physical
// device (spec.md §4.1). It is the "external primitive" the real
// device backend (golang-evdev in internal/evdevdevice) provides.
type Grabber interface {
	Grab(dev *device.Device) error
	Ungrab(dev *device.Device) error
}

// Logger is the narrow logging surface the dispatcher needs; satisfied
// by *github.com/charmbracelet/log.Logger.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Dispatcher is the core described in spec.md §2 item 7: it owns the
// Sink Mirror, Device Table, Configuration Registry and Listener Set,
// and is the sole translator from Event Loop events into Interpreter
// calls and Sink emissions.
type Dispatcher struct {
	sink    Sink
	grabber Grabber
	loader  ConfigLoader
	log     Logger

	devices  []*device.Device
	registry []*ConfigEntry
	mirror   mirror
	listens  *listenerSet

	// lastActive is the Interpreter that most recently produced a key
	// event (spec.md §4.3); timer ticks route here.
	lastActive interpreter.Interpreter
}

// Option configures a Dispatcher at construction.
type Option func(*Dispatcher)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// New constructs a Dispatcher. sink, grabber and loader are the three
// external collaborators spec.md §1 calls out as out of scope for the
// core; production wires internal/vkbd, internal/evdevdevice and
// internal/configdir respectively.
func New(sink Sink, grabber Grabber, loader ConfigLoader, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sink:    sink,
		grabber: grabber,
		loader:  loader,
		log:     nopLogger{},
		listens: newListenerSet(MaxListeners),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{}) {}

// Devices returns the current Device Table, for inspection/tests.
func (d *Dispatcher) Devices() []*device.Device {
	return d.devices
}

// Registry returns the current Configuration Registry, for inspection/tests.
func (d *Dispatcher) Registry() []*ConfigEntry {
	return d.registry
}

// ListenerCount reports how many layer-state subscribers are attached.
func (d *Dispatcher) ListenerCount() int {
	return d.listens.len()
}

// HeldKeys reports every keycode the Sink Mirror currently believes is
// held, in ascending order.
func (d *Dispatcher) HeldKeys() []uint8 {
	return d.mirror.heldCodes()
}

// emit is spec.md §4.4's single emission wrapper: every key event an
// Interpreter produces passes through here on its way to the sink.
func (d *Dispatcher) emit(code uint8, pressed bool) {
	d.mirror.set(code, pressed)
	if err := d.sink.KeyPress(code, pressed); err != nil {
		d.log.Warnf("sink: key %d: %v", code, err)
	}
}

// onLayerChange is spec.md §4.6's layer-observer callback: every
// Interpreter reports layer activation/deactivation here, and it is
// fanned out to every LAYER_LISTEN subscriber synchronously.
func (d *Dispatcher) onLayerChange(name string, active bool) {
	sign := byte('-')
	if active {
		sign = '+'
	}
	d.listens.broadcast(fmt.Sprintf("%c%s\n", sign, name))
}

// drain releases every keycode the Sink Mirror believes is held, in
// ascending numeric order (spec.md §4.4). Used after a reload so no
// stale Interpreter can leave a key wedged down.
func (d *Dispatcher) drain() {
	for code := 0; code < len(d.mirror.held); code++ {
		if d.mirror.get(uint8(code)) {
			d.emit(uint8(code), false)
		}
	}
}
