package dispatcher

import (
	"github.com/keyd-project/keyd/internal/device"
	"github.com/keyd-project/keyd/internal/event"
	"github.com/keyd-project/keyd/internal/interpreter"
)

// Handle is the single event-handler function the Event Loop calls
// (spec.md §4.2). Its return value is the next-wakeup timeout hint in
// milliseconds, 0 meaning no timer is needed.
func (d *Dispatcher) Handle(ev event.Event) int {
	switch ev.Kind {
	case event.KindDeviceAdded:
		d.handleDeviceAdded(ev.Device)
		return 0
	case event.KindDeviceRemoved:
		d.removeDevice(ev.Device)
		return 0
	case event.KindDeviceEvent:
		return d.handleDeviceEvent(ev.Device, ev.Payload)
	case event.KindTimerExpired:
		return d.handleTimerExpired()
	case event.KindFDReadable:
		// The control socket's accept/read/dispatch happens in
		// cmd/keyd (which owns the net.Listener); once a request has
		// been read it is delivered via HandleRequest, not through
		// this generic event.
		return 0
	default:
		return 0
	}
}

// handleDeviceAdded implements spec.md §4.2's device-added contract:
// the daemon's own virtual sink is never added to the Device Table.
func (d *Dispatcher) handleDeviceAdded(dev *device.Device) {
	if dev.Name == d.sink.Name() {
		return
	}
	d.addDevice(dev)
}

// handleDeviceEvent implements spec.md §4.2's device-event contract.
func (d *Dispatcher) handleDeviceEvent(dev *device.Device, payload event.DeviceEvent) int {
	if dev == nil || !dev.Bound() {
		return 0
	}
	interp := dev.Binding.(interpreter.Interpreter)

	switch payload.Kind {
	case event.Key:
		d.lastActive = interp
		return interp.ProcessKey(payload.Code, payload.Pressed)
	case event.MouseRelative:
		if err := d.sink.MoveRelative(payload.DX, payload.DY); err != nil {
			d.log.Warnf("sink: relative move: %v", err)
		}
		return 0
	case event.MouseAbsolute:
		if err := d.sink.MoveAbsolute(payload.X, payload.Y); err != nil {
			d.log.Warnf("sink: absolute move: %v", err)
		}
		return 0
	case event.MouseScroll:
		// Inject a synthetic press/release of the reserved button so
		// oneshot modifiers and tap-then-scroll states clear before
		// the scroll itself reaches the sink (spec.md §4.2).
		interp.ProcessKey(interpreter.ExternalMouseButton, true)
		interp.ProcessKey(interpreter.ExternalMouseButton, false)
		d.lastActive = interp
		if err := d.sink.Scroll(payload.DX, payload.DY); err != nil {
			d.log.Warnf("sink: scroll: %v", err)
		}
		return 0
	default:
		return 0
	}
}

// handleTimerExpired implements spec.md §4.2's timer-expired contract:
// deliver a tick to the last-active Interpreter, a no-op before any
// Interpreter has ever been active.
func (d *Dispatcher) handleTimerExpired() int {
	if d.lastActive == nil {
		return 0
	}
	return d.lastActive.Tick()
}
