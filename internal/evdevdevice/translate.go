package evdevdevice

import (
	"fmt"
	"io"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/keyd-project/keyd/internal/event"
)

// pendingMotion accumulates the individual REL_X/REL_Y or ABS_X/ABS_Y
// axis events evdev reports one at a time, until the terminating
// EV_SYN/SYN_REPORT lets them be folded into a single DeviceEvent
// (spec.md §6.4's MOUSE_RELATIVE/MOUSE_ABSOLUTE payloads carry both
// axes together).
type pendingMotion struct {
	haveRel, haveAbs, haveScroll bool
	dx, dy                       int32
	x, y                         int32
	sdx, sdy                     int32
}

func (p *pendingMotion) reset() {
	*p = pendingMotion{}
}

// ReadEvent reads and translates exactly one raw evdev event for the
// device already grabbed at dev.Path. A key press or release is
// returned at once (autorepeat is dropped with ok=false); axis and
// wheel events are accumulated and return ok=false until the EV_SYN
// that ends their group.
func (b *Backend) ReadEvent(path string) (ev event.DeviceEvent, ok bool, err error) {
	b.mu.Lock()
	handle, openOK := b.open[path]
	acc, accOK := b.accum[path]
	b.mu.Unlock()
	if !openOK || !accOK {
		return event.DeviceEvent{}, false, fmt.Errorf("evdevdevice: %s is not open", path)
	}

	raw, err := handle.ReadOne()
	if err != nil {
		if err == io.EOF {
			return event.DeviceEvent{}, false, err
		}
		return event.DeviceEvent{}, false, fmt.Errorf("evdevdevice: read %s: %w", path, err)
	}

	switch raw.Type {
	case evdev.EV_KEY:
		if raw.Value == 2 { // autorepeat: spec.md's key model is press/release only
			return event.DeviceEvent{}, false, nil
		}
		return event.DeviceEvent{
			Kind:    event.Key,
			Code:    uint8(raw.Code),
			Pressed: raw.Value == 1,
		}, true, nil

	case evdev.EV_REL:
		switch raw.Code {
		case evdev.REL_X:
			acc.dx += int32(raw.Value)
			acc.haveRel = true
		case evdev.REL_Y:
			acc.dy += int32(raw.Value)
			acc.haveRel = true
		case evdev.REL_WHEEL:
			acc.sdy += int32(raw.Value)
			acc.haveScroll = true
		case evdev.REL_HWHEEL:
			acc.sdx += int32(raw.Value)
			acc.haveScroll = true
		}
		return event.DeviceEvent{}, false, nil

	case evdev.EV_ABS:
		switch raw.Code {
		case evdev.ABS_X:
			acc.x = int32(raw.Value)
			acc.haveAbs = true
		case evdev.ABS_Y:
			acc.y = int32(raw.Value)
			acc.haveAbs = true
		}
		return event.DeviceEvent{}, false, nil

	case evdev.EV_SYN:
		defer acc.reset()
		switch {
		case acc.haveScroll:
			return event.DeviceEvent{Kind: event.MouseScroll, DX: acc.sdx, DY: acc.sdy}, true, nil
		case acc.haveRel:
			return event.DeviceEvent{Kind: event.MouseRelative, DX: acc.dx, DY: acc.dy}, true, nil
		case acc.haveAbs:
			return event.DeviceEvent{Kind: event.MouseAbsolute, X: acc.x, Y: acc.y}, true, nil
		default:
			return event.DeviceEvent{}, false, nil
		}

	default:
		return event.DeviceEvent{}, false, nil
	}
}
