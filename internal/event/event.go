// Package event defines the tagged-union event contract the Event Loop
// external primitive delivers to the dispatcher (spec.md §2 item 1,
// §4.2, §6.4).
package event

import "github.com/keyd-project/keyd/internal/device"

// Kind discriminates the top-level event variants spec.md §4.2 lists.
type Kind int

const (
	KindDeviceAdded Kind = iota
	KindDeviceRemoved
	KindDeviceEvent
	KindTimerExpired
	KindFDReadable
)

// DeviceEventKind discriminates the sub-tagged payload of a
// KindDeviceEvent (spec.md §6.4).
type DeviceEventKind int

const (
	Key DeviceEventKind = iota
	MouseRelative
	MouseAbsolute
	MouseScroll
)

// DeviceEvent is the sub-tagged payload carried by a KindDeviceEvent
// (spec.md §6.4): KEY{code,pressed}, MOUSE_RELATIVE{dx,dy},
// MOUSE_ABSOLUTE{x,y}, MOUSE_SCROLL{dx,dy}.
type DeviceEvent struct {
	Kind    DeviceEventKind
	Code    uint8
	Pressed bool
	DX, DY  int32
	X, Y    int32
}

// Event is one item the Event Loop hands to the dispatcher's single
// handler function.
type Event struct {
	Kind Kind

	// Device is set for KindDeviceAdded, KindDeviceRemoved and
	// KindDeviceEvent.
	Device *device.Device

	// Payload is set for KindDeviceEvent.
	Payload DeviceEvent

	// FD is set for KindFDReadable.
	FD int
}
