// Package vkbd implements the Virtual Sink (spec.md §2 item 2, §3, §4.4)
// on top of github.com/bendahl/uinput. The teacher's main.go hand-rolled
// the same /dev/uinput ioctl sequence directly with syscall.Syscall; this
// package keeps that same "one virtual device, keys plus a pointer" shape
// but drives it through the real library instead of re-deriving the ioctl
// numbers.
package vkbd

import (
	"fmt"

	"github.com/bendahl/uinput"
)

// DeviceName is the advertised name of the synthetic device. The
// dispatcher compares an incoming device-added event's Name against
// this to keep the daemon from grabbing its own output (spec.md §4.2).
const DeviceName = "keyd virtual keyboard"

// Sink is the concrete Virtual Sink: a synthetic keyboard plus a
// synthetic mouse, both backed by /dev/uinput.
type Sink struct {
	kbd   uinput.Keyboard
	mouse uinput.Mouse
	pad   uinput.TouchPad
	name  string
}

// Open creates the three uinput devices backing Sink. All three share
// one advertised name so a single "this is mine" check in the
// dispatcher covers every event source.
func Open() (*Sink, error) {
	kbd, err := uinput.CreateKeyboard("/dev/uinput", []byte(DeviceName))
	if err != nil {
		return nil, fmt.Errorf("vkbd: create keyboard: %w", err)
	}

	mouse, err := uinput.CreateMouse("/dev/uinput", []byte(DeviceName))
	if err != nil {
		kbd.Close()
		return nil, fmt.Errorf("vkbd: create mouse: %w", err)
	}

	pad, err := uinput.CreateTouchPad("/dev/uinput", []byte(DeviceName), 0, 65535, 0, 65535)
	if err != nil {
		mouse.Close()
		kbd.Close()
		return nil, fmt.Errorf("vkbd: create touchpad: %w", err)
	}

	return &Sink{kbd: kbd, mouse: mouse, pad: pad, name: DeviceName}, nil
}

// KeyPress implements dispatcher.Sink. code is a raw Linux keycode;
// bendahl/uinput's constants use the same numbering as the kernel's
// input-event-codes.h, so no translation table is needed here (unlike
// the teacher's HTTP layer, which mapped symbolic names to codes before
// ever reaching the device — that lookup now lives in
// internal/configdir's keymap DSL, closer to where names are typed).
func (s *Sink) KeyPress(code uint8, pressed bool) error {
	if pressed {
		return s.kbd.KeyDown(int(code))
	}
	return s.kbd.KeyUp(int(code))
}

// MoveRelative implements dispatcher.Sink for relative pointer motion.
func (s *Sink) MoveRelative(dx, dy int32) error {
	return s.mouse.Move(dx, dy)
}

// MoveAbsolute implements dispatcher.Sink for absolute pointer motion
// (tablets, touchscreens).
func (s *Sink) MoveAbsolute(x, y int32) error {
	return s.pad.MoveTo(x, y)
}

// Scroll implements dispatcher.Sink. The two axes are independent wheel
// events; a zero delta on one axis is simply not sent.
func (s *Sink) Scroll(dx, dy int32) error {
	if dy != 0 {
		if err := s.mouse.Wheel(false, dy); err != nil {
			return err
		}
	}
	if dx != 0 {
		if err := s.mouse.Wheel(true, dx); err != nil {
			return err
		}
	}
	return nil
}

// Name implements dispatcher.Sink.
func (s *Sink) Name() string { return s.name }

// Close releases all three uinput devices. Called from cmd/keyd's
// deferred cleanup (spec.md §11's atexit(cleanup) supplement).
func (s *Sink) Close() error {
	err1 := s.kbd.Close()
	err2 := s.mouse.Close()
	err3 := s.pad.Close()
	if err1 != nil {
		return err1
	}
	if err2 != nil {
		return err2
	}
	return err3
}
