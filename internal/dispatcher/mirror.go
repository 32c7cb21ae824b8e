package dispatcher

// mirror is the Sink Mirror of spec.md §3/§4.4: a 256-entry bitmap of
// which keycodes the dispatcher believes are currently held on the
// virtual sink. It is mutated only by Dispatcher.emit.
type mirror struct {
	held [256]bool
}

func (m *mirror) set(code uint8, state bool) {
	m.held[code] = state
}

func (m *mirror) get(code uint8) bool {
	return m.held[code]
}

// heldCodes returns, in ascending order, every keycode currently marked
// held. Dispatcher.HeldKeys exposes it to tests verifying drain
// correctness.
func (m *mirror) heldCodes() []uint8 {
	var codes []uint8
	for i := 0; i < len(m.held); i++ {
		if m.held[i] {
			codes = append(codes, uint8(i))
		}
	}
	return codes
}
