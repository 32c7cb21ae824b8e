// Package interpreter defines the opaque per-configuration behavioral
// contract spec.md §3/§6.2 calls "the Interpreter" and provides one
// concrete implementation driven by a small keymap DSL. The dispatcher
// never reaches into an Interpreter's internals; it only calls the
// three methods below and supplies the two callbacks at construction.
package interpreter

// Emitter is the sink-facing callback an Interpreter uses to produce
// key events (spec.md §4.4's emit(code, state)).
type Emitter func(code uint8, pressed bool)

// LayerObserver is the callback an Interpreter uses to announce layer
// activation/deactivation (spec.md §4.6).
type LayerObserver func(name string, active bool)

// Tick is the reserved (code=0, pressed=false) event used to let an
// Interpreter service its own expired timers (spec.md §3).
const (
	TickCode            = 0
	TickPressed         = false
	ExternalMouseButton = 248 // KEYD_EXTERNAL_MOUSE_BUTTON, spec.md §4.2
)

// Interpreter is the opaque per-configuration behavior spec.md treats
// as a black box: layer stack, tap/hold timers, oneshot modifiers and
// macro expansion live behind this interface. ProcessKey and Tick return
// the number of milliseconds until this Interpreter next wants a Tick,
// or 0 if no timer is pending (spec.md §6.2).
type Interpreter interface {
	// ProcessKey delivers a physical key transition.
	ProcessKey(code uint8, pressed bool) (nextTimeoutMs int)

	// Tick services whatever timer is currently armed.
	Tick() (nextTimeoutMs int)

	// Bind accepts a textual binding expression at runtime (the
	// control channel's BIND request, spec.md §4.6). Returns an error
	// describing why the expression was rejected.
	Bind(expr string) error
}
