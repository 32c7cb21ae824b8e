package interpreter

// Keymap is the concrete Interpreter grounded on the layer/tap-hold/
// toggle-layer/oneshot behavior sketched by
// other_examples/a3894e84_gonzaru-mouseless (layers, tap-hold, toggle
// layer, wildcard) and the sequence-timeout pattern of
// other_examples/068f06c4_dshills-keystorm (a duration returned to the
// caller rather than an internally armed timer, since here the
// dispatcher — not the Interpreter — owns the single wakeup clock).
type Keymap struct {
	layers      []*Layer
	layerByName map[string]*Layer

	// layerStack holds momentary layers pushed by a held LayerBinding,
	// base layer excluded. Top of stack is the active layer unless a
	// layer is toggled, which takes precedence.
	layerStack []string

	// toggled is the name of a layer activated by ToggleLayerBinding,
	// or "" if none is toggled.
	toggled string

	oneshot *oneshotState
	pending *pendingHold

	emit    Emitter
	onLayer LayerObserver

	holdTimeoutMs int
}

type oneshotState struct {
	code   uint8
	active bool
}

type pendingHold struct {
	code       uint8
	tap        Binding
	hold       Binding
	resolved   bool
	holdActive bool
}

// Layer is a named keymap overlay.
type Layer struct {
	Name     string
	Bindings map[uint8]Binding
	Wildcard Binding // used when no explicit binding exists for a key
}

// Binding is the action attached to a key within a layer.
type Binding interface {
	isBinding()
}

type KeyBinding struct{ Codes []uint8 }
type LayerBinding struct{ Layer string }
type ToggleLayerBinding struct{ Layer string }
type OneshotBinding struct{ Code uint8 }
type TapHoldBinding struct {
	Tap  Binding
	Hold Binding
}

func (KeyBinding) isBinding()         {}
func (LayerBinding) isBinding()       {}
func (ToggleLayerBinding) isBinding() {}
func (OneshotBinding) isBinding()     {}
func (TapHoldBinding) isBinding()     {}

const defaultHoldTimeoutMs = 200

// NewKeymap constructs an Interpreter over a parsed set of layers. The
// first layer is the base layer. emit/onLayer are the two callbacks the
// dispatcher supplies per spec.md §6.2.
func NewKeymap(layers []*Layer, emit Emitter, onLayer LayerObserver) *Keymap {
	k := &Keymap{
		layers:        layers,
		layerByName:   make(map[string]*Layer, len(layers)),
		emit:          emit,
		onLayer:       onLayer,
		holdTimeoutMs: defaultHoldTimeoutMs,
	}
	for _, l := range layers {
		k.layerByName[l.Name] = l
	}
	return k
}

func (k *Keymap) baseLayer() *Layer {
	if len(k.layers) == 0 {
		return nil
	}
	return k.layers[0]
}

func (k *Keymap) activeLayer() *Layer {
	if k.toggled != "" {
		if l, ok := k.layerByName[k.toggled]; ok {
			return l
		}
	}
	if n := len(k.layerStack); n > 0 {
		if l, ok := k.layerByName[k.layerStack[n-1]]; ok {
			return l
		}
	}
	return k.baseLayer()
}

func (k *Keymap) setLayer(name string, active bool) {
	if k.onLayer != nil {
		k.onLayer(name, active)
	}
}

// ProcessKey implements Interpreter.
func (k *Keymap) ProcessKey(code uint8, pressed bool) int {
	if code == ExternalMouseButton {
		k.clearOneshot()
		k.resolvePending(true)
		return 0
	}

	// A key event other than the one currently pending interrupts the
	// tap/hold decision in favor of "hold" (standard interrupt
	// semantics), then is processed normally.
	if k.pending != nil && k.pending.code != code {
		k.resolvePending(true)
	}

	layer := k.activeLayer()
	var b Binding
	if layer != nil {
		b = layer.Bindings[code]
		if b == nil {
			b = layer.Wildcard
		}
	}

	// A key with no binding in the active layer falls through to the
	// layers beneath it, down to the base layer, so the key that
	// activated a layer still reaches its own binding while that layer
	// is active.
	for i := len(k.layerStack) - 1; b == nil && i >= -1; i-- {
		lower := k.baseLayer()
		if i >= 0 {
			lower = k.layerByName[k.layerStack[i]]
		}
		if lower != nil {
			b = lower.Bindings[code]
		}
	}

	if b == nil {
		return k.finishKey(code, pressed)
	}

	return k.dispatchBinding(code, pressed, b)
}

// Tick implements Interpreter: the dispatcher delivers this when the
// timeout it was last given elapses with no intervening key event.
func (k *Keymap) Tick() int {
	if k.pending != nil {
		k.resolvePending(true)
	}
	return 0
}

func (k *Keymap) dispatchBinding(code uint8, pressed bool, b Binding) int {
	switch t := b.(type) {
	case TapHoldBinding:
		return k.handleTapHold(code, pressed, t)
	case LayerBinding:
		if pressed {
			k.layerStack = append(k.layerStack, t.Layer)
			k.setLayer(t.Layer, true)
		} else {
			k.popLayer(t.Layer)
		}
		return 0
	case ToggleLayerBinding:
		if pressed {
			if k.toggled == t.Layer {
				k.setLayer(k.toggled, false)
				k.toggled = ""
			} else {
				if k.toggled != "" {
					k.setLayer(k.toggled, false)
				}
				k.toggled = t.Layer
				k.setLayer(t.Layer, true)
			}
		}
		return 0
	case OneshotBinding:
		if pressed {
			k.oneshot = &oneshotState{code: t.Code, active: true}
			k.emitKey(t.Code, true)
		}
		return 0
	case KeyBinding:
		return k.emitChord(t.Codes, pressed)
	default:
		return k.finishKey(code, pressed)
	}
}

func (k *Keymap) popLayer(name string) {
	for i := len(k.layerStack) - 1; i >= 0; i-- {
		if k.layerStack[i] == name {
			k.layerStack = append(k.layerStack[:i], k.layerStack[i+1:]...)
			k.setLayer(name, false)
			return
		}
	}
}

func (k *Keymap) handleTapHold(code uint8, pressed bool, t TapHoldBinding) int {
	if pressed {
		k.pending = &pendingHold{code: code, tap: t.Tap, hold: t.Hold}
		return k.holdTimeoutMs
	}

	if k.pending != nil && k.pending.code == code {
		if k.pending.holdActive {
			k.dispatchBinding(code, false, k.pending.hold)
		} else {
			k.dispatchBinding(code, true, k.pending.tap)
			k.dispatchBinding(code, false, k.pending.tap)
		}
		k.pending = nil
		return 0
	}

	// Release of a key whose hold already resolved and was cleared.
	return 0
}

// resolvePending forces the current pending tap/hold decision, as
// "hold" when forceHold is true (interrupt or tick), emitting the hold
// binding's press half; the release half fires when the originating
// key itself is released.
func (k *Keymap) resolvePending(forceHold bool) {
	if k.pending == nil || k.pending.holdActive {
		return
	}
	if forceHold {
		k.pending.holdActive = true
		k.dispatchBinding(k.pending.code, true, k.pending.hold)
	}
}

func (k *Keymap) clearOneshot() {
	if k.oneshot != nil && k.oneshot.active {
		k.emitKey(k.oneshot.code, false)
		k.oneshot = nil
	}
}

func (k *Keymap) finishKey(code uint8, pressed bool) int {
	k.emitKey(code, pressed)
	if !pressed {
		k.clearOneshot()
	}
	return 0
}

func (k *Keymap) emitChord(codes []uint8, pressed bool) int {
	for _, c := range codes {
		k.emitKey(c, pressed)
	}
	if !pressed {
		k.clearOneshot()
	}
	return 0
}

func (k *Keymap) emitKey(code uint8, pressed bool) {
	if k.emit != nil {
		k.emit(code, pressed)
	}
}

// Bind implements Interpreter: a minimal runtime re-binding facility
// for the control channel's BIND request (spec.md §4.6). Syntax:
// "<layer>.<code>=tap:<code>[,<code>...]" rebinds a key in an existing
// layer to a (possibly multi-key) chord. Any other expression, or one
// naming an unknown layer, is rejected.
func (k *Keymap) Bind(expr string) error {
	return bindExpr(k, expr)
}
