package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emission struct {
	code    uint8
	pressed bool
}

func newTestKeymap(t *testing.T, layers []*Layer) (*Keymap, *[]emission, *[]string) {
	t.Helper()
	var emitted []emission
	var layerEvents []string

	k := NewKeymap(layers,
		func(code uint8, pressed bool) {
			emitted = append(emitted, emission{code, pressed})
		},
		func(name string, active bool) {
			sign := "-"
			if active {
				sign = "+"
			}
			layerEvents = append(layerEvents, sign+name)
		},
	)
	return k, &emitted, &layerEvents
}

func TestKeymapPlainRemap(t *testing.T) {
	base := &Layer{Name: "base", Bindings: map[uint8]Binding{
		30: KeyBinding{Codes: []uint8{31}},
	}}
	k, emitted, _ := newTestKeymap(t, []*Layer{base})

	k.ProcessKey(30, true)
	k.ProcessKey(30, false)

	assert.Equal(t, []emission{{31, true}, {31, false}}, *emitted)
}

func TestKeymapTapHold_Tap(t *testing.T) {
	base := &Layer{Name: "base", Bindings: map[uint8]Binding{
		30: TapHoldBinding{
			Tap:  KeyBinding{Codes: []uint8{30}},
			Hold: KeyBinding{Codes: []uint8{29}}, // leftctrl
		},
	}}
	k, emitted, _ := newTestKeymap(t, []*Layer{base})

	timeout := k.ProcessKey(30, true)
	require.Greater(t, timeout, 0)
	assert.Empty(t, *emitted, "nothing should emit until tap/hold resolves")

	// Released before the timer fired: resolves to tap.
	k.ProcessKey(30, false)
	assert.Equal(t, []emission{{30, true}, {30, false}}, *emitted)
}

func TestKeymapTapHold_Hold(t *testing.T) {
	base := &Layer{Name: "base", Bindings: map[uint8]Binding{
		30: TapHoldBinding{
			Tap:  KeyBinding{Codes: []uint8{30}},
			Hold: KeyBinding{Codes: []uint8{29}},
		},
	}}
	k, emitted, _ := newTestKeymap(t, []*Layer{base})

	timeout := k.ProcessKey(30, true)
	require.Greater(t, timeout, 0)

	// Timer expires before release: resolves to hold.
	next := k.Tick()
	assert.Equal(t, 0, next)
	assert.Equal(t, []emission{{29, true}}, *emitted)

	k.ProcessKey(30, false)
	assert.Equal(t, []emission{{29, true}, {29, false}}, *emitted)
}

func TestKeymapTapHold_InterruptedByOtherKey(t *testing.T) {
	base := &Layer{Name: "base", Bindings: map[uint8]Binding{
		30: TapHoldBinding{
			Tap:  KeyBinding{Codes: []uint8{30}},
			Hold: KeyBinding{Codes: []uint8{29}},
		},
	}}
	k, emitted, _ := newTestKeymap(t, []*Layer{base})

	k.ProcessKey(30, true)
	k.ProcessKey(31, true) // interrupts: resolves 30 to hold, then processes 31
	assert.Equal(t, []emission{{29, true}, {31, true}}, *emitted)
}

func TestKeymapMomentaryLayer(t *testing.T) {
	nav := &Layer{Name: "nav", Bindings: map[uint8]Binding{
		37: KeyBinding{Codes: []uint8{103}}, // k -> up arrow
	}}
	base := &Layer{Name: "base", Bindings: map[uint8]Binding{
		57: LayerBinding{Layer: "nav"}, // space -> hold for nav layer
	}}
	k, emitted, layerEvents := newTestKeymap(t, []*Layer{base, nav})

	k.ProcessKey(57, true)
	assert.Equal(t, []string{"+nav"}, *layerEvents)

	k.ProcessKey(37, true)
	k.ProcessKey(37, false)
	assert.Equal(t, []emission{{103, true}, {103, false}}, *emitted)

	k.ProcessKey(57, false)
	assert.Equal(t, []string{"+nav", "-nav"}, *layerEvents)
}

func TestKeymapToggleLayer(t *testing.T) {
	nav := &Layer{Name: "nav", Bindings: map[uint8]Binding{}}
	base := &Layer{Name: "base", Bindings: map[uint8]Binding{
		58: ToggleLayerBinding{Layer: "nav"},
	}}
	k, _, layerEvents := newTestKeymap(t, []*Layer{base, nav})

	k.ProcessKey(58, true)
	assert.Equal(t, []string{"+nav"}, *layerEvents)
	assert.Equal(t, nav, k.activeLayer())

	k.ProcessKey(58, true)
	assert.Equal(t, []string{"+nav", "-nav"}, *layerEvents)
	assert.Equal(t, base, k.activeLayer())
}

func TestKeymapOneshot(t *testing.T) {
	base := &Layer{Name: "base", Bindings: map[uint8]Binding{
		42: OneshotBinding{Code: 42}, // leftshift oneshot
	}}
	k, emitted, _ := newTestKeymap(t, []*Layer{base})

	k.ProcessKey(42, true)
	assert.Equal(t, []emission{{42, true}}, *emitted)

	k.ProcessKey(30, true)
	k.ProcessKey(30, false)
	assert.Equal(t, []emission{{42, true}, {30, true}, {30, false}, {42, false}}, *emitted)
}

func TestKeymapExternalMouseButtonClearsOneshot(t *testing.T) {
	base := &Layer{Name: "base", Bindings: map[uint8]Binding{
		42: OneshotBinding{Code: 42},
	}}
	k, emitted, _ := newTestKeymap(t, []*Layer{base})

	k.ProcessKey(42, true)
	k.ProcessKey(ExternalMouseButton, true)
	k.ProcessKey(ExternalMouseButton, false)

	assert.Equal(t, []emission{{42, true}, {42, false}}, *emitted)
}

func TestBindRuntimeRemap(t *testing.T) {
	base := &Layer{Name: "base", Bindings: map[uint8]Binding{}}
	k, emitted, _ := newTestKeymap(t, []*Layer{base})

	require.NoError(t, k.Bind("base.30=tap:31,42"))
	k.ProcessKey(30, true)
	k.ProcessKey(30, false)
	assert.Equal(t, []emission{{31, true}, {42, true}, {31, false}, {42, false}}, *emitted)

	err := k.Bind("base.30=hold:31")
	assert.Error(t, err)

	err = k.Bind("nosuchlayer.30=tap:31")
	assert.Error(t, err)
}
