package configdir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/keyd-project/keyd/internal/device"
	"github.com/keyd-project/keyd/internal/interpreter"
)

// MatchRule is the parsed "id" line of a .conf file: either a wildcard
// (matches any device, rank 1) or an explicit vendor:product (rank 2 on
// exact match), per spec.md §4.1.
type MatchRule struct {
	Wildcard  bool
	VendorID  uint16
	ProductID uint16
}

// Score implements the ranking spec.md §4.1 describes: 0 (no match), 1
// (keyboard-capable wildcard match), or 2 (explicit device-id match).
func (m MatchRule) Score(id uint32) int {
	if m.Wildcard {
		return 1
	}
	if uint32(m.VendorID)<<16|uint32(m.ProductID) == id {
		return 2
	}
	return 0
}

// Config is a fully parsed .conf file: its match rule and layer set,
// ready to be handed to NewInterpreter.
type Config struct {
	Path  string
	Match MatchRule
	Layers []*interpreter.Layer
}

// Parse parses one Source into a Config.
func Parse(src Source) (*Config, error) {
	cfg := &Config{Path: src.Path}

	var current *interpreter.Layer
	layerIdx := map[string]*interpreter.Layer{}

	lines := strings.Split(string(src.Data), "\n")
	for lineNo, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.TrimSpace(line[1 : len(line)-1])
			if name == "" {
				return nil, fmt.Errorf("%s:%d: empty layer name", src.Path, lineNo+1)
			}
			l := &interpreter.Layer{Name: name, Bindings: map[uint8]interpreter.Binding{}}
			cfg.Layers = append(cfg.Layers, l)
			layerIdx[name] = l
			current = l
			continue
		}

		if strings.HasPrefix(line, "id ") || line == "id *" {
			rule, err := parseMatchLine(line)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", src.Path, lineNo+1, err)
			}
			cfg.Match = rule
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("%s:%d: binding outside of a [layer] section", src.Path, lineNo+1)
		}

		if err := parseBindingLine(current, line); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", src.Path, lineNo+1, err)
		}
	}

	if len(cfg.Layers) == 0 {
		return nil, fmt.Errorf("%s: no layers defined", src.Path)
	}

	return cfg, nil
}

func parseMatchLine(line string) (MatchRule, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "id"))
	if rest == "*" {
		return MatchRule{Wildcard: true}, nil
	}

	vp := strings.SplitN(rest, ":", 2)
	if len(vp) != 2 {
		return MatchRule{}, fmt.Errorf("malformed id line %q", line)
	}
	v, err := strconv.ParseUint(vp[0], 16, 16)
	if err != nil {
		return MatchRule{}, fmt.Errorf("bad vendor id: %w", err)
	}
	p, err := strconv.ParseUint(vp[1], 16, 16)
	if err != nil {
		return MatchRule{}, fmt.Errorf("bad product id: %w", err)
	}
	return MatchRule{VendorID: uint16(v), ProductID: uint16(p)}, nil
}

func parseBindingLine(layer *interpreter.Layer, line string) error {
	key, action, ok := strings.Cut(line, "=")
	if !ok {
		return fmt.Errorf("malformed binding %q", line)
	}
	key = strings.TrimSpace(key)
	action = strings.TrimSpace(action)

	if key == "*" {
		b, err := parseAction(action)
		if err != nil {
			return err
		}
		layer.Wildcard = b
		return nil
	}

	code, ok := lookupCode(key)
	if !ok {
		return fmt.Errorf("unknown key name %q", key)
	}

	b, err := parseAction(action)
	if err != nil {
		return err
	}
	layer.Bindings[code] = b
	return nil
}

func parseAction(action string) (interpreter.Binding, error) {
	kind, rest, ok := strings.Cut(action, ":")
	if !ok {
		return nil, fmt.Errorf("malformed action %q", action)
	}

	switch kind {
	case "tap":
		codes, err := parseCodeList(rest)
		if err != nil {
			return nil, err
		}
		return interpreter.KeyBinding{Codes: codes}, nil
	case "layer":
		return interpreter.LayerBinding{Layer: rest}, nil
	case "togglelayer":
		return interpreter.ToggleLayerBinding{Layer: rest}, nil
	case "oneshot":
		codes, err := parseCodeList(rest)
		if err != nil {
			return nil, err
		}
		if len(codes) != 1 {
			return nil, fmt.Errorf("oneshot takes exactly one key, got %q", rest)
		}
		return interpreter.OneshotBinding{Code: codes[0]}, nil
	case "hold":
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("hold action needs tap:hold, got %q", rest)
		}
		tapCodes, err := parseCodeList(parts[0])
		if err != nil {
			return nil, err
		}
		holdCodes, err := parseCodeList(parts[1])
		if err != nil {
			return nil, err
		}
		return interpreter.TapHoldBinding{
			Tap:  interpreter.KeyBinding{Codes: tapCodes},
			Hold: interpreter.KeyBinding{Codes: holdCodes},
		}, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", kind)
	}
}

func parseCodeList(s string) ([]uint8, error) {
	var codes []uint8
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		code, ok := lookupCode(name)
		if !ok {
			return nil, fmt.Errorf("unknown key name %q", name)
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("empty key list")
	}
	return codes, nil
}

// NewInterpreter builds a Keymap Interpreter from a parsed Config,
// wiring the dispatcher's two callbacks (spec.md §6.2).
func NewInterpreter(cfg *Config, emit interpreter.Emitter, onLayer interpreter.LayerObserver) interpreter.Interpreter {
	return interpreter.NewKeymap(cfg.Layers, emit, onLayer)
}

// RequiredCapability reports which device capability a config's match
// rank-1 binding requires, per spec.md §4.1 ("rank 1 — keyboard-capable
// match; bind only if the device advertises KEYBOARD capability").
func RequiredCapability() device.Capability {
	return device.CapKeyboard
}
