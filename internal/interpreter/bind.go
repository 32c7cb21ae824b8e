package interpreter

import (
	"fmt"
	"strconv"
	"strings"
)

// bindExpr parses and applies a runtime BIND expression of the form
// "<layer>.<code>=tap:<code>[,<code>...]". It is deliberately tiny:
// spec.md §4.6 only requires that *some* Interpreters accept an
// expression and the rest reject it, and that the dispatcher surface
// whichever error string came from the last rejection.
func bindExpr(k *Keymap, expr string) error {
	lhs, rhs, ok := strings.Cut(expr, "=")
	if !ok {
		return fmt.Errorf("bind: missing '=' in %q", expr)
	}

	layerName, codeStr, ok := strings.Cut(lhs, ".")
	if !ok {
		return fmt.Errorf("bind: missing '.' in %q", lhs)
	}

	layer, ok := k.layerByName[layerName]
	if !ok {
		return fmt.Errorf("bind: unknown layer %q", layerName)
	}

	code, err := parseCode(codeStr)
	if err != nil {
		return fmt.Errorf("bind: %w", err)
	}

	action, codes, ok := strings.Cut(rhs, ":")
	if !ok || action != "tap" {
		return fmt.Errorf("bind: unsupported action in %q", rhs)
	}

	var chord []uint8
	for _, part := range strings.Split(codes, ",") {
		c, err := parseCode(part)
		if err != nil {
			return fmt.Errorf("bind: %w", err)
		}
		chord = append(chord, c)
	}
	if len(chord) == 0 {
		return fmt.Errorf("bind: empty chord in %q", rhs)
	}

	layer.Bindings[code] = KeyBinding{Codes: chord}
	return nil
}

func parseCode(s string) (uint8, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid key code %q", s)
	}
	if n < 0 || n > 255 {
		return 0, fmt.Errorf("key code %d out of range", n)
	}
	return uint8(n), nil
}
