package dispatcher

import "github.com/keyd-project/keyd/internal/interpreter"

// ConfigEntry is one (config, Interpreter) pair in the Configuration
// Registry (spec.md §3). Score reports the match rank {0,1,2} spec.md
// §4.1 defines for a packed vendor/product id.
type ConfigEntry struct {
	Path        string
	Score       func(id uint32) int
	Interpreter interpreter.Interpreter
}

// ConfigLoader rebuilds the Configuration Registry, per spec.md §4.5
// step 2 / §6.3. Production wires this to a directory scan + DSL
// parser; tests supply a fake that returns a fixed registry.
type ConfigLoader interface {
	Load(emit interpreter.Emitter, onLayer interpreter.LayerObserver) ([]*ConfigEntry, error)
}

// lookupMatch implements the linear scan of spec.md §4.1: the
// highest-rank entry wins; ties resolve to the first-scanned entry.
// Returns (nil, 0) if no entry scores above 0.
func lookupMatch(entries []*ConfigEntry, id uint32) (*ConfigEntry, int) {
	var best *ConfigEntry
	rank := 0

	for _, e := range entries {
		r := e.Score(id)
		if r > rank {
			rank = r
			best = e
		}
	}

	return best, rank
}
