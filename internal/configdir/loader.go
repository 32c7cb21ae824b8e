package configdir

import (
	"fmt"

	"github.com/keyd-project/keyd/internal/dispatcher"
	"github.com/keyd-project/keyd/internal/interpreter"
)

// Loader implements dispatcher.ConfigLoader over a single directory of
// .conf files (spec.md §4.5 step 2, §6.3). It is the production
// collaborator cmd/keyd wires in place of the fakeLoader the
// dispatcher's own tests use.
type Loader struct {
	Dir string
}

// NewLoader builds a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Load implements dispatcher.ConfigLoader: scan the directory, parse
// every .conf file, and build one ConfigEntry per file. Any parse
// failure aborts the whole reload (spec.md §7: "no partial registries")
// rather than skipping the offending file.
func (l *Loader) Load(emit interpreter.Emitter, onLayer interpreter.LayerObserver) ([]*dispatcher.ConfigEntry, error) {
	sources, err := Scan(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("configdir: scan %s: %w", l.Dir, err)
	}

	entries := make([]*dispatcher.ConfigEntry, 0, len(sources))
	for _, src := range sources {
		cfg, err := Parse(src)
		if err != nil {
			return nil, fmt.Errorf("configdir: %w", err)
		}

		entries = append(entries, &dispatcher.ConfigEntry{
			Path:        cfg.Path,
			Score:       cfg.Match.Score,
			Interpreter: NewInterpreter(cfg, emit, onLayer),
		})
	}
	return entries, nil
}
