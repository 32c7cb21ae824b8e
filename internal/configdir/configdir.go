// Package configdir implements the configuration directory scan of
// spec.md §6.3. Parsing a config's keymap grammar is a small supplement
// (spec.md §1 puts config-file parsing out of scope; a real grammar is
// its own project) kept deliberately tiny: just enough DSL to exercise
// every dispatcher code path end to end.
package configdir

import (
	"os"
	"path/filepath"
	"sort"
)

// Source is one discovered configuration file.
type Source struct {
	Path string
	Data []byte
}

// Scan walks dir (non-recursively — subdirectories are ignored per
// spec.md §6.3) and returns every regular file ending in ".conf",
// sorted by file name.
func Scan(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	// os.ReadDir already returns entries sorted by filename, which is
	// the deterministic discovery order spec.md §6.3 requires ("ties in
	// matching rank resolve in discovery order").
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var sources []Source
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) != ".conf" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{Path: path, Data: data})
	}
	return sources, nil
}
