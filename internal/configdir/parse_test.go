package configdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConf = `
id 046d:c52b

[main]
a = tap:b
space = layer:nav
capslock = togglelayer:nav
leftshift = oneshot:leftshift
f = hold:f:leftctrl

[nav]
h = tap:left
j = tap:down
k = tap:up
l = tap:right
`

func TestParseSampleConfig(t *testing.T) {
	cfg, err := Parse(Source{Path: "sample.conf", Data: []byte(sampleConf)})
	require.NoError(t, err)

	assert.False(t, cfg.Match.Wildcard)
	assert.Equal(t, uint16(0x046d), cfg.Match.VendorID)
	assert.Equal(t, uint16(0xc52b), cfg.Match.ProductID)

	require.Len(t, cfg.Layers, 2)
	assert.Equal(t, "main", cfg.Layers[0].Name)
	assert.Equal(t, "nav", cfg.Layers[1].Name)

	assert.Equal(t, uint32(0x046dc52b), uint32(cfg.Match.VendorID)<<16|uint32(cfg.Match.ProductID))
	assert.Equal(t, 2, cfg.Match.Score(uint32(cfg.Match.VendorID)<<16|uint32(cfg.Match.ProductID)))
	assert.Equal(t, 0, cfg.Match.Score(0xffffffff))
}

func TestParseWildcard(t *testing.T) {
	cfg, err := Parse(Source{Path: "w.conf", Data: []byte("id *\n\n[main]\na = tap:b\n")})
	require.NoError(t, err)
	assert.True(t, cfg.Match.Wildcard)
	assert.Equal(t, 1, cfg.Match.Score(0xdeadbeef))
}

func TestParseRejectsUnknownKey(t *testing.T) {
	_, err := Parse(Source{Path: "bad.conf", Data: []byte("id *\n\n[main]\nnotakey = tap:b\n")})
	assert.Error(t, err)
}

func TestParseRejectsBindingOutsideLayer(t *testing.T) {
	_, err := Parse(Source{Path: "bad.conf", Data: []byte("id *\na = tap:b\n")})
	assert.Error(t, err)
}

func TestScanFindsOnlyDotConfFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.conf"), []byte("id *\n\n[main]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignore me"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.conf"), 0o755))

	sources, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, filepath.Join(dir, "a.conf"), sources[0].Path)
}
