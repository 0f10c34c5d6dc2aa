// Package chunktesting builds chunk payloads for tests of the packages that read them.
package chunktesting

import (
	"testing"

	"github.com/dot5enko/region-fixer/chunk"
	"github.com/stretchr/testify/require"
)

// Section returns a section compound whose arrays have the sizes a valid chunk uses.
func Section(y int8) map[string]any {
	return map[string]any{
		"Y":          y,
		"Blocks":     make([]byte, chunk.BlocksLength),
		"Data":       make([]byte, chunk.NibbleLength),
		"BlockLight": make([]byte, chunk.NibbleLength),
		"SkyLight":   make([]byte, chunk.NibbleLength),
	}
}

// Chunk returns a root compound for a chunk stored at world chunk coordinates x, z.
func Chunk(x, z int, lastUpdate int64, sections ...map[string]any) map[string]any {
	if sections == nil {
		sections = []map[string]any{}
	}

	return map[string]any{
		"DataVersion": int32(chunk.DefaultDataVersion),
		"Level": map[string]any{
			"xPos":       int32(x),
			"zPos":       int32(z),
			"LastUpdate": lastUpdate,
			"Sections":   sections,
		},
	}
}

// WithoutPosition removes xPos and zPos from a compound built by Chunk.
func WithoutPosition(root map[string]any) map[string]any {
	level := root["Level"].(map[string]any)
	delete(level, "xPos")
	delete(level, "zPos")
	return root
}

// Compressed encodes v and compresses it the way it is stored in a region.
func Compressed(t testing.TB, v any) []byte {
	t.Helper()

	data, encodeErr := chunk.EncodeCompressed(v)
	require.NoError(t, encodeErr)
	return data
}
