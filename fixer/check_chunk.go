package fixer

import (
	"errors"
	"log/slog"

	"github.com/davecgh/go-spew/spew"
	"github.com/dot5enko/region-fixer/chunk"
	"github.com/dot5enko/region-fixer/region"
	"github.com/dot5enko/region-fixer/schema"
)

// how many leading payload bytes are dumped for an unreadable chunk
const dumpPrefixBytes = 64

// checkChunk reads, decodes and validates the chunk in slot x, z.
// The decoded chunk is returned whenever decoding succeeded, even if a check failed.
func (f *Fixer) checkChunk(r *region.Region, coords schema.RegionCoords, x, z int) (state ChunkState, reason Reason, c *chunk.Chunk, topErr error) {

	stream, readErr := r.ReadChunk(x, z)
	if readErr != nil {
		f.dumpRaw(r, x, z)
		return DecodeFailed, ReasonRead, nil, readErr
	}
	defer stream.Close()

	c, topErr = chunk.Decode(stream)
	if topErr != nil {
		f.dumpRaw(r, x, z)
		return DecodeFailed, ReasonDecode, nil, topErr
	}

	worldX, worldZ := coords.ChunkWorldPos(x, z)

	positionErr := chunk.CheckPosition(c, worldX, worldZ)
	if positionErr != nil {
		return Invalid, ReasonPosition, c, positionErr
	}

	sectionsErr := chunk.CheckSections(c)
	if sectionsErr != nil {
		return Invalid, ReasonSections, c, sectionsErr
	}

	return Valid, NoReason, c, nil
}

func (f *Fixer) dumpRaw(r *region.Region, x, z int) {
	if !f.cfg.Verbose {
		return
	}

	typ, raw, rawErr := r.ReadRawChunk(x, z)
	if rawErr != nil {
		// nothing past the header can be shown
		if !errors.Is(rawErr, region.ErrNotFound) {
			f.logger.Debug("raw chunk unavailable", "path", r.Path(), "x", x, "z", z, "error", rawErr.Error())
		}
		return
	}

	f.logger.Debug("unreadable chunk payload", slog.String("path", r.Path()), slog.Int("x", x), slog.Int("z", z), slog.String("compression", typ.String()), slog.Int("bytes", len(raw)))
	spew.Dump("chunk payload prefix", raw[:min(dumpPrefixBytes, len(raw))])
}
