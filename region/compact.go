package region

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"fmt"

	"github.com/dot5enko/region-fixer/bits"
	"github.com/dot5enko/region-fixer/schema"
	"github.com/dot5enko/region-fixer/util"
	"github.com/fatih/color"
	"golang.org/x/exp/slices"
)

type CompactStats struct {
	BytesBefore int64
	BytesAfter  int64

	ChunksMoved int
	// chunks whose location pointed outside of the file
	ChunksDropped int
}

type chunkPlacement struct {
	loc  schema.Location
	x, z int
}

// Compact packs all chunks right after the header in the order they are stored,
// then truncates the file behind the last one.
func (r *Region) Compact() (stats CompactStats, topErr error) {

	r.lock.Lock()
	defer r.lock.Unlock()

	stats.BytesBefore, topErr = r.file.Size()
	if topErr != nil {
		return stats, topErr
	}

	nSectors := r.sectorUsed.Len()
	placements := make([]chunkPlacement, 0, schema.RegionSlots)

	for x := 0; x < schema.RegionWidth; x++ {
		for z := 0; z < schema.RegionWidth; z++ {
			idx := schema.SlotIndex(x, z)
			loc := r.header.Locations[idx]

			if loc.IsEmpty() {
				continue
			}

			if !loc.WithinSectors(nSectors) {
				// whatever it points to can't survive the truncation
				r.logger.Warn("dropping chunk located outside of region", "path", r.file.Path(), "x", x, "z", z, "location", loc.String())

				if dropErr := r.setLocation(idx, schema.Location{}); dropErr != nil {
					return stats, dropErr
				}
				if dropErr := r.setTimestamp(idx, 0); dropErr != nil {
					return stats, dropErr
				}

				stats.ChunksDropped++
				continue
			}

			placements = append(placements, chunkPlacement{loc: loc, x: x, z: z})
		}
	}

	slices.SortStableFunc(placements, func(a, b chunkPlacement) int {
		return cmp.Compare(a.loc.StartSector, b.loc.StartSector)
	})

	var buffer []byte
	if r.buffers != nil && r.buffers.BufSize() >= schema.MaxSectorCount*schema.SectorBytes {
		pooled, bufferIdx := r.buffers.Get()
		defer r.buffers.Return(bufferIdx)
		buffer = pooled
	} else {
		// a pool of smaller buffers can't hold the largest chunk
		buffer = make([]byte, schema.MaxSectorCount*schema.SectorBytes)
	}

	cursor := schema.HeaderSectors

	for _, p := range placements {

		pos := int(p.loc.StartSector)
		span, blobSize, spanErr := r.blobSpan(p.loc)
		if spanErr != nil {
			return stats, spanErr
		}

		if pos > cursor {
			stats.ChunksMoved++

			blob := buffer[:blobSize]
			readErr := r.file.ReadAt(blob, p.loc.Offset())
			if readErr != nil {
				return stats, fmt.Errorf("unable to read chunk [%d,%d] for relocation: %s", p.x, p.z, readErr.Error())
			}

			writeErr := r.file.WriteAt(blob, int64(cursor)*schema.SectorBytes)
			if writeErr != nil {
				return stats, fmt.Errorf("unable to relocate chunk [%d,%d] to sector %d: %s", p.x, p.z, cursor, writeErr.Error())
			}

			locationErr := r.setLocation(schema.SlotIndex(p.x, p.z), schema.Location{StartSector: uint32(cursor), SectorCount: uint8(span)})
			if locationErr != nil {
				return stats, locationErr
			}
		} else if pos < cursor {
			// sorted by start sector this means two chunks overlap on disk.
			// TODO: decide what to keep once a region with overlapping chunks turns up, layout is left as is for now
			r.logger.Warn("chunk starts before compaction cursor", "path", r.file.Path(), "x", p.x, "z", p.z, "location", p.loc.String(), "cursor", cursor)
		} else if span != int(p.loc.SectorCount) {
			// in place, but over allocated
			locationErr := r.setLocation(schema.SlotIndex(p.x, p.z), schema.Location{StartSector: uint32(cursor), SectorCount: uint8(span)})
			if locationErr != nil {
				return stats, locationErr
			}
		}

		cursor += span
	}

	newSize := int64(cursor) * schema.SectorBytes

	if stats.BytesBefore > newSize {
		color.Yellow("trimming region %s from %s to %s (-%s%%), moved %d chunks",
			r.file.Path(),
			util.ToLogLength(stats.BytesBefore),
			util.ToLogLength(newSize),
			util.ToLogPercent(newSize, stats.BytesBefore),
			stats.ChunksMoved,
		)

		truncateErr := r.file.Truncate(newSize)
		if truncateErr != nil {
			return stats, fmt.Errorf("unable to truncate region to %d bytes: %s", newSize, truncateErr.Error())
		}
	}

	syncErr := r.file.Sync()
	if syncErr != nil {
		return stats, fmt.Errorf("unable to sync region: %s", syncErr.Error())
	}

	r.logger.Info("region compacted", "path", r.file.Path(), "bytes_before", stats.BytesBefore, "bytes_after", newSize, "chunks_moved", stats.ChunksMoved, "chunks_dropped", stats.ChunksDropped)

	indexErr := r.recreateIndexes()
	if indexErr != nil {
		return stats, indexErr
	}

	stats.BytesAfter, topErr = r.file.Size()
	return stats, topErr
}

// blobSpan returns how many sectors the blob at loc really needs and how many bytes to copy.
// A length prefix that doesn't fit the allocation falls back to the allocated sectors.
func (r *Region) blobSpan(loc schema.Location) (span int, blobSize int, topErr error) {

	var prefix [4]byte
	topErr = r.file.ReadAt(prefix[:], loc.Offset())
	if topErr != nil {
		return 0, 0, fmt.Errorf("unable to read chunk length at sector %d: %s", loc.StartSector, topErr.Error())
	}

	reader := bits.NewReader(bytes.NewReader(prefix[:]), binary.BigEndian)
	rawLength, _ := reader.ReadI32()
	length := int(rawLength)

	allocated := int(loc.SectorCount)
	if length < 1 || schema.SectorsForLength(length) > allocated {
		return allocated, allocated * schema.SectorBytes, nil
	}

	return schema.SectorsForLength(length), length + 4, nil
}
