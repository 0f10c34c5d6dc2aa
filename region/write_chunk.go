package region

import (
	"encoding/binary"
	"fmt"

	"github.com/dot5enko/region-fixer/bits"
	"github.com/dot5enko/region-fixer/schema"
)

// WriteChunk stores an already zlib compressed payload in slot (x,z).
//
// The old sectors are rewritten in place when the size in sectors didn't change,
// otherwise the first free run that fits is used, otherwise the file grows.
//
// Payload sectors are written before the location and timestamp entries, so a crash in
// between has two outcomes. When the chunk moved, the header still points at the intact
// old blob and the new sectors stay unreferenced until a later write or Compact.
// When it was rewritten in place, the old blob is already overwritten and the header
// keeps the old location and timestamp over the new payload.
func (r *Region) WriteChunk(x, z int, data []byte) error {

	if schema.OutOfBounds(x, z) {
		return fmt.Errorf("%w: [%d,%d]", ErrOutOfBounds, x, z)
	}

	sectorsNeeded := schema.SectorsNeeded(len(data))

	// maximum chunk size is 1MB
	if sectorsNeeded > schema.MaxSectorCount {
		return fmt.Errorf("%w: chunk [%d,%d] of %d bytes needs %d sectors", ErrChunkTooLarge, x, z, len(data), sectorsNeeded)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	idx := schema.SlotIndex(x, z)
	current := r.header.Locations[idx]
	allocated := !current.IsEmpty() && current.WithinSectors(r.sectorUsed.Len())

	var sectorNumber int

	if allocated && int(current.SectorCount) == sectorsNeeded {
		// we can simply overwrite the old sectors
		r.logger.Debug("region save", "mode", "rewrite", "path", r.file.Path(), "x", x, "z", z, "bytes", len(data))
		sectorNumber = int(current.StartSector)
	} else {
		// mark the sectors previously used for this chunk as free
		if allocated {
			r.sectorUsed.ClearRange(int(current.StartSector), int(current.SectorCount))
		}

		runStart, found := r.sectorUsed.FindFreeRun(sectorsNeeded)
		if found {
			r.logger.Debug("region save", "mode", "reuse", "path", r.file.Path(), "x", x, "z", z, "bytes", len(data))
			sectorNumber = runStart
			r.sectorUsed.SetRange(runStart, sectorsNeeded)
		} else {
			// no free space large enough found, we need to grow the file
			r.logger.Debug("region save", "mode", "grow", "path", r.file.Path(), "x", x, "z", z, "bytes", len(data))
			sectorNumber = r.sectorUsed.Len()
			if sectorNumber+sectorsNeeded-1 > schema.MaxStartSector {
				return fmt.Errorf("%w: chunk [%d,%d]", ErrRegionFull, x, z)
			}

			growErr := r.file.FillZeroes(int64(sectorNumber)*schema.SectorBytes, sectorsNeeded*schema.SectorBytes)
			if growErr != nil {
				return fmt.Errorf("unable to grow region by %d sectors: %s", sectorsNeeded, growErr.Error())
			}

			r.sectorUsed.Grow(sectorsNeeded)
			r.sizeDelta += int64(sectorsNeeded) * schema.SectorBytes
		}
	}

	blobErr := r.writeBlob(sectorNumber, data)
	if blobErr != nil {
		return blobErr
	}

	locationErr := r.setLocation(idx, schema.Location{StartSector: uint32(sectorNumber), SectorCount: uint8(sectorsNeeded)})
	if locationErr != nil {
		return locationErr
	}

	return r.setTimestamp(idx, int32(r.now().Unix()))
}

// writeBlob writes length, compression type and payload at the given sector.
func (r *Region) writeBlob(sectorNumber int, data []byte) error {

	bw := bits.NewEncodeBuffer(make([]byte, schema.ChunkHeaderSize+len(data)), binary.BigEndian)

	bw.PutUint32(uint32(len(data) + 1))

	typeErr := bw.WriteByte(uint8(schema.DeflateCompression))
	if typeErr != nil {
		return fmt.Errorf("unable to encode chunk compression type: %s", typeErr.Error())
	}

	_, dataErr := bw.Write(data)
	if dataErr != nil {
		return fmt.Errorf("unable to encode chunk payload: %s", dataErr.Error())
	}

	writeErr := r.file.WriteAt(bw.Bytes(), int64(sectorNumber)*schema.SectorBytes)
	if writeErr != nil {
		return fmt.Errorf("unable to write chunk blob at sector %d: %s", sectorNumber, writeErr.Error())
	}

	return nil
}
