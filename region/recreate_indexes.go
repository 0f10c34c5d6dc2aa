package region

import (
	"fmt"

	"github.com/dot5enko/region-fixer/bits"
	"github.com/dot5enko/region-fixer/schema"
)

// recreateIndexes loads the header and rebuilds the sector bitmap from it.
// A missing header is written, a file that doesn't end on a sector boundary is padded with zeroes.
func (r *Region) recreateIndexes() error {

	size, sizeErr := r.file.Size()
	if sizeErr != nil {
		return sizeErr
	}

	if size < schema.SectorBytes {
		// we need to write the location and timestamp tables
		writeErr := r.headerIO.WriteEmpty(r.file)
		if writeErr != nil {
			return fmt.Errorf("unable to write empty header: %s", writeErr.Error())
		}

		r.sizeDelta += schema.HeaderBytes - size
		size = schema.HeaderBytes
	}

	aligned := (size + schema.SectorBytes - 1) / schema.SectorBytes * schema.SectorBytes
	if aligned < schema.HeaderBytes {
		aligned = schema.HeaderBytes
	}

	if aligned != size {
		// the file size is not a multiple of 4KB, grow it
		padErr := r.file.FillZeroes(size, int(aligned-size))
		if padErr != nil {
			return fmt.Errorf("unable to pad region to %d bytes: %s", aligned, padErr.Error())
		}

		r.sizeDelta += aligned - size
		size = aligned
	}

	header, headerErr := r.headerIO.Read(r.file)
	if headerErr != nil {
		return headerErr
	}

	nSectors := int(size / schema.SectorBytes)
	used := bits.NewSectorBitmap(nSectors)
	used.SetRange(0, schema.HeaderSectors)

	for idx, loc := range header.Locations {
		if loc.IsEmpty() {
			continue
		}

		if !loc.WithinSectors(nSectors) {
			x, z := schema.SlotXZ(idx)
			r.logger.Debug("location outside of region file ignored", "path", r.file.Path(), "x", x, "z", z, "location", loc.String(), "sectors", nSectors)
			continue
		}

		used.SetRange(int(loc.StartSector), int(loc.SectorCount))
	}

	r.header = header
	r.sectorUsed = used

	return nil
}
