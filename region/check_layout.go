package region

import (
	"cmp"
	"fmt"

	"github.com/dot5enko/region-fixer/schema"
	"golang.org/x/exp/slices"
)

// CheckLayout verifies that every allocated chunk lies inside the file after the header
// and that no two chunks share a sector.
func (r *Region) CheckLayout() error {

	r.lock.Lock()
	defer r.lock.Unlock()

	nSectors := r.sectorUsed.Len()
	placements := make([]chunkPlacement, 0, schema.RegionSlots)

	for idx, loc := range r.header.Locations {
		if loc.IsEmpty() {
			continue
		}

		x, z := schema.SlotXZ(idx)

		if !loc.WithinSectors(nSectors) {
			return fmt.Errorf("%w: chunk [%d,%d] at %s, region has %d sectors", ErrInvalidSectorRange, x, z, loc.String(), nSectors)
		}

		placements = append(placements, chunkPlacement{loc: loc, x: x, z: z})
	}

	slices.SortStableFunc(placements, func(a, b chunkPlacement) int {
		return cmp.Compare(a.loc.StartSector, b.loc.StartSector)
	})

	// sorted by start, a chunk overlaps an earlier one only if it overlaps the one reaching furthest
	var furthest *chunkPlacement
	for i := range placements {
		p := &placements[i]

		if furthest != nil && furthest.loc.Overlaps(p.loc) {
			return fmt.Errorf("chunks [%d,%d] at %s and [%d,%d] at %s share sectors", furthest.x, furthest.z, furthest.loc.String(), p.x, p.z, p.loc.String())
		}

		if furthest == nil || p.loc.End() > furthest.loc.End() {
			furthest = p
		}
	}

	return nil
}
