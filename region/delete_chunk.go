package region

import (
	"fmt"

	"github.com/dot5enko/region-fixer/schema"
)

// DeleteChunk zeroes the location and timestamp of a slot.
// Sectors stay marked as used and the file keeps its size until Compact runs.
func (r *Region) DeleteChunk(x, z int) error {

	if schema.OutOfBounds(x, z) {
		return fmt.Errorf("%w: [%d,%d]", ErrOutOfBounds, x, z)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	idx := schema.SlotIndex(x, z)

	locationErr := r.setLocation(idx, schema.Location{})
	if locationErr != nil {
		return locationErr
	}

	timestampErr := r.setTimestamp(idx, 0)
	if timestampErr != nil {
		return timestampErr
	}

	r.logger.Debug("region deleted chunk", "path", r.file.Path(), "x", x, "z", z)

	return nil
}
