package schema

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dot5enko/region-fixer/bits"
)

// RegionHeader is the first two sectors of a region file.
type RegionHeader struct {
	Locations  [RegionSlots]Location
	Timestamps [RegionSlots]int32
}

func (header *RegionHeader) FromBytes(input io.Reader) (topErr error) {

	reader := bits.NewReader(input, binary.BigEndian)

	for i := 0; i < RegionSlots; i++ {
		raw, readErr := reader.ReadU32()
		if readErr != nil {
			return fmt.Errorf("unable to decode location %d: %s", i, readErr.Error())
		}
		header.Locations[i] = LocationFromUint32(raw)
	}

	for i := 0; i < RegionSlots; i++ {
		header.Timestamps[i], topErr = reader.ReadI32()
		if topErr != nil {
			return fmt.Errorf("unable to decode timestamp %d: %s", i, topErr.Error())
		}
	}

	return nil
}

func (header *RegionHeader) WriteTo(bw *bits.BitWriter) (int, error) {

	for _, loc := range header.Locations {
		bw.PutUint32(loc.Uint32())
	}

	for _, ts := range header.Timestamps {
		bw.PutInt32(ts)
	}

	return bw.Position(), nil
}

// LocationOffset is the byte offset of the location entry for a slot.
func LocationOffset(idx int) int64 {
	return int64(idx) * 4
}

// TimestampOffset is the byte offset of the timestamp entry for a slot.
func TimestampOffset(idx int) int64 {
	return SectorBytes + int64(idx)*4
}
