package schema

import "fmt"

// Location is one allocation entry of the region header.
// On disk it is packed big endian as start<<8 | count.
type Location struct {
	StartSector uint32
	SectorCount uint8
}

func LocationFromUint32(raw uint32) Location {
	return Location{
		StartSector: raw >> 8,
		SectorCount: uint8(raw & 0xFF),
	}
}

func (l Location) Uint32() uint32 {
	return l.StartSector<<8 | uint32(l.SectorCount)
}

func (l Location) IsEmpty() bool {
	return l.StartSector == 0 && l.SectorCount == 0
}

// End is the first sector after the allocated range.
func (l Location) End() int {
	return int(l.StartSector) + int(l.SectorCount)
}

// Offset is the absolute byte offset of the blob in the file.
func (l Location) Offset() int64 {
	return int64(l.StartSector) * SectorBytes
}

// WithinSectors reports whether the range lies after the header and inside a file of totalSectors.
func (l Location) WithinSectors(totalSectors int) bool {
	return l.StartSector >= HeaderSectors && l.End() <= totalSectors
}

// Overlaps reports whether two allocated ranges share at least one sector.
func (l Location) Overlaps(other Location) bool {
	if l.SectorCount == 0 || other.SectorCount == 0 {
		return false
	}
	return int(l.StartSector) < other.End() && int(other.StartSector) < l.End()
}

func (l Location) String() string {
	return fmt.Sprintf("[%d+%d]", l.StartSector, l.SectorCount)
}
