package schema

// region file on disk

// *--------------------------------*
// | sector 0: 1024 locations       |
// *--------------------------------*
// | sector 1: 1024 timestamps      |
// *--------------------------------*
// | sector 2 ... n: chunk blobs    |
// | or free sectors                |
// *--------------------------------*

const (
	SectorBytes = 4096

	HeaderSectors = 2
	HeaderBytes   = HeaderSectors * SectorBytes

	// 4 byte length + 1 byte compression type
	ChunkHeaderSize = 5

	MaxSectorCount = 255
	MaxStartSector = 1<<24 - 1

	RegionWidth = 32
	RegionSlots = RegionWidth * RegionWidth
)

// SectorsNeeded returns how many sectors a blob with the given compressed payload occupies.
func SectorsNeeded(payloadLen int) int {
	return (payloadLen + ChunkHeaderSize + SectorBytes - 1) / SectorBytes
}

// SectorsForLength is SectorsNeeded for a length prefix as stored on disk,
// where the stored length already counts the compression type byte.
func SectorsForLength(storedLength int) int {
	return (storedLength + 4 + SectorBytes - 1) / SectorBytes
}

func SlotIndex(x, z int) int {
	return x + z*RegionWidth
}

func SlotXZ(idx int) (x, z int) {
	return idx % RegionWidth, idx / RegionWidth
}

func OutOfBounds(x, z int) bool {
	return x < 0 || x >= RegionWidth || z < 0 || z >= RegionWidth
}
