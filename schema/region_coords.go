package schema

import (
	"fmt"
	"strconv"
	"strings"
)

type RegionCoords struct {
	X int
	Z int
}

// ParseRegionFileName extracts region coordinates from names like r.3.-2.mca.
func ParseRegionFileName(name string) (RegionCoords, error) {

	parts := strings.Split(name, ".")
	if len(parts) != 4 || parts[0] != "r" {
		return RegionCoords{}, fmt.Errorf("region file name `%s` doesn't match r.<x>.<z>.<ext>", name)
	}

	x, xErr := strconv.Atoi(parts[1])
	if xErr != nil {
		return RegionCoords{}, fmt.Errorf("invalid region x in `%s`: %s", name, xErr.Error())
	}

	z, zErr := strconv.Atoi(parts[2])
	if zErr != nil {
		return RegionCoords{}, fmt.Errorf("invalid region z in `%s`: %s", name, zErr.Error())
	}

	return RegionCoords{X: x, Z: z}, nil
}

// ChunkWorldPos returns the world chunk coordinates of slot (x,z) in this region.
func (rc RegionCoords) ChunkWorldPos(x, z int) (int, int) {
	return rc.X<<5 + x, rc.Z<<5 + z
}

func (rc RegionCoords) String() string {
	return fmt.Sprintf("r.%d.%d", rc.X, rc.Z)
}
