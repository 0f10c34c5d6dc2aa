package chunk

// Empty is a minimal chunk record with no sections or entities, used to replace
// a broken chunk when the repair policy asks for it.
type Empty struct {
	DataVersion int32      `nbt:"DataVersion"`
	Level       EmptyLevel `nbt:"Level"`
}

type EmptyLevel struct {
	XPos             int32            `nbt:"xPos"`
	ZPos             int32            `nbt:"zPos"`
	LastUpdate       int64            `nbt:"LastUpdate"`
	InhabitedTime    int64            `nbt:"InhabitedTime"`
	LightPopulated   byte             `nbt:"LightPopulated"`
	TerrainPopulated byte             `nbt:"TerrainPopulated"`
	V                byte             `nbt:"V"`
	HeightMap        []int32          `nbt:"HeightMap"`
	Biomes           []byte           `nbt:"Biomes"`
	Sections         []map[string]any `nbt:"Sections"`
	Entities         []map[string]any `nbt:"Entities"`
	TileEntities     []map[string]any `nbt:"TileEntities"`
}

// NewEmpty builds a fresh empty chunk for world chunk coordinates x, z.
// Every call returns new slices, nothing is shared between records.
func NewEmpty(x, z int, lastUpdate int64) *Empty {
	return &Empty{
		DataVersion: DefaultDataVersion,
		Level: EmptyLevel{
			XPos:       int32(x),
			ZPos:       int32(z),
			LastUpdate: lastUpdate,
			V:          1,
			HeightMap:  make([]int32, 16*16),
			Biomes:     make([]byte, 16*16),

			Sections:     []map[string]any{},
			Entities:     []map[string]any{},
			TileEntities: []map[string]any{},
		},
	}
}
