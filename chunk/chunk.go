// Package chunk holds the decoded form of a chunk payload and the structural checks
// the fixer runs on it. Only the fields that are validated are decoded, everything
// else in the payload is skipped.
package chunk

const (
	BlocksLength = 16 * 16 * 16
	NibbleLength = BlocksLength / 2

	// DataVersion written into synthesized chunks
	DefaultDataVersion = 1343
	// LastUpdate used when no chunk in the region carries a newer one
	DefaultLastUpdate int64 = 537158390
)

type Chunk struct {
	Level *Level `nbt:"Level"`
}

type Level struct {
	XPos       *int32    `nbt:"xPos"`
	ZPos       *int32    `nbt:"zPos"`
	LastUpdate *int64    `nbt:"LastUpdate"`
	Sections   []Section `nbt:"Sections"`
}

type Section struct {
	Blocks     []byte `nbt:"Blocks"`
	Data       []byte `nbt:"Data"`
	BlockLight []byte `nbt:"BlockLight"`
	SkyLight   []byte `nbt:"SkyLight"`

	// extended block ids, optional
	Add []byte `nbt:"Add"`
}

// Position returns the chunk coordinates stored in the payload.
func (c *Chunk) Position() (x, z int, ok bool) {
	if c.Level == nil || c.Level.XPos == nil || c.Level.ZPos == nil {
		return 0, 0, false
	}
	return int(*c.Level.XPos), int(*c.Level.ZPos), true
}

func (c *Chunk) LastUpdate() (int64, bool) {
	if c.Level == nil || c.Level.LastUpdate == nil {
		return 0, false
	}
	return *c.Level.LastUpdate, true
}

func (c *Chunk) Sections() []Section {
	if c.Level == nil {
		return nil
	}
	return c.Level.Sections
}
