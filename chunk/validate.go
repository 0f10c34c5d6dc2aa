package chunk

import (
	"errors"
	"fmt"
)

var (
	ErrMissingLevel     = errors.New("chunk has no Level compound")
	ErrMissingPosition  = errors.New("chunk has no position")
	ErrPositionMismatch = errors.New("chunk position does not match its slot")
	ErrInvalidSection   = errors.New("invalid section")
)

// CheckPosition verifies the stored position equals the one derived from the region and slot.
func CheckPosition(c *Chunk, expectedX, expectedZ int) error {
	if c.Level == nil {
		return ErrMissingLevel
	}

	x, z, ok := c.Position()
	if !ok {
		return ErrMissingPosition
	}

	if x != expectedX || z != expectedZ {
		return fmt.Errorf("%w: stored [%d,%d], expected [%d,%d]", ErrPositionMismatch, x, z, expectedX, expectedZ)
	}

	return nil
}

// CheckSections verifies the block arrays of every section have the expected sizes.
func CheckSections(c *Chunk) error {
	if c.Level == nil {
		return ErrMissingLevel
	}

	for idx, section := range c.Level.Sections {
		sizeErr := section.check()
		if sizeErr != nil {
			return fmt.Errorf("%w %d: %s", ErrInvalidSection, idx, sizeErr.Error())
		}
	}

	return nil
}

func (s *Section) check() error {
	if len(s.Blocks) != BlocksLength {
		return fmt.Errorf("Blocks has %d bytes, expected %d", len(s.Blocks), BlocksLength)
	}

	nibbles := []struct {
		name string
		data []byte
	}{
		{"Data", s.Data},
		{"BlockLight", s.BlockLight},
		{"SkyLight", s.SkyLight},
	}

	for _, n := range nibbles {
		if len(n.data) != NibbleLength {
			return fmt.Errorf("%s has %d bytes, expected %d", n.name, len(n.data), NibbleLength)
		}
	}

	if s.Add != nil && len(s.Add) != NibbleLength {
		return fmt.Errorf("Add has %d bytes, expected %d", len(s.Add), NibbleLength)
	}

	return nil
}
