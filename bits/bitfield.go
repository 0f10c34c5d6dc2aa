package bits

import "math/bits"

// SectorBitmap tracks which sectors of a region file are in use.
// A set bit means the sector is used. Unlike a fixed Bitfield it grows with the file.
type SectorBitmap struct {
	words []uint64
	size  int
}

func NewSectorBitmap(size int) *SectorBitmap {
	return &SectorBitmap{
		words: make([]uint64, (size+63)>>6),
		size:  size,
	}
}

func (b *SectorBitmap) Len() int {
	return b.size
}

func (b *SectorBitmap) Set(bit int) {
	word := bit >> 6 // bit / 64
	mask := uint64(1) << (bit & 63)
	b.words[word] |= mask
}

func (b *SectorBitmap) Clear(bit int) {
	word := bit >> 6
	mask := uint64(1) << (bit & 63)
	b.words[word] &^= mask
}

func (b *SectorBitmap) IsSet(bit int) bool {
	word := bit >> 6
	return (b.words[word]>>(bit&63))&1 == 1
}

func (b *SectorBitmap) SetRange(start, count int) {
	for i := start; i < start+count; i++ {
		b.Set(i)
	}
}

func (b *SectorBitmap) ClearRange(start, count int) {
	for i := start; i < start+count; i++ {
		b.Clear(i)
	}
}

// Grow appends n sectors, marked as used.
func (b *SectorBitmap) Grow(n int) {
	newSize := b.size + n
	for len(b.words) < (newSize+63)>>6 {
		b.words = append(b.words, 0)
	}

	for i := b.size; i < newSize; i++ {
		b.Set(i)
	}

	b.size = newSize
}

// FindFreeRun returns the lowest start of a run of count clear bits (first fit).
func (b *SectorBitmap) FindFreeRun(count int) (int, bool) {
	if count <= 0 {
		return 0, false
	}

	runStart := 0
	runLength := 0

	for i := 0; i < b.size; i++ {
		if b.IsSet(i) {
			runLength = 0
			continue
		}

		if runLength == 0 {
			runStart = i
		}
		runLength++

		if runLength >= count {
			return runStart, true
		}
	}

	return 0, false
}

// Count returns the number of used sectors.
func (b *SectorBitmap) Count() int {
	c := 0
	for _, w := range b.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// Free returns the number of unused sectors.
func (b *SectorBitmap) Free() int {
	return b.size - b.Count()
}
