package region

import "errors"

// Per chunk read failures. None of them is fatal for the region, the chunk is just unreadable.
var (
	ErrOutOfBounds               = errors.New("chunk coordinates out of bounds")
	ErrNotFound                  = errors.New("chunk not found")
	ErrInvalidSectorRange        = errors.New("invalid sector range")
	ErrInvalidLength             = errors.New("invalid chunk length")
	ErrUnknownCompressionVersion = errors.New("unknown compression version")
	ErrExternalChunk             = errors.New("chunk stored in external file")
)

var (
	ErrChunkTooLarge = errors.New("chunk needs more than 255 sectors")
	ErrRegionFull    = errors.New("region file reached the maximum sector number")
)
