package region

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dot5enko/region-fixer/bits"
	"github.com/dot5enko/region-fixer/compression"
	"github.com/dot5enko/region-fixer/schema"
)

// ReadChunk returns a stream of the decompressed chunk payload.
func (r *Region) ReadChunk(x, z int) (io.ReadCloser, error) {

	typ, data, readErr := r.ReadRawChunk(x, z)
	if readErr != nil {
		return nil, readErr
	}

	stream, streamErr := compression.NewChunkReader(typ, data)
	if streamErr != nil {
		return nil, fmt.Errorf("chunk [%d,%d]: %w", x, z, streamErr)
	}

	return stream, nil
}

// ReadRawChunk returns the compression type and the still compressed payload of a chunk.
func (r *Region) ReadRawChunk(x, z int) (schema.CompressionType, []byte, error) {

	if schema.OutOfBounds(x, z) {
		return 0, nil, fmt.Errorf("%w: [%d,%d]", ErrOutOfBounds, x, z)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	loc := r.header.Locations[schema.SlotIndex(x, z)]
	if loc.IsEmpty() {
		return 0, nil, fmt.Errorf("%w: [%d,%d]", ErrNotFound, x, z)
	}

	if !loc.WithinSectors(r.sectorUsed.Len()) {
		return 0, nil, fmt.Errorf("%w: chunk [%d,%d] at %s, region has %d sectors", ErrInvalidSectorRange, x, z, loc.String(), r.sectorUsed.Len())
	}

	var prefix [schema.ChunkHeaderSize]byte
	prefixErr := r.file.ReadAt(prefix[:], loc.Offset())
	if prefixErr != nil {
		return 0, nil, fmt.Errorf("unable to read chunk [%d,%d] header: %s", x, z, prefixErr.Error())
	}

	reader := bits.NewReader(bytes.NewReader(prefix[:]), binary.BigEndian)
	rawLength, _ := reader.ReadI32()
	rawType, _ := reader.ReadU8()

	length := int(rawLength)
	if length < 1 || length > int(loc.SectorCount)*schema.SectorBytes {
		return 0, nil, fmt.Errorf("%w: chunk [%d,%d] length %d, %d sectors allocated", ErrInvalidLength, x, z, length, loc.SectorCount)
	}

	typ := schema.CompressionType(rawType)
	known := typ.Base().Known()
	if r.extended {
		known = typ.Base().KnownExtended()
	}

	if !known {
		return 0, nil, fmt.Errorf("%w: chunk [%d,%d] version %d", ErrUnknownCompressionVersion, x, z, rawType)
	}

	if typ.IsExternal() {
		return 0, nil, fmt.Errorf("%w: chunk [%d,%d]", ErrExternalChunk, x, z)
	}

	data := make([]byte, length-1)
	dataErr := r.file.ReadAt(data, loc.Offset()+schema.ChunkHeaderSize)
	if dataErr != nil {
		return 0, nil, fmt.Errorf("unable to read chunk [%d,%d] payload: %s", x, z, dataErr.Error())
	}

	return typ, data, nil
}
