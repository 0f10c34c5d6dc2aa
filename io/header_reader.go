package io

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dot5enko/region-fixer/bits"
	"github.com/dot5enko/region-fixer/schema"
)

type HeaderReader struct {
	buffer [schema.HeaderBytes]byte
}

func (h *HeaderReader) Read(f *FileReader) (header schema.RegionHeader, topErr error) {

	topErr = f.ReadAt(h.buffer[:], 0)
	if topErr != nil {
		return header, fmt.Errorf("unable to read region header: %s", topErr.Error())
	}

	topErr = header.FromBytes(bytes.NewReader(h.buffer[:]))
	return header, topErr
}

// WriteEntry persists a single big endian header word, location or timestamp.
func (h *HeaderReader) WriteEntry(f *FileReader, offset int64, value uint32) error {
	word := h.buffer[:4]
	binary.BigEndian.PutUint32(word, value)
	return f.WriteAt(word, offset)
}

// WriteEmpty writes a zeroed two sector header.
func (h *HeaderReader) WriteEmpty(f *FileReader) error {
	empty := schema.RegionHeader{}

	bw := bits.NewEncodeBuffer(h.buffer[:], binary.BigEndian)
	n, encodeErr := empty.WriteTo(&bw)
	if encodeErr != nil {
		return encodeErr
	}

	return f.WriteAt(h.buffer[:n], 0)
}
