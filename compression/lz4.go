package compression

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4 chunks (type 4) use the lz4-java block stream, not the lz4 frame format:
//
// | magic "LZ4Block" | token | compressed len LE | original len LE | checksum LE | block |
//
// repeated until a block with original len 0.
const (
	Lz4BlockMagic      = "LZ4Block"
	Lz4BlockHeaderSize = 8 + 1 + 4 + 4 + 4

	Lz4MethodRaw = 0x10
	Lz4MethodLz4 = 0x20
)

// Lz4BlockReader decodes an lz4-java block stream. Block checksums are not verified.
type Lz4BlockReader struct {
	src    io.Reader
	header [Lz4BlockHeaderSize]byte

	compressed []byte
	block      []byte
	pos        int
	done       bool
}

func NewLz4BlockReader(src io.Reader) *Lz4BlockReader {
	return &Lz4BlockReader{src: src}
}

func (r *Lz4BlockReader) Read(p []byte) (int, error) {
	for r.pos >= len(r.block) {
		if r.done {
			return 0, io.EOF
		}

		blockErr := r.nextBlock()
		if blockErr != nil {
			return 0, blockErr
		}
	}

	n := copy(p, r.block[r.pos:])
	r.pos += n

	return n, nil
}

func (r *Lz4BlockReader) nextBlock() error {

	r.pos = 0
	r.block = r.block[:0]

	_, headerErr := io.ReadFull(r.src, r.header[:])
	if headerErr == io.EOF {
		r.done = true
		return nil
	} else if headerErr != nil {
		return fmt.Errorf("unable to read lz4 block header: %s", headerErr.Error())
	}

	if string(r.header[:8]) != Lz4BlockMagic {
		return fmt.Errorf("invalid lz4 block magic %q", r.header[:8])
	}

	token := r.header[8]
	method := token & 0xF0
	maxBlockSize := 1 << (10 + int(token&0x0F))

	compressedLen := int(int32(binary.LittleEndian.Uint32(r.header[9:13])))
	originalLen := int(int32(binary.LittleEndian.Uint32(r.header[13:17])))

	if originalLen < 0 || compressedLen < 0 || originalLen > maxBlockSize || compressedLen > maxBlockSize {
		return fmt.Errorf("invalid lz4 block lengths: compressed %d, original %d, max %d", compressedLen, originalLen, maxBlockSize)
	}

	// a block can't be longer than what is left of the payload
	if sized, ok := r.src.(interface{ Len() int }); ok && compressedLen > sized.Len() {
		return fmt.Errorf("lz4 block of %d bytes, only %d left", compressedLen, sized.Len())
	}

	if originalLen == 0 {
		if compressedLen != 0 {
			return fmt.Errorf("invalid lz4 end block: compressed %d", compressedLen)
		}
		r.done = true
		return nil
	}

	r.compressed = growBuffer(r.compressed, compressedLen)
	_, bodyErr := io.ReadFull(r.src, r.compressed)
	if bodyErr != nil {
		return fmt.Errorf("unable to read lz4 block of %d bytes: %s", compressedLen, bodyErr.Error())
	}

	switch method {
	case Lz4MethodRaw:
		if compressedLen != originalLen {
			return fmt.Errorf("raw lz4 block length mismatch: %d != %d", compressedLen, originalLen)
		}
		r.block = append(r.block, r.compressed...)
	case Lz4MethodLz4:
		r.block = growBuffer(r.block, originalLen)
		n, uncompressErr := lz4.UncompressBlock(r.compressed, r.block)
		if uncompressErr != nil {
			return fmt.Errorf("unable to decompress lz4 block: %s", uncompressErr.Error())
		}
		if n != originalLen {
			return fmt.Errorf("lz4 block decompressed to %d bytes, expected %d", n, originalLen)
		}
	default:
		return fmt.Errorf("unknown lz4 block method 0x%x", method)
	}

	return nil
}

func growBuffer(buf []byte, size int) []byte {
	if cap(buf) < size {
		return make([]byte, size)
	}
	return buf[:size]
}
