package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dot5enko/region-fixer/bits"
)

const (
	// largest decompressed payload accepted, real chunks stay far below it
	MaxDecodedBytes = 32 << 20

	maxNestingDepth = 512
)

const (
	tagEnd byte = iota
	tagByte
	tagShort
	tagInt
	tagLong
	tagFloat
	tagDouble
	tagByteArray
	tagString
	tagList
	tagCompound
	tagIntArray
	tagLongArray
)

// payloadGuard walks an encoded payload without decoding it and rejects every length
// field that claims more data than the payload holds. The decoder allocates lists and
// arrays by their declared length, so this has to pass first.
type payloadGuard struct {
	src    *bytes.Reader
	reader *bits.BitsReader
}

func checkPayload(data []byte) error {
	src := bytes.NewReader(data)
	g := payloadGuard{src: src, reader: bits.NewReader(src, binary.BigEndian)}

	rootType, rootErr := g.reader.ReadU8()
	if rootErr != nil {
		return fmt.Errorf("unable to read root tag: %s", rootErr.Error())
	}

	if rootType != tagCompound {
		return fmt.Errorf("root tag %d is not a compound", rootType)
	}

	nameErr := g.skipString()
	if nameErr != nil {
		return nameErr
	}

	return g.skipPayload(rootType, 0)
}

func (g *payloadGuard) skipPayload(tagType byte, depth int) error {

	if depth > maxNestingDepth {
		return fmt.Errorf("tags nested deeper than %d", maxNestingDepth)
	}

	switch tagType {
	case tagByte:
		return g.skip(1)
	case tagShort:
		return g.skip(2)
	case tagInt, tagFloat:
		return g.skip(4)
	case tagLong, tagDouble:
		return g.skip(8)
	case tagByteArray:
		return g.skipArray(1)
	case tagIntArray:
		return g.skipArray(4)
	case tagLongArray:
		return g.skipArray(8)
	case tagString:
		return g.skipString()
	case tagList:
		elemType, typeErr := g.reader.ReadU8()
		if typeErr != nil {
			return fmt.Errorf("unable to read list type: %s", typeErr.Error())
		}

		n, lengthErr := g.readLength(minPayloadSize(elemType))
		if lengthErr != nil {
			return lengthErr
		}

		if elemType == tagEnd && n > 0 {
			return fmt.Errorf("list of %d end tags", n)
		}

		for i := 0; i < n; i++ {
			elemErr := g.skipPayload(elemType, depth+1)
			if elemErr != nil {
				return elemErr
			}
		}
		return nil
	case tagCompound:
		for {
			fieldType, typeErr := g.reader.ReadU8()
			if typeErr != nil {
				return fmt.Errorf("unterminated compound: %s", typeErr.Error())
			}

			if fieldType == tagEnd {
				return nil
			}

			nameErr := g.skipString()
			if nameErr != nil {
				return nameErr
			}

			fieldErr := g.skipPayload(fieldType, depth+1)
			if fieldErr != nil {
				return fieldErr
			}
		}
	default:
		return fmt.Errorf("unknown tag type %d", tagType)
	}
}

// readLength reads a signed element count and checks the elements can fit in what is left.
func (g *payloadGuard) readLength(elemSize int) (int, error) {
	n, readErr := g.reader.ReadI32()
	if readErr != nil {
		return 0, fmt.Errorf("unable to read length: %s", readErr.Error())
	}

	if n < 0 {
		return 0, fmt.Errorf("negative length %d", n)
	}

	if int64(n)*int64(elemSize) > int64(g.src.Len()) {
		return 0, fmt.Errorf("length %d x %d bytes exceeds the %d bytes left", n, elemSize, g.src.Len())
	}

	return int(n), nil
}

func (g *payloadGuard) skipArray(elemSize int) error {
	n, lengthErr := g.readLength(elemSize)
	if lengthErr != nil {
		return lengthErr
	}
	return g.skip(n * elemSize)
}

func (g *payloadGuard) skipString() error {
	n, readErr := g.reader.ReadU16()
	if readErr != nil {
		return fmt.Errorf("unable to read string length: %s", readErr.Error())
	}
	return g.skip(int(n))
}

func (g *payloadGuard) skip(n int) error {
	if n > g.src.Len() {
		return fmt.Errorf("%d bytes expected, %d left", n, g.src.Len())
	}

	_, seekErr := g.src.Seek(int64(n), io.SeekCurrent)
	return seekErr
}

// minPayloadSize is the fewest bytes a payload of tagType can take.
func minPayloadSize(tagType byte) int {
	switch tagType {
	case tagEnd:
		return 0
	case tagByte, tagCompound:
		return 1
	case tagShort, tagString:
		return 2
	case tagInt, tagFloat, tagByteArray, tagIntArray, tagLongArray:
		return 4
	case tagLong, tagDouble:
		return 8
	case tagList:
		return 5
	default:
		return 1
	}
}
