package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dot5enko/region-fixer/schema"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

var (
	ErrUnknownCompression = errors.New("unknown compression type")
	ErrExternalPayload    = errors.New("chunk payload is stored in an external file")
)

// NewChunkReader returns a stream of decompressed chunk bytes for a payload read from a region.
func NewChunkReader(typ schema.CompressionType, data []byte) (io.ReadCloser, error) {

	if typ.IsExternal() {
		return nil, ErrExternalPayload
	}

	switch typ {
	case schema.GzipCompression:
		gr, gzipErr := gzip.NewReader(bytes.NewReader(data))
		if gzipErr != nil {
			return nil, fmt.Errorf("unable to open gzip stream: %s", gzipErr.Error())
		}
		return gr, nil
	case schema.DeflateCompression:
		zr, zlibErr := zlib.NewReader(bytes.NewReader(data))
		if zlibErr != nil {
			return nil, fmt.Errorf("unable to open zlib stream: %s", zlibErr.Error())
		}
		return zr, nil
	case schema.NoCompression:
		return io.NopCloser(bytes.NewReader(data)), nil
	case schema.Lz4Compression:
		return io.NopCloser(NewLz4BlockReader(bytes.NewReader(data))), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(typ))
	}
}

// CompressZlib compresses src the way region chunks are written (type 2).
func CompressZlib(src []byte, output *bytes.Buffer) error {
	zw := zlib.NewWriter(output)

	_, writeErr := zw.Write(src)
	if writeErr != nil {
		return writeErr
	}

	return zw.Close()
}
