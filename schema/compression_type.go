package schema

import "fmt"

type CompressionType uint8

const (
	GzipCompression    CompressionType = 1
	DeflateCompression CompressionType = 2

	// newer region versions only, accepted when extended compression is enabled
	NoCompression  CompressionType = 3
	Lz4Compression CompressionType = 4

	// payload lives in a separate c.<x>.<z>.mcc file
	ExternalFlag CompressionType = 0x80
)

func (c CompressionType) String() string {
	switch c.Base() {
	case GzipCompression:
		return "gzip"
	case DeflateCompression:
		return "deflate"
	case NoCompression:
		return "none"
	case Lz4Compression:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

func (c CompressionType) IsExternal() bool {
	return c&ExternalFlag != 0
}

func (c CompressionType) Base() CompressionType {
	return c &^ ExternalFlag
}

// Known reports whether c is one of the two versions every region reader understands.
func (c CompressionType) Known() bool {
	return c == GzipCompression || c == DeflateCompression
}

// KnownExtended also accepts the uncompressed and lz4 versions.
func (c CompressionType) KnownExtended() bool {
	return c.Known() || c == NoCompression || c == Lz4Compression
}
