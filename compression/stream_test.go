package compression

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/dot5enko/region-fixer/schema"
	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
)

func sample(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i % 61)
	}
	return out
}

func readAll(t *testing.T, typ schema.CompressionType, data []byte) []byte {
	t.Helper()

	stream, streamErr := NewChunkReader(typ, data)
	require.NoError(t, streamErr)
	defer stream.Close()

	out, readErr := io.ReadAll(stream)
	require.NoError(t, readErr)
	return out
}

func lz4Block(t *testing.T, token byte, src []byte) []byte {
	t.Helper()

	header := make([]byte, Lz4BlockHeaderSize)
	copy(header, Lz4BlockMagic)

	body := src
	if token&0xF0 == Lz4MethodLz4 {
		body = make([]byte, lz4.CompressBlockBound(len(src)))
		n, compressErr := lz4.CompressBlock(src, body, nil)
		require.NoError(t, compressErr)
		require.NotZero(t, n)
		body = body[:n]
	}

	header[8] = token
	binary.LittleEndian.PutUint32(header[9:13], uint32(len(body)))
	binary.LittleEndian.PutUint32(header[13:17], uint32(len(src)))

	return append(header, body...)
}

func lz4Header(token byte, compressedLen, originalLen uint32) []byte {
	header := make([]byte, Lz4BlockHeaderSize)
	copy(header, Lz4BlockMagic)
	header[8] = token
	binary.LittleEndian.PutUint32(header[9:13], compressedLen)
	binary.LittleEndian.PutUint32(header[13:17], originalLen)
	return header
}

func lz4End() []byte {
	header := make([]byte, Lz4BlockHeaderSize)
	copy(header, Lz4BlockMagic)
	header[8] = Lz4MethodRaw
	return header
}

func TestZlibRoundTrip(t *testing.T) {
	src := sample(20000)

	var buf bytes.Buffer
	require.NoError(t, CompressZlib(src, &buf))
	require.Less(t, buf.Len(), len(src))

	require.Equal(t, src, readAll(t, schema.DeflateCompression, buf.Bytes()))
}

func TestGzipStream(t *testing.T) {
	src := sample(5000)

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, writeErr := gw.Write(src)
	require.NoError(t, writeErr)
	require.NoError(t, gw.Close())

	require.Equal(t, src, readAll(t, schema.GzipCompression, buf.Bytes()))
}

func TestUncompressedStream(t *testing.T) {
	require.Equal(t, []byte("plain"), readAll(t, schema.NoCompression, []byte("plain")))
}

func TestLz4BlockStream(t *testing.T) {
	first := sample(64 * 1024)
	second := []byte("short raw tail")

	var stream []byte
	// 0x0A: blocks of at most 1 << 20 bytes
	stream = append(stream, lz4Block(t, Lz4MethodLz4|0x0A, first)...)
	stream = append(stream, lz4Block(t, Lz4MethodRaw|0x0A, second)...)
	stream = append(stream, lz4End()...)

	require.Equal(t, append(append([]byte{}, first...), second...), readAll(t, schema.Lz4Compression, stream))
}

func TestLz4StreamWithoutEndBlock(t *testing.T) {
	src := sample(3000)
	require.Equal(t, src, readAll(t, schema.Lz4Compression, lz4Block(t, Lz4MethodLz4|0x02, src)))
}

func TestLz4StreamErrors(t *testing.T) {
	cases := map[string][]byte{
		"bad magic":              append([]byte("LZ5Block"), make([]byte, Lz4BlockHeaderSize-8)...),
		"short header":           []byte("LZ4Bl"),
		"truncated":              lz4Block(t, Lz4MethodRaw|0x02, sample(100))[:Lz4BlockHeaderSize+10],
		"too large":              lz4Block(t, Lz4MethodRaw, sample(2000)),
		"unknown token":          lz4Block(t, 0x30|0x02, sample(10)),
		"huge compressed length": lz4Header(Lz4MethodLz4|0x0A, 0x7ffffff0, 100),
		"compressed past max":    lz4Header(Lz4MethodLz4|0x00, 2048, 100),
		"compressed past end":    append(lz4Header(Lz4MethodLz4|0x0A, 500, 1000), make([]byte, 100)...),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			stream, streamErr := NewChunkReader(schema.Lz4Compression, data)
			require.NoError(t, streamErr)

			_, readErr := io.ReadAll(stream)
			require.Error(t, readErr)
		})
	}
}

func TestUnknownAndExternalCompression(t *testing.T) {
	_, unknownErr := NewChunkReader(schema.CompressionType(9), nil)
	require.ErrorIs(t, unknownErr, ErrUnknownCompression)

	_, externalErr := NewChunkReader(schema.DeflateCompression|schema.ExternalFlag, nil)
	require.ErrorIs(t, externalErr, ErrExternalPayload)
}

func TestBrokenZlibHeader(t *testing.T) {
	_, streamErr := NewChunkReader(schema.DeflateCompression, []byte("not a zlib stream"))
	require.Error(t, streamErr)
}
