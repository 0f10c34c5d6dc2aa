package region

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dot5enko/region-fixer/compression"
	"github.com/dot5enko/region-fixer/schema"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Unix(1_700_000_000, 0)

func openTestRegion(t *testing.T, path string) *Region {
	t.Helper()

	r, openErr := OpenWithOptions(path, Options{Now: func() time.Time { return fixedNow }})
	require.NoError(t, openErr)
	t.Cleanup(func() { r.Close() })

	return r
}

func newTestRegion(t *testing.T) (*Region, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "r.0.0.mca")
	return openTestRegion(t, path), path
}

// payload returns n pseudo random bytes, a blob of n bytes takes SectorsNeeded(n) sectors.
func payload(n int, seed int64) []byte {
	out := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(out)
	return out
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()

	stat, statErr := os.Stat(path)
	require.NoError(t, statErr)
	return stat.Size()
}

// writeRawRegion builds a region file by hand: header entries plus blobs at sectors.
func writeRawRegion(t *testing.T, path string, totalSectors int, locations map[int]schema.Location, blobs map[int][]byte) {
	t.Helper()

	data := make([]byte, totalSectors*schema.SectorBytes)
	for idx, loc := range locations {
		binary.BigEndian.PutUint32(data[schema.LocationOffset(idx):], loc.Uint32())
	}
	for sector, blob := range blobs {
		copy(data[sector*schema.SectorBytes:], blob)
	}

	require.NoError(t, os.WriteFile(path, data, 0644))
}

func rawBlob(typ schema.CompressionType, body []byte) []byte {
	blob := make([]byte, schema.ChunkHeaderSize+len(body))
	binary.BigEndian.PutUint32(blob, uint32(len(body)+1))
	blob[4] = byte(typ)
	copy(blob[5:], body)
	return blob
}

func zlibBody(t *testing.T, body []byte) []byte {
	t.Helper()

	var compressed bytes.Buffer
	require.NoError(t, compression.CompressZlib(body, &compressed))
	return compressed.Bytes()
}

func TestOpenCreatesEmptyHeader(t *testing.T) {
	r, path := newTestRegion(t)

	require.Equal(t, int64(schema.HeaderBytes), fileSize(t, path))
	require.Equal(t, int64(schema.HeaderBytes), r.SizeDelta())
	require.Equal(t, int64(0), r.SizeDelta(), "size delta resets after read")
	require.Equal(t, 0, r.ChunkCount())
	require.Equal(t, schema.HeaderSectors, r.SectorCount())
	require.Equal(t, 0, r.FreeSectors())
}

func TestOpenPadsMisalignedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")
	require.NoError(t, os.WriteFile(path, make([]byte, schema.HeaderBytes+100), 0644))

	r := openTestRegion(t, path)

	require.Equal(t, int64(schema.HeaderBytes+schema.SectorBytes), fileSize(t, path))
	require.Equal(t, 3, r.SectorCount())
	require.Equal(t, 1, r.FreeSectors())
	require.Equal(t, int64(schema.SectorBytes-100), r.SizeDelta())
}

func TestOpenPadsShortHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")
	require.NoError(t, os.WriteFile(path, make([]byte, schema.SectorBytes+10), 0644))

	r := openTestRegion(t, path)

	require.Equal(t, int64(schema.HeaderBytes), fileSize(t, path))
	require.Equal(t, schema.HeaderSectors, r.SectorCount())
}

func TestOpenIgnoresLocationsOutsideOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")

	writeRawRegion(t, path, 4, map[int]schema.Location{
		schema.SlotIndex(1, 0): {StartSector: 2, SectorCount: 1},
		schema.SlotIndex(2, 0): {StartSector: 3, SectorCount: 5},
		schema.SlotIndex(3, 0): {StartSector: 1, SectorCount: 1},
	}, map[int][]byte{
		2: rawBlob(schema.DeflateCompression, zlibBody(t, []byte("ok"))),
	})

	r := openTestRegion(t, path)

	require.Equal(t, 3, r.ChunkCount())
	require.True(t, r.HasChunk(2, 0))
	// sector 3 is free: the only location covering it runs past the end of the file
	require.Equal(t, 1, r.FreeSectors())

	_, readErr := r.ReadChunk(2, 0)
	require.ErrorIs(t, readErr, ErrInvalidSectorRange)

	_, headerErr := r.ReadChunk(3, 0)
	require.ErrorIs(t, headerErr, ErrInvalidSectorRange)

	stream, okErr := r.ReadChunk(1, 0)
	require.NoError(t, okErr)
	content, _ := io.ReadAll(stream)
	require.Equal(t, []byte("ok"), content)
}

func TestHasChunkOutOfBounds(t *testing.T) {
	r, _ := newTestRegion(t)

	require.False(t, r.HasChunk(-1, 0))
	require.False(t, r.HasChunk(0, 32))

	_, readErr := r.ReadChunk(32, 0)
	require.ErrorIs(t, readErr, ErrOutOfBounds)
	require.ErrorIs(t, r.WriteChunk(0, -1, []byte{1}), ErrOutOfBounds)
	require.ErrorIs(t, r.DeleteChunk(40, 40), ErrOutOfBounds)
}

func TestWriteReadRoundTrip(t *testing.T) {
	r, _ := newTestRegion(t)

	original := bytes.Repeat([]byte("section data "), 2000)

	var compressed bytes.Buffer
	require.NoError(t, compression.CompressZlib(original, &compressed))

	require.NoError(t, r.WriteChunk(5, 10, compressed.Bytes()))
	require.True(t, r.HasChunk(5, 10))
	require.Equal(t, int32(fixedNow.Unix()), r.Timestamp(5, 10))

	stream, readErr := r.ReadChunk(5, 10)
	require.NoError(t, readErr)
	defer stream.Close()

	content, contentErr := io.ReadAll(stream)
	require.NoError(t, contentErr)
	require.Equal(t, original, content)

	typ, raw, rawErr := r.ReadRawChunk(5, 10)
	require.NoError(t, rawErr)
	require.Equal(t, schema.DeflateCompression, typ)
	require.Equal(t, compressed.Bytes(), raw)
}

func TestWriteRoundTripPayloadSizes(t *testing.T) {
	r, _ := newTestRegion(t)

	sizes := []int{1, schema.SectorBytes - schema.ChunkHeaderSize, schema.SectorBytes - schema.ChunkHeaderSize + 1, 100_000, schema.MaxSectorCount*schema.SectorBytes - schema.ChunkHeaderSize}

	for i, size := range sizes {
		data := payload(size, int64(i))
		require.NoError(t, r.WriteChunk(i, 0, data), "size %d", size)

		loc := r.Location(i, 0)
		require.Equal(t, uint8(schema.SectorsNeeded(size)), loc.SectorCount, "size %d", size)

		_, raw, rawErr := r.ReadRawChunk(i, 0)
		require.NoError(t, rawErr)
		require.Equal(t, data, raw, "size %d", size)
	}

	require.NoError(t, r.CheckLayout())
}

func TestWriteRejectsTooLargeChunk(t *testing.T) {
	r, path := newTestRegion(t)

	tooLarge := payload(schema.MaxSectorCount*schema.SectorBytes-schema.ChunkHeaderSize+1, 1)

	require.ErrorIs(t, r.WriteChunk(0, 0, tooLarge), ErrChunkTooLarge)
	require.False(t, r.HasChunk(0, 0))
	require.Equal(t, int64(schema.HeaderBytes), fileSize(t, path))
}

func TestWriteSameSizeRewritesInPlace(t *testing.T) {
	r, path := newTestRegion(t)

	require.NoError(t, r.WriteChunk(0, 0, payload(5000, 1)))
	first := r.Location(0, 0)
	sizeAfterFirst := fileSize(t, path)

	require.NoError(t, r.WriteChunk(0, 0, payload(6000, 2)))

	require.Equal(t, first, r.Location(0, 0))
	require.Equal(t, sizeAfterFirst, fileSize(t, path))

	_, raw, _ := r.ReadRawChunk(0, 0)
	require.Equal(t, payload(6000, 2), raw)
}

func TestWriteGrowsWhenNoRunFits(t *testing.T) {
	r, path := newTestRegion(t)
	r.SizeDelta()

	require.NoError(t, r.WriteChunk(0, 0, payload(100, 1)))
	require.NoError(t, r.WriteChunk(1, 0, payload(100, 2)))

	require.Equal(t, schema.Location{StartSector: 2, SectorCount: 1}, r.Location(0, 0))
	require.Equal(t, schema.Location{StartSector: 3, SectorCount: 1}, r.Location(1, 0))

	// sector 2 is freed, but two sectors are needed
	require.NoError(t, r.WriteChunk(0, 0, payload(5000, 3)))

	require.Equal(t, schema.Location{StartSector: 4, SectorCount: 2}, r.Location(0, 0))
	require.Equal(t, int64(6*schema.SectorBytes), fileSize(t, path))
	require.Equal(t, int64(4*schema.SectorBytes), r.SizeDelta())
	require.Equal(t, 1, r.FreeSectors())

	// the freed sector is the first fit for a one sector chunk
	require.NoError(t, r.WriteChunk(2, 0, payload(100, 4)))
	require.Equal(t, schema.Location{StartSector: 2, SectorCount: 1}, r.Location(2, 0))
	require.Equal(t, int64(6*schema.SectorBytes), fileSize(t, path))

	require.NoError(t, r.CheckLayout())
}

func TestWriteRelocatesIntoFreedRun(t *testing.T) {
	r, path := newTestRegion(t)

	require.NoError(t, r.WriteChunk(0, 0, payload(5000, 1)))  // sectors 2,3
	require.NoError(t, r.WriteChunk(1, 0, payload(100, 2)))   // sector 4
	require.NoError(t, r.WriteChunk(0, 0, payload(10000, 3))) // 3 sectors, grows: 5,6,7
	require.Equal(t, schema.Location{StartSector: 5, SectorCount: 3}, r.Location(0, 0))

	size := fileSize(t, path)

	require.NoError(t, r.WriteChunk(2, 0, payload(5000, 4)))
	require.Equal(t, schema.Location{StartSector: 2, SectorCount: 2}, r.Location(2, 0))
	require.Equal(t, size, fileSize(t, path))
}

func TestDeleteKeepsSpaceUntilReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")

	r := openTestRegion(t, path)
	require.NoError(t, r.WriteChunk(0, 0, payload(5000, 1))) // sectors 2,3
	require.NoError(t, r.WriteChunk(1, 0, payload(100, 2)))  // sector 4

	require.NoError(t, r.DeleteChunk(0, 0))
	require.False(t, r.HasChunk(0, 0))
	require.Equal(t, int32(0), r.Timestamp(0, 0))
	require.Equal(t, 0, r.FreeSectors(), "delete doesn't release sectors")

	size := fileSize(t, path)
	require.Equal(t, int64(5*schema.SectorBytes), size)
	require.NoError(t, r.Close())

	reopened := openTestRegion(t, path)
	require.Equal(t, 2, reopened.FreeSectors())

	require.NoError(t, reopened.WriteChunk(7, 7, payload(6000, 3)))
	require.Equal(t, schema.Location{StartSector: 2, SectorCount: 2}, reopened.Location(7, 7))
	require.Equal(t, size, fileSize(t, path))
}

func TestDeletePersistsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")

	r := openTestRegion(t, path)
	require.NoError(t, r.WriteChunk(3, 4, payload(100, 1)))
	require.NoError(t, r.WriteChunk(4, 3, payload(100, 2)))
	require.NoError(t, r.DeleteChunk(3, 4))
	require.NoError(t, r.Close())

	reopened := openTestRegion(t, path)
	require.False(t, reopened.HasChunk(3, 4))
	require.True(t, reopened.HasChunk(4, 3))
	require.Equal(t, int32(fixedNow.Unix()), reopened.Timestamp(4, 3))
}

func TestReadChunkErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")

	hugeLength := make([]byte, 8)
	binary.BigEndian.PutUint32(hugeLength, uint32(2*schema.SectorBytes))
	hugeLength[4] = byte(schema.DeflateCompression)

	zeroLength := make([]byte, 8)

	writeRawRegion(t, path, 8, map[int]schema.Location{
		0: {StartSector: 2, SectorCount: 1},
		1: {StartSector: 3, SectorCount: 1},
		2: {StartSector: 4, SectorCount: 1},
		3: {StartSector: 5, SectorCount: 1},
		4: {StartSector: 6, SectorCount: 1},
		5: {StartSector: 7, SectorCount: 1},
	}, map[int][]byte{
		2: hugeLength,
		3: zeroLength,
		4: rawBlob(schema.CompressionType(9), []byte{1, 2, 3}),
		5: rawBlob(schema.DeflateCompression|schema.ExternalFlag, nil),
		6: rawBlob(schema.DeflateCompression, []byte("definitely not zlib")),
		7: rawBlob(schema.GzipCompression, []byte("not gzip either")),
	})

	r := openTestRegion(t, path)

	_, missingErr := r.ReadChunk(10, 10)
	require.ErrorIs(t, missingErr, ErrNotFound)

	_, lengthErr := r.ReadChunk(0, 0)
	require.ErrorIs(t, lengthErr, ErrInvalidLength)

	_, zeroErr := r.ReadChunk(1, 0)
	require.ErrorIs(t, zeroErr, ErrInvalidLength)

	_, versionErr := r.ReadChunk(2, 0)
	require.ErrorIs(t, versionErr, ErrUnknownCompressionVersion)

	_, externalErr := r.ReadChunk(3, 0)
	require.ErrorIs(t, externalErr, ErrExternalChunk)

	// a broken zlib stream fails when it is opened or read, never with a header error
	stream, zlibErr := r.ReadChunk(4, 0)
	if zlibErr == nil {
		_, zlibErr = io.ReadAll(stream)
	}
	require.Error(t, zlibErr)

	_, gzipErr := r.ReadChunk(5, 0)
	require.Error(t, gzipErr)
}

func TestSecondOpenIsRejectedWhileLocked(t *testing.T) {
	_, path := newTestRegion(t)

	second, openErr := Open(path)
	if openErr == nil {
		second.Close()
		t.Skip("advisory locks are not available on this platform")
	}

	require.Error(t, openErr)
}

func TestReadChunkRejectsExtendedVersionsByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")

	writeRawRegion(t, path, 4, map[int]schema.Location{
		0: {StartSector: 2, SectorCount: 1},
		1: {StartSector: 3, SectorCount: 1},
	}, map[int][]byte{
		2: rawBlob(schema.NoCompression, []byte("raw")),
		3: rawBlob(schema.Lz4Compression, []byte("LZ4Block")),
	})

	r := openTestRegion(t, path)

	_, rawErr := r.ReadChunk(0, 0)
	require.ErrorIs(t, rawErr, ErrUnknownCompressionVersion)

	_, lz4Err := r.ReadChunk(1, 0)
	require.ErrorIs(t, lz4Err, ErrUnknownCompressionVersion)
}

func TestReadChunkExtendedVersionsWhenEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")

	writeRawRegion(t, path, 3, map[int]schema.Location{
		0: {StartSector: 2, SectorCount: 1},
	}, map[int][]byte{
		2: rawBlob(schema.NoCompression, []byte("raw")),
	})

	r, openErr := OpenWithOptions(path, Options{ExtendedCompression: true})
	require.NoError(t, openErr)
	defer r.Close()

	stream, readErr := r.ReadChunk(0, 0)
	require.NoError(t, readErr)
	content, _ := io.ReadAll(stream)
	require.Equal(t, []byte("raw"), content)

	// versions past 4 stay unknown
	require.False(t, schema.CompressionType(5).KnownExtended())
}

func TestCheckLayoutFindsSharedSectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")

	// the third chunk only overlaps the first, long one
	writeRawRegion(t, path, 14, map[int]schema.Location{
		0: {StartSector: 2, SectorCount: 10},
		1: {StartSector: 3, SectorCount: 1},
		2: {StartSector: 5, SectorCount: 1},
	}, nil)

	r := openTestRegion(t, path)
	require.ErrorContains(t, r.CheckLayout(), "share sectors")

	require.NoError(t, r.DeleteChunk(1, 0))
	require.ErrorContains(t, r.CheckLayout(), "share sectors")

	require.NoError(t, r.DeleteChunk(2, 0))
	require.NoError(t, r.CheckLayout())
}

func TestRegionLogsThroughGivenLogger(t *testing.T) {
	var out strings.Builder
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug})).With("run_id", "test-run")

	r, openErr := OpenWithOptions(filepath.Join(t.TempDir(), "r.0.0.mca"), Options{Logger: logger})
	require.NoError(t, openErr)
	defer r.Close()

	require.NoError(t, r.WriteChunk(0, 0, payload(100, 1)))
	require.NoError(t, r.DeleteChunk(0, 0))
	_, compactErr := r.Compact()
	require.NoError(t, compactErr)

	for _, line := range []string{"region load", "region save", "region deleted chunk", "region compacted"} {
		require.Contains(t, out.String(), line)
	}
	require.Contains(t, out.String(), "run_id=test-run")
}
