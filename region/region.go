package region

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/dot5enko/region-fixer/bits"
	"github.com/dot5enko/region-fixer/cache"
	diskio "github.com/dot5enko/region-fixer/io"
	"github.com/dot5enko/region-fixer/schema"
)

type Options struct {
	// buffers used to relocate blobs while compacting, allocated per call when nil
	Buffers *cache.FixedSizeBufferPool

	// accept uncompressed (3) and lz4 (4) chunks, off by default
	ExtendedCompression bool

	Logger *slog.Logger
	Now    func() time.Time
}

// Region is an opened region file. All methods are serialized by one mutex,
// the location table and the sector bitmap are only consistent together.
type Region struct {
	file     *diskio.FileReader
	headerIO diskio.HeaderReader

	header     schema.RegionHeader
	sectorUsed *bits.SectorBitmap

	// bytes the file has grown since the last SizeDelta call
	sizeDelta int64

	buffers  *cache.FixedSizeBufferPool
	extended bool
	logger   *slog.Logger
	now      func() time.Time

	lock sync.Mutex
}

func Open(path string) (*Region, error) {
	return OpenWithOptions(path, Options{})
}

func OpenWithOptions(path string, opts Options) (*Region, error) {

	r := &Region{
		file:     diskio.NewFileReader(path),
		buffers:  opts.Buffers,
		extended: opts.ExtendedCompression,
		logger:   opts.Logger,
		now:      opts.Now,
	}

	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	r.logger.Debug("region load", "path", path)

	openErr := r.file.OpenExclusive()
	if openErr != nil {
		return nil, fmt.Errorf("unable to open region %s: %s", path, openErr.Error())
	}

	indexErr := r.recreateIndexes()
	if indexErr != nil {
		r.file.Close()
		return nil, fmt.Errorf("unable to index region %s: %s", path, indexErr.Error())
	}

	return r, nil
}

func (r *Region) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.file.Close()
}

func (r *Region) Path() string {
	return r.file.Path()
}

func (r *Region) Name() string {
	return filepath.Base(r.file.Path())
}

// LastModified is the modification time of the file before it was opened.
func (r *Region) LastModified() time.Time {
	return r.file.LastModified()
}

func (r *Region) HasChunk(x, z int) bool {
	if schema.OutOfBounds(x, z) {
		return false
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	return !r.header.Locations[schema.SlotIndex(x, z)].IsEmpty()
}

func (r *Region) Location(x, z int) schema.Location {
	if schema.OutOfBounds(x, z) {
		return schema.Location{}
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	return r.header.Locations[schema.SlotIndex(x, z)]
}

func (r *Region) Timestamp(x, z int) int32 {
	if schema.OutOfBounds(x, z) {
		return 0
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	return r.header.Timestamps[schema.SlotIndex(x, z)]
}

func (r *Region) ChunkCount() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	count := 0
	for _, loc := range r.header.Locations {
		if !loc.IsEmpty() {
			count++
		}
	}
	return count
}

func (r *Region) SectorCount() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.sectorUsed.Len()
}

func (r *Region) FreeSectors() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.sectorUsed.Free()
}

func (r *Region) Size() (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.file.Size()
}

// SizeDelta returns how much the file has grown since the previous call.
func (r *Region) SizeDelta() int64 {
	r.lock.Lock()
	defer r.lock.Unlock()

	delta := r.sizeDelta
	r.sizeDelta = 0
	return delta
}

func (r *Region) setLocation(idx int, loc schema.Location) error {
	r.header.Locations[idx] = loc

	writeErr := r.headerIO.WriteEntry(r.file, schema.LocationOffset(idx), loc.Uint32())
	if writeErr != nil {
		return fmt.Errorf("unable to write location of slot %d: %s", idx, writeErr.Error())
	}
	return nil
}

func (r *Region) setTimestamp(idx int, ts int32) error {
	r.header.Timestamps[idx] = ts

	writeErr := r.headerIO.WriteEntry(r.file, schema.TimestampOffset(idx), uint32(ts))
	if writeErr != nil {
		return fmt.Errorf("unable to write timestamp of slot %d: %s", idx, writeErr.Error())
	}
	return nil
}
