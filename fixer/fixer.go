package fixer

import (
	"log/slog"

	"github.com/dot5enko/region-fixer/cache"
	"github.com/dot5enko/region-fixer/config"
	"github.com/dot5enko/region-fixer/metrics"
	"github.com/dot5enko/region-fixer/schema"
)

// Fixer repairs region files one at a time. FixRegion may be called from several
// goroutines as long as each one works on a different file.
type Fixer struct {
	cfg     config.Config
	metrics *metrics.Metrics
	logger  *slog.Logger

	// relocation buffers for compaction, one per worker
	buffers *cache.FixedSizeBufferPool
}

func New(cfg config.Config, m *metrics.Metrics, logger *slog.Logger) *Fixer {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Fixer{
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		buffers: cache.NewFixedSizeBufferPool(workers, schema.MaxSectorCount*schema.SectorBytes),
	}
}

type RegionResult struct {
	Path string

	Checked  int
	Kept     int
	Deleted  int
	Replaced int
	// chunks whose delete or replace failed
	Failed int

	Reasons map[Reason]int

	Compacted  bool
	SizeBefore int64
	SizeAfter  int64
}

// Fixed is the number of chunks the policy was applied to.
func (rr RegionResult) Fixed() int {
	return rr.Deleted + rr.Replaced
}

func (rr *RegionResult) count(state ChunkState, reason Reason) {
	switch state {
	case Kept:
		rr.Kept++
	case Deleted:
		rr.Deleted++
	case Replaced:
		rr.Replaced++
	case RepairFailed:
		rr.Failed++
	}

	if reason != NoReason {
		rr.Reasons[reason]++
	}
}
