package fixer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dot5enko/region-fixer/config"
	"github.com/dot5enko/region-fixer/metrics"
	"github.com/dot5enko/region-fixer/util"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Summary struct {
	RunID string

	Regions int
	// regions that could not be processed
	Failed int

	Checked  int
	Deleted  int
	Replaced int

	SizeBefore int64
	SizeAfter  int64

	// per region, in discovery order, failed regions excluded
	Results []RegionResult
}

func (s Summary) Fixed() int {
	return s.Deleted + s.Replaced
}

// Run repairs every region file found in cfg.Dir. Only a bad directory is returned as an error,
// regions that fail are logged and counted. When ctx is cancelled no new region is started,
// the ones in progress are finished.
func Run(ctx context.Context, cfg config.Config, m *metrics.Metrics) (summary Summary, topErr error) {

	if m == nil {
		m = metrics.New()
	}

	summary.RunID = uuid.NewString()
	logger := slog.Default().With("run_id", summary.RunID)

	dir, dirErr := ResolveDir(cfg.Dir)
	if dirErr != nil {
		return summary, dirErr
	}

	paths, discoverErr := DiscoverRegions(dir, cfg.Extension)
	if discoverErr != nil {
		return summary, fmt.Errorf("%w: %s", ErrInvalidDirectory, discoverErr.Error())
	}

	summary.Regions = len(paths)
	logger.Info("repair started", "dir", dir, "regions", len(paths), "policy", string(cfg.Policy), "compact", cfg.Compact, "workers", cfg.Workers)

	fixer := New(cfg, m, logger)

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]*RegionResult, len(paths))
	progressStep := max(1, len(paths)/10)

	var (
		lock sync.Mutex
		done int
	)

	g := errgroup.Group{}
	g.SetLimit(workers)

	for i, path := range paths {
		if ctx.Err() != nil {
			logger.Warn("repair interrupted", "started", i, "regions", len(paths))
			break
		}

		i, path := i, path
		g.Go(func() error {
			res, fixErr := fixer.FixRegion(path)

			lock.Lock()
			defer lock.Unlock()

			if fixErr != nil {
				color.Red("unable to fix %s: %s", path, fixErr.Error())
				logger.Error("region failed", "path", path, "error", fixErr.Error())
				m.RegionsFailed.Inc()
			} else {
				results[i] = &res
			}

			done++
			if done%progressStep == 0 || done == len(paths) {
				logger.Info("progress", "done", done, "regions", len(paths), "percent", done*100/len(paths))
			}

			return nil
		})
	}

	// region failures never reach the group
	_ = g.Wait()

	for _, res := range results {
		if res == nil {
			continue
		}

		summary.Results = append(summary.Results, *res)
		summary.Checked += res.Checked
		summary.Deleted += res.Deleted
		summary.Replaced += res.Replaced
		summary.SizeBefore += res.SizeBefore
		summary.SizeAfter += res.SizeAfter
	}
	summary.Failed = done - len(summary.Results)

	color.Green("fixed %d chunks in %d regions (%d checked, %d failed regions)", summary.Fixed(), len(summary.Results), summary.Checked, summary.Failed)

	if cfg.Compact {
		color.Green("regions compacted from %s to %s (-%s%%)",
			util.ToLogLength(summary.SizeBefore),
			util.ToLogLength(summary.SizeAfter),
			util.ToLogPercent(summary.SizeAfter, summary.SizeBefore),
		)
	}

	if cfg.MetricsFile != "" {
		writeErr := m.WriteTextfile(cfg.MetricsFile)
		if writeErr != nil {
			logger.Error("metrics not written", "error", writeErr.Error())
		}
	}

	if ctx.Err() != nil {
		return summary, fmt.Errorf("repair interrupted: %w", ctx.Err())
	}

	return summary, nil
}
