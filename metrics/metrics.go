package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics of one repair run. Each run owns its registry so the textfile only carries this run.
type Metrics struct {
	registry *prometheus.Registry

	RegionsProcessed prometheus.Counter
	RegionsFailed    prometheus.Counter
	ChunksChecked    prometheus.Counter
	// labeled by action (deleted, replaced, failed) and reason
	ChunksRepaired *prometheus.CounterVec
	BytesReclaimed prometheus.Counter
	RegionDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RegionsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regionfix_regions_processed_total",
			Help: "Total number of region files repaired",
		}),
		RegionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regionfix_regions_failed_total",
			Help: "Total number of region files that could not be processed",
		}),
		ChunksChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regionfix_chunks_checked_total",
			Help: "Total number of allocated chunks inspected",
		}),
		ChunksRepaired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regionfix_chunks_repaired_total",
			Help: "Chunks that failed a check, by applied action and failure reason",
		}, []string{"action", "reason"}),
		BytesReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regionfix_bytes_reclaimed_total",
			Help: "Bytes removed from region files by compaction",
		}),
		RegionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "regionfix_region_duration_seconds",
			Help:    "Time spent repairing one region file",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.RegionsProcessed,
		m.RegionsFailed,
		m.ChunksChecked,
		m.ChunksRepaired,
		m.BytesReclaimed,
		m.RegionDuration,
	)

	return m
}

func (m *Metrics) ObserveRepair(action, reason string) {
	m.ChunksRepaired.WithLabelValues(action, reason).Inc()
}

func (m *Metrics) ObserveRegion(checked int, reclaimed int64, elapsed time.Duration) {
	m.RegionsProcessed.Inc()
	m.ChunksChecked.Add(float64(checked))
	if reclaimed > 0 {
		m.BytesReclaimed.Add(float64(reclaimed))
	}
	m.RegionDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the current values in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	writeErr := prometheus.WriteToTextfile(path, m.registry)
	if writeErr != nil {
		return fmt.Errorf("unable to write metrics to %s: %s", path, writeErr.Error())
	}
	return nil
}
