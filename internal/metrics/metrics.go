package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TilesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "currents_tiles_written_total",
			Help: "Total tiles written to the output root",
		},
	)

	TileWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "currents_tile_write_failures_total",
			Help: "Total tiles that could not be written",
		},
	)

	EmptySlices = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "currents_empty_slices_total",
			Help: "Total (time, depth) slices that produced no features",
		},
	)

	FeaturesEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "currents_features_emitted_total",
			Help: "Total GeoJSON features emitted",
		},
	)

	CellsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "currents_cells_dropped_total",
			Help: "Total grid cells dropped, by reason",
		},
		[]string{"reason"},
	)

	SliceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "currents_slice_duration_seconds",
			Help:    "Time to read, convert and write one (time, depth) slice",
			Buckets: prometheus.DefBuckets,
		},
	)

	TileRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "currents_tile_requests_total",
			Help: "Total tile server requests",
		},
		[]string{"endpoint", "status"},
	)
)

// WriteTextfile dumps the default registry to path in the node-exporter
// textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
