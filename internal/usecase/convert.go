package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"go.ngs.io/currents-tiles/internal/adapter/sink"
	"go.ngs.io/currents-tiles/internal/adapter/store"
	"go.ngs.io/currents-tiles/internal/domain"
	"go.ngs.io/currents-tiles/internal/metrics"
)

// SurfaceDepth selects the shallowest depth layer.
const SurfaceDepth = "surface"

// ConvertRequest encapsulates one tiling run.
type ConvertRequest struct {
	Geometry  Geometry
	TimeStyle domain.TimeStyle
	Pretty    bool

	// Optional cell rules.
	Extent       *domain.Extent
	SafeLatitude float64 // 0 disables the band.

	// Depth restricts the run to one layer: a depth label ("0.49"), a depth
	// value that rounds to one, or SurfaceDepth. Empty means every depth.
	Depth string

	Extension string // Defaults to DefaultExtension.
}

// ConvertSummary reports the outcome of a run.
type ConvertSummary struct {
	Times        int           `json:"times"`
	Depths       int           `json:"depths"`
	TilesWritten int           `json:"tiles_written"`
	EmptySlices  int           `json:"empty_slices"`
	Features     int           `json:"features"`
	Cells        CellStats     `json:"cells"`
	Failures     int           `json:"failures"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Validate checks the parts of the request that do not depend on the dataset.
func (r *ConvertRequest) Validate() error {
	if r.Geometry != GeometryPoint && r.Geometry != GeometryPolygon {
		return fmt.Errorf("unknown geometry %d", int(r.Geometry))
	}
	if r.TimeStyle != domain.TimeStyleExtended && r.TimeStyle != domain.TimeStyleCompact {
		return fmt.Errorf("unknown time style %d", int(r.TimeStyle))
	}
	if r.Extent != nil {
		if err := r.Extent.Validate(); err != nil {
			return fmt.Errorf("invalid extent: %w", err)
		}
	}
	if r.SafeLatitude < 0 || r.SafeLatitude > 90 || math.IsNaN(r.SafeLatitude) {
		return fmt.Errorf("safe latitude must be between 0 and 90, got %v", r.SafeLatitude)
	}
	if r.Extension != "" && (strings.ContainsAny(r.Extension, `/\.`) || strings.TrimSpace(r.Extension) != r.Extension) {
		return fmt.Errorf("invalid tile extension %q", r.Extension)
	}
	return nil
}

// ConvertUseCase turns a velocity dataset into tiles.
type ConvertUseCase struct {
	reader store.VelocityReader
	sink   sink.Sink
	logger *slog.Logger
}

// NewConvertUseCase creates a new conversion use case. A nil logger discards output.
func NewConvertUseCase(reader store.VelocityReader, s sink.Sink, logger *slog.Logger) *ConvertUseCase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ConvertUseCase{reader: reader, sink: s, logger: logger}
}

// plan is a validated request resolved against the dataset axes.
type plan struct {
	axes       domain.Axes
	depthIdx   []int
	depths     []float64
	depthLabel []string
	timeLabels []string
	features   FeatureOptions
}

func (uc *ConvertUseCase) plan(req ConvertRequest) (*plan, error) {
	axes := uc.reader.Axes()
	if err := axes.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	halfLat, halfLon := domain.HalfWidths(axes.Latitude, axes.Longitude)
	if req.Geometry == GeometryPolygon && (halfLat == 0 || halfLon == 0) {
		return nil, fmt.Errorf("polygon geometry needs at least two distinct latitudes and longitudes (cell size %.6f x %.6f)", 2*halfLat, 2*halfLon)
	}

	rounded, labels := domain.DepthLabels(axes.Depth)
	idx, err := selectDepths(rounded, labels, req.Depth)
	if err != nil {
		return nil, err
	}

	timeLabels := domain.TimeLabels(axes.Time, axes.TimeUnits, req.TimeStyle)
	seen := make(map[string]int, len(timeLabels))
	for i, l := range timeLabels {
		if prev, ok := seen[l]; ok {
			return nil, fmt.Errorf("time steps %d and %d share the label %q", prev, i, l)
		}
		seen[l] = i
	}

	p := &plan{
		axes:       axes,
		depthIdx:   idx,
		timeLabels: timeLabels,
		features: FeatureOptions{
			Geometry: req.Geometry,
			Filter:   domain.CellFilter{Extent: req.Extent, SafeLatitude: req.SafeLatitude},
			HalfLat:  halfLat,
			HalfLon:  halfLon,
		},
	}
	for _, k := range idx {
		p.depths = append(p.depths, rounded[k])
		p.depthLabel = append(p.depthLabel, labels[k])
	}
	return p, nil
}

// selectDepths returns the depth indices a run processes.
func selectDepths(rounded []float64, labels []string, want string) ([]int, error) {
	want = strings.TrimSpace(want)
	if want == "" {
		idx := make([]int, len(rounded))
		for k := range idx {
			idx[k] = k
		}
		return idx, nil
	}

	if strings.EqualFold(want, SurfaceDepth) {
		best := 0
		for k, d := range rounded {
			if math.Abs(d) < math.Abs(rounded[best]) {
				best = k
			}
		}
		return []int{best}, nil
	}

	for k, l := range labels {
		if l == want {
			return []int{k}, nil
		}
	}
	if v, err := strconv.ParseFloat(want, 64); err == nil {
		for k, d := range rounded {
			if d == domain.RoundDepth(v) {
				return []int{k}, nil
			}
		}
	}
	return nil, fmt.Errorf("depth %q not found (available: %s)", want, strings.Join(labels, ", "))
}

// Execute runs the conversion. The index files are written first; then every
// (time, depth) slice is read, converted and written in order. A failed read
// aborts the run. Failed tile writes are logged and returned together once
// the loop has finished.
func (uc *ConvertUseCase) Execute(ctx context.Context, req ConvertRequest) (*ConvertSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	p, err := uc.plan(req)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	writer := NewTileWriter(uc.sink, req.Pretty, req.Extension)
	if err := writer.WriteIndex(ctx, p.depths, p.timeLabels); err != nil {
		return nil, err
	}

	summary := &ConvertSummary{Times: len(p.timeLabels), Depths: len(p.depthIdx)}
	start := time.Now()
	total := len(p.timeLabels) * len(p.depthIdx)
	done := 0
	var writeErrs []error

	uc.logger.Info("conversion started",
		"output", uc.sink.Location(),
		"times", summary.Times,
		"depths", summary.Depths,
		"geometry", req.Geometry.String(),
		"cell_lat", 2*p.features.HalfLat,
		"cell_lon", 2*p.features.HalfLon,
	)

	for t, timeLabel := range p.timeLabels {
		for n, k := range p.depthIdx {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			sliceStart := time.Now()

			slice, err := uc.reader.ReadSlice(t, k)
			if err != nil {
				return summary, fmt.Errorf("failed to read slice time=%s depth=%s: %w", timeLabel, p.depthLabel[n], err)
			}
			if err := slice.Validate(len(p.axes.Latitude), len(p.axes.Longitude)); err != nil {
				return summary, fmt.Errorf("invalid slice time=%s depth=%s: %w", timeLabel, p.depthLabel[n], err)
			}

			features, stats := BuildFeatures(p.axes.Latitude, p.axes.Longitude, slice, p.depths[n], timeLabel, p.features)
			summary.Cells.Merge(stats)
			summary.Features += len(features)
			recordCells(stats)

			written, err := writer.WriteTile(ctx, timeLabel, p.depthLabel[n], features)
			switch {
			case err != nil:
				summary.Failures++
				metrics.TileWriteFailures.Inc()
				uc.logger.Error("tile write failed", "time", timeLabel, "depth", p.depthLabel[n], "err", err)
				writeErrs = append(writeErrs, err)
			case written:
				summary.TilesWritten++
				metrics.TilesWritten.Inc()
			default:
				summary.EmptySlices++
				metrics.EmptySlices.Inc()
				uc.logger.Debug("empty slice", "time", timeLabel, "depth", p.depthLabel[n])
			}
			metrics.SliceDuration.Observe(time.Since(sliceStart).Seconds())
			done++
		}

		uc.logger.Info("progress",
			"time", timeLabel,
			"done", fmt.Sprintf("%.2f%%", 100*float64(done)/float64(total)),
			"in", time.Since(start).Round(time.Millisecond),
		)
	}

	summary.Elapsed = time.Since(start)
	uc.logger.Info("conversion finished",
		"tiles", summary.TilesWritten,
		"empty", summary.EmptySlices,
		"features", summary.Features,
		"dropped", summary.Cells.Dropped(),
		"failures", summary.Failures,
		"elapsed", summary.Elapsed.Round(time.Millisecond),
	)

	if len(writeErrs) > 0 {
		return summary, fmt.Errorf("%d of %d tiles failed: %w", len(writeErrs), total, errors.Join(writeErrs...))
	}
	return summary, nil
}

func recordCells(stats CellStats) {
	metrics.FeaturesEmitted.Add(float64(stats.Kept))
	metrics.CellsDropped.WithLabelValues(domain.DropMissing.String()).Add(float64(stats.Missing))
	metrics.CellsDropped.WithLabelValues(domain.DropExtent.String()).Add(float64(stats.OutsideExtent))
	metrics.CellsDropped.WithLabelValues(domain.DropSafeBand.String()).Add(float64(stats.OutsideBand))
}
