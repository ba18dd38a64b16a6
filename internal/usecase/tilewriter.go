package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/paulmach/orb/geojson"

	"go.ngs.io/currents-tiles/internal/adapter/sink"
)

const (
	// DefaultExtension is the file extension of tiles.
	DefaultExtension = "geojson"

	// DepthsIndex lists the rounded depths of a run.
	DepthsIndex = "depths.json"
	// TimesIndex lists the time labels of a run.
	TimesIndex = "times.json"

	geoJSONContentType = "application/geo+json"
	jsonContentType    = "application/json"
)

// TileKey returns the object key of the tile for a time and depth label.
func TileKey(timeLabel, depthLabel, ext string) string {
	return path.Join(timeLabel, depthLabel+"."+ext)
}

// TileWriter encodes feature collections and index files into a sink.
type TileWriter struct {
	sink   sink.Sink
	pretty bool
	ext    string
}

// NewTileWriter creates a tile writer. An empty ext uses DefaultExtension.
func NewTileWriter(s sink.Sink, pretty bool, ext string) *TileWriter {
	if ext == "" {
		ext = DefaultExtension
	}
	return &TileWriter{sink: s, pretty: pretty, ext: ext}
}

// WriteTile stores the features as one FeatureCollection. Nothing is written
// for an empty feature list, and written reports whether a tile was stored.
func (w *TileWriter) WriteTile(ctx context.Context, timeLabel, depthLabel string, features []*geojson.Feature) (written bool, err error) {
	if len(features) == 0 {
		return false, nil
	}

	fc := geojson.NewFeatureCollection()
	fc.Features = features
	data, err := fc.MarshalJSON()
	if err != nil {
		return false, fmt.Errorf("failed to encode tile %s/%s: %w", timeLabel, depthLabel, err)
	}
	if data, err = w.format(data); err != nil {
		return false, err
	}

	key := TileKey(timeLabel, depthLabel, w.ext)
	if err := w.sink.Put(ctx, key, data, geoJSONContentType); err != nil {
		return false, fmt.Errorf("failed to write tile %s: %w", key, err)
	}
	return true, nil
}

// WriteIndex stores depths.json and times.json.
func (w *TileWriter) WriteIndex(ctx context.Context, depths []float64, times []string) error {
	if depths == nil {
		depths = []float64{}
	}
	if times == nil {
		times = []string{}
	}

	for _, idx := range []struct {
		key   string
		value any
	}{
		{DepthsIndex, depths},
		{TimesIndex, times},
	} {
		data, err := json.Marshal(idx.value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", idx.key, err)
		}
		if data, err = w.format(data); err != nil {
			return err
		}
		if err := w.sink.Put(ctx, idx.key, data, jsonContentType); err != nil {
			return fmt.Errorf("failed to write %s: %w", idx.key, err)
		}
	}
	return nil
}

func (w *TileWriter) format(data []byte) ([]byte, error) {
	if !w.pretty {
		return data, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent JSON: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
