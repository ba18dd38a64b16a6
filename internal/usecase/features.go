package usecase

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"go.ngs.io/currents-tiles/internal/domain"
)

// Geometry selects how a grid cell is drawn.
type Geometry int

const (
	// GeometryPoint draws each cell as its centre point.
	GeometryPoint Geometry = iota
	// GeometryPolygon draws each cell as its rectangular footprint.
	GeometryPolygon
)

func (g Geometry) String() string {
	if g == GeometryPolygon {
		return "polygon"
	}
	return "point"
}

// ParseGeometry parses "point" or "polygon".
func ParseGeometry(name string) (Geometry, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "point", "points":
		return GeometryPoint, nil
	case "polygon", "polygons", "cell", "cells":
		return GeometryPolygon, nil
	default:
		return 0, fmt.Errorf("unknown geometry %q (use point or polygon)", name)
	}
}

// CellStats counts emitted and dropped cells.
type CellStats struct {
	Kept          int `json:"kept"`
	Missing       int `json:"missing"`
	OutsideExtent int `json:"outside_extent"`
	OutsideBand   int `json:"outside_band"`
}

// Add records one cell outcome.
func (s *CellStats) Add(r domain.DropReason) {
	switch r {
	case domain.Keep:
		s.Kept++
	case domain.DropMissing:
		s.Missing++
	case domain.DropExtent:
		s.OutsideExtent++
	case domain.DropSafeBand:
		s.OutsideBand++
	}
}

// Merge adds other into s.
func (s *CellStats) Merge(other CellStats) {
	s.Kept += other.Kept
	s.Missing += other.Missing
	s.OutsideExtent += other.OutsideExtent
	s.OutsideBand += other.OutsideBand
}

// Dropped returns the number of cells that produced no feature.
func (s CellStats) Dropped() int {
	return s.Missing + s.OutsideExtent + s.OutsideBand
}

// FeatureOptions configures BuildFeatures.
type FeatureOptions struct {
	Geometry Geometry
	Filter   domain.CellFilter
	HalfLat  float64
	HalfLon  float64
}

// BuildFeatures turns one velocity slice into GeoJSON features, scanning rows
// (latitude) in the outer loop and columns (longitude) in the inner loop.
// depth is the rounded depth and timeLabel the rendered time of the slice.
func BuildFeatures(lats, lons []float64, slice *domain.VelocitySlice, depth float64, timeLabel string, opts FeatureOptions) ([]*geojson.Feature, CellStats) {
	var stats CellStats
	features := make([]*geojson.Feature, 0)

	for i, lat := range lats {
		for j, lon := range lons {
			vel := domain.Velocity{U: slice.U[i][j], V: slice.V[i][j]}
			fp := domain.Footprint(lat, lon, opts.HalfLat, opts.HalfLon)

			reason := opts.Filter.Check(vel, fp)
			stats.Add(reason)
			if reason != domain.Keep {
				continue
			}

			var geom orb.Geometry = orb.Point{lon, lat}
			if opts.Geometry == GeometryPolygon {
				geom = orb.Polygon{domain.FootprintRing(fp)}
			}

			f := geojson.NewFeature(geom)
			f.Properties = cellProperties(vel, depth, timeLabel)
			features = append(features, f)
		}
	}

	return features, stats
}

func cellProperties(vel domain.Velocity, depth float64, timeLabel string) geojson.Properties {
	direction := domain.RoundTo(vel.Direction(), 2)
	if direction >= 360 {
		direction = 0
	}
	return geojson.Properties{
		"uo":        domain.RoundTo(vel.U, 4),
		"vo":        domain.RoundTo(vel.V, 4),
		"speed":     domain.RoundTo(vel.Speed(), 4),
		"direction": direction,
		"depth":     depth,
		"time":      timeLabel,
	}
}
