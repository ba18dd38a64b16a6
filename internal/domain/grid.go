// Package domain holds the grid, label and cell rules used to turn ocean
// current fields into map tiles.
package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Axes holds the coordinate axes of a velocity dataset.
// Velocity arrays are indexed (time, depth, lat, lon).
type Axes struct {
	Latitude  []float64
	Longitude []float64
	Depth     []float64
	Time      []float64
	TimeUnits string // CF units of the time axis (e.g., "hours since 1950-01-01").
}

// Validate checks that every axis has at least one sample.
func (a Axes) Validate() error {
	switch {
	case len(a.Latitude) == 0:
		return fmt.Errorf("latitude axis is empty")
	case len(a.Longitude) == 0:
		return fmt.Errorf("longitude axis is empty")
	case len(a.Depth) == 0:
		return fmt.Errorf("depth axis is empty")
	case len(a.Time) == 0:
		return fmt.Errorf("time axis is empty")
	}
	return nil
}

// SliceCount returns the number of (time, depth) slices in the dataset.
func (a Axes) SliceCount() int {
	return len(a.Time) * len(a.Depth)
}

// VelocitySlice is one (lat × lon) layer of eastward and northward velocity.
// U[i][j] and V[i][j] correspond to (Latitude[i], Longitude[j]).
type VelocitySlice struct {
	U [][]float64
	V [][]float64
}

// Validate checks that the slice matches the given axes.
func (s *VelocitySlice) Validate(nLat, nLon int) error {
	if len(s.U) != nLat || len(s.V) != nLat {
		return fmt.Errorf("slice has %d/%d rows, expected %d", len(s.U), len(s.V), nLat)
	}
	for i := range s.U {
		if len(s.U[i]) != nLon || len(s.V[i]) != nLon {
			return fmt.Errorf("row %d has %d/%d values, expected %d", i, len(s.U[i]), len(s.V[i]), nLon)
		}
	}
	return nil
}

// MeanSpacing returns the arithmetic mean of successive differences along an axis.
// Axes with fewer than two samples have no spacing and return 0.
func MeanSpacing(axis []float64) float64 {
	if len(axis) < 2 {
		return 0
	}
	diffs := make([]float64, len(axis)-1)
	copy(diffs, axis[1:])
	floats.Sub(diffs, axis[:len(axis)-1])
	return stat.Mean(diffs, nil)
}

// HalfWidths returns the cell half-widths (in degrees) derived from the mean
// latitude and longitude spacing. Axes are assumed uniform; a non-uniform axis
// yields an approximate cell size. Descending axes give the same half-width as
// ascending ones.
func HalfWidths(lats, lons []float64) (halfLat, halfLon float64) {
	return math.Abs(MeanSpacing(lats)) / 2, math.Abs(MeanSpacing(lons)) / 2
}
