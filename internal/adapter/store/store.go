// Package store defines access to gridded ocean-current datasets.
package store

import (
	"errors"
	"math"

	"go.ngs.io/currents-tiles/internal/domain"
)

// ErrVariableNotFound is returned when a required dataset variable is absent.
var ErrVariableNotFound = errors.New("variable not found")

// VelocityReader reads a (time, depth, lat, lon) velocity dataset one 2-D
// slice at a time.
type VelocityReader interface {
	// Axes returns the coordinate axes of the dataset.
	Axes() domain.Axes

	// ReadSlice reads the u/v layer at the given time and depth indices.
	ReadSlice(timeIdx, depthIdx int) (*domain.VelocitySlice, error)

	// Close releases the dataset handle.
	Close() error
}

// VarNames defines the expected variable names in a dataset.
type VarNames struct {
	Latitude  string // E.g., "latitude", "lat".
	Longitude string // E.g., "longitude", "lon".
	Depth     string // E.g., "depth".
	Time      string // E.g., "time".
	U         string // Eastward velocity, e.g., "uo".
	V         string // Northward velocity, e.g., "vo".
}

// DefaultVarNames returns the Copernicus Marine variable names.
func DefaultVarNames() VarNames {
	return VarNames{
		Latitude:  "latitude",
		Longitude: "longitude",
		Depth:     "depth",
		Time:      "time",
		U:         "uo",
		V:         "vo",
	}
}

// Candidates returns the names to try for each axis, configured name first.
func (n VarNames) Candidates() (lat, lon, depth, tm []string) {
	lat = dedupe(n.Latitude, "latitude", "lat", "y")
	lon = dedupe(n.Longitude, "longitude", "lon", "x")
	depth = dedupe(n.Depth, "depth", "lev", "z")
	tm = dedupe(n.Time, "time", "t")
	return lat, lon, depth, tm
}

func dedupe(names ...string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Packing holds the CF packing and missing-value attributes of a variable.
type Packing struct {
	Scale        float64
	Offset       float64
	FillValue    float64
	HasFill      bool
	MissingValue float64
	HasMissing   bool
}

// NoPacking is the identity packing.
func NoPacking() Packing {
	return Packing{Scale: 1}
}

// Unpack converts a stored value to a physical value.
// Fill and missing values become NaN.
func (p Packing) Unpack(raw float64) float64 {
	if (p.HasFill && raw == p.FillValue) || (p.HasMissing && raw == p.MissingValue) {
		return math.NaN()
	}
	return raw*p.Scale + p.Offset
}

// UnpackRows unpacks a flat row-major buffer in place and splits it into
// rows × cols.
func (p Packing) UnpackRows(flat []float64, rows, cols int) [][]float64 {
	values := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := flat[i*cols : (i+1)*cols]
		for j := range row {
			row[j] = p.Unpack(row[j])
		}
		values[i] = row
	}
	return values
}
