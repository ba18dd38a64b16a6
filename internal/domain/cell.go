package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// WebMercatorMaxLatitude is the latitude limit of the web mercator projection.
const WebMercatorMaxLatitude = 85.05112878

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Velocity is the eastward (U) and northward (V) current at a grid sample, in m/s.
type Velocity struct {
	U float64
	V float64
}

// Missing reports whether either component is NaN (land or no data).
func (v Velocity) Missing() bool {
	return math.IsNaN(v.U) || math.IsNaN(v.V)
}

// Speed returns sqrt(u² + v²).
func (v Velocity) Speed() float64 {
	return math.Sqrt(v.U*v.U + v.V*v.V)
}

// Direction returns the bearing the current flows towards, in [0, 360):
// (deg(atan2(u, v)) + 360) mod 360, so 0° is north and 90° is east.
// The argument order of atan2 is part of the published tile format.
func (v Velocity) Direction() float64 {
	return math.Mod(Rad2Deg(math.Atan2(v.U, v.V))+360, 360)
}

// Footprint returns the rectangle a grid sample at (lat, lon) stands for.
// Min is the south-west corner, Max the north-east corner.
func Footprint(lat, lon, halfLat, halfLon float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{lon - halfLon, lat - halfLat},
		Max: orb.Point{lon + halfLon, lat + halfLat},
	}
}

// FootprintRing returns the closed ring of a footprint:
// bottom-left, bottom-right, top-right, top-left, bottom-left.
func FootprintRing(b orb.Bound) orb.Ring {
	return orb.Ring{
		{b.Min[0], b.Min[1]},
		{b.Max[0], b.Min[1]},
		{b.Max[0], b.Max[1]},
		{b.Min[0], b.Max[1]},
		{b.Min[0], b.Min[1]},
	}
}

// Extent is a rectangular product coverage area in degrees.
type Extent struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Validate checks that the extent is a non-empty rectangle on the globe.
func (e Extent) Validate() error {
	if e.LatMin >= e.LatMax {
		return fmt.Errorf("extent latitude min %.4f must be < max %.4f", e.LatMin, e.LatMax)
	}
	if e.LonMin >= e.LonMax {
		return fmt.Errorf("extent longitude min %.4f must be < max %.4f", e.LonMin, e.LonMax)
	}
	if e.LatMin < -90 || e.LatMax > 90 {
		return fmt.Errorf("extent latitudes must be between -90 and 90")
	}
	return nil
}

// Bound returns the extent as an orb.Bound.
func (e Extent) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{e.LonMin, e.LatMin},
		Max: orb.Point{e.LonMax, e.LatMax},
	}
}

// ContainsFootprint reports whether all four corners of a footprint lie
// within the extent (bounds inclusive). A rectangle is convex, so checking the
// south-west and north-east corners covers the other two.
func (e Extent) ContainsFootprint(fp orb.Bound) bool {
	b := e.Bound()
	return b.Contains(fp.Min) && b.Contains(fp.Max)
}

// DropReason tells why a cell produced no feature.
type DropReason int

const (
	// Keep means the cell is emitted.
	Keep DropReason = iota
	// DropMissing means u or v is NaN.
	DropMissing
	// DropExtent means the footprint leaves the product extent.
	DropExtent
	// DropSafeBand means the footprint leaves the safe latitude band.
	DropSafeBand
)

func (r DropReason) String() string {
	switch r {
	case Keep:
		return "keep"
	case DropMissing:
		return "nan"
	case DropExtent:
		return "extent"
	case DropSafeBand:
		return "safe_band"
	default:
		return fmt.Sprintf("DropReason(%d)", int(r))
	}
}

// CellFilter holds the optional spatial rules applied to every cell.
type CellFilter struct {
	Extent       *Extent // Nil disables the extent rule.
	SafeLatitude float64 // Absolute latitude limit; 0 disables the band rule.
}

// Check applies the cell rules in order: missing data, extent, safe band.
func (f CellFilter) Check(vel Velocity, fp orb.Bound) DropReason {
	if vel.Missing() {
		return DropMissing
	}
	if f.Extent != nil && !f.Extent.ContainsFootprint(fp) {
		return DropExtent
	}
	if f.SafeLatitude > 0 && (math.Abs(fp.Min[1]) > f.SafeLatitude || math.Abs(fp.Max[1]) > f.SafeLatitude) {
		return DropSafeBand
	}
	return Keep
}
