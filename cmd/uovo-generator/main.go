// Package main generates synthetic uo/vo NetCDF datasets for local development.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.ngs.io/currents-tiles/internal/adapter/store/cdf"
	"go.ngs.io/currents-tiles/internal/domain"
)

const fillValue = -32767

// RegionalGrid defines the geographic bounds and resolution
type RegionalGrid struct {
	LatMin     float64
	LatMax     float64
	LonMin     float64
	LonMax     float64
	Resolution float64 // degrees
}

// Points returns the number of latitude and longitude samples.
func (g RegionalGrid) Points() (nLat, nLon int) {
	return int(math.Round((g.LatMax-g.LatMin)/g.Resolution)) + 1,
		int(math.Round((g.LonMax-g.LonMin)/g.Resolution)) + 1
}

// Pattern controls the synthetic current field.
type Pattern struct {
	Speed       float64       // Peak surface speed in m/s.
	Period      time.Duration // Rotation period of the gyre.
	DecayDepth  float64       // e-folding depth in metres.
	IslandRatio float64       // Island radius relative to the grid half-size; 0 disables land.
}

func main() {
	// Command line flags
	outPath := flag.String("out", "./data/uovo.nc", "Output NetCDF file")
	region := flag.String("region", "japan", "Region: japan, global, or custom")
	latMin := flag.Float64("lat-min", 20.0, "Minimum latitude (custom region)")
	latMax := flag.Float64("lat-max", 50.0, "Maximum latitude (custom region)")
	lonMin := flag.Float64("lon-min", 120.0, "Minimum longitude (custom region)")
	lonMax := flag.Float64("lon-max", 150.0, "Maximum longitude (custom region)")
	resolution := flag.Float64("resolution", 0.25, "Grid resolution in degrees")
	depthList := flag.String("depths", "0.494025,1.541375,5.078224", "Comma-separated depth levels in metres")
	steps := flag.Int("times", 24, "Number of time steps")
	stepHours := flag.Int("step-hours", 1, "Hours between time steps")
	startStr := flag.String("start", "2025-06-20", "First time step (YYYY-MM-DD, UTC)")
	speed := flag.Float64("speed", 1.2, "Peak surface speed in m/s")
	island := flag.Float64("island", 0.3, "Island radius as a fraction of the grid half-size (0 for no land)")

	flag.Parse()

	// Define grid based on region
	var grid RegionalGrid
	switch *region {
	case "japan":
		grid = RegionalGrid{
			LatMin:     20.0,
			LatMax:     50.0,
			LonMin:     120.0,
			LonMax:     150.0,
			Resolution: *resolution,
		}
	case "global":
		grid = RegionalGrid{
			LatMin:     -80.0,
			LatMax:     80.0,
			LonMin:     -180.0,
			LonMax:     179.5,
			Resolution: 0.5, // Lower resolution for global
		}
	case "custom":
		grid = RegionalGrid{
			LatMin:     *latMin,
			LatMax:     *latMax,
			LonMin:     *lonMin,
			LonMax:     *lonMax,
			Resolution: *resolution,
		}
	default:
		log.Fatalf("Unknown region: %s (use japan, global, or custom)", *region)
	}

	depths, err := parseDepths(*depthList)
	if err != nil {
		log.Fatalf("Invalid depths: %v", err)
	}
	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	if *steps < 1 || *stepHours < 1 {
		log.Fatalf("times and step-hours must be positive")
	}

	pattern := Pattern{
		Speed:       *speed,
		Period:      12 * time.Hour,
		DecayDepth:  50,
		IslandRatio: *island,
	}

	log.Printf("Generating uo/vo NetCDF for region: %s", *region)
	log.Printf("Grid: %.1f°-%.1f°N, %.1f°-%.1f°E, resolution: %.2f°",
		grid.LatMin, grid.LatMax, grid.LonMin, grid.LonMax, grid.Resolution)

	ds, err := Synthesize(grid, depths, start, *steps, time.Duration(*stepHours)*time.Hour, pattern)
	if err != nil {
		log.Fatalf("Failed to build dataset: %v", err)
	}

	// Create output directory
	//nolint:gosec // G301: Development data directory.
	if err := os.MkdirAll(filepath.Dir(*outPath), 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if err := cdf.Write(*outPath, ds); err != nil {
		log.Fatalf("Failed to write NetCDF: %v", err)
	}

	// Print summary
	nLat, nLon := grid.Points()
	log.Printf("\n=== Generation Complete ===")
	log.Printf("File created: %s", *outPath)
	log.Printf("Grid size: %d × %d points, %d depths, %d times", nLat, nLon, len(depths), *steps)
	totalMB := float64(ds.Size()*2*4) / 1024 / 1024
	log.Printf("Data size: ~%.1f MB (2 variables × float32)", totalMB)
}

// parseDepths parses a comma-separated list of depths.
func parseDepths(list string) ([]float64, error) {
	var depths []float64
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("depth %q: %w", part, err)
		}
		depths = append(depths, d)
	}
	if len(depths) == 0 {
		return nil, fmt.Errorf("no depths given")
	}
	return depths, nil
}

// Synthesize builds a rotating gyre centred on the grid. Speed decays with
// depth and the whole field turns once per pattern period. Samples inside the
// central island are NaN.
func Synthesize(grid RegionalGrid, depths []float64, start time.Time, steps int, step time.Duration, p Pattern) (*cdf.Dataset, error) {
	if grid.Resolution <= 0 {
		return nil, fmt.Errorf("resolution must be positive")
	}
	if grid.LatMin >= grid.LatMax || grid.LonMin >= grid.LonMax {
		return nil, fmt.Errorf("grid bounds are empty")
	}

	nLat, nLon := grid.Points()
	axes := domain.Axes{
		Latitude:  make([]float64, nLat),
		Longitude: make([]float64, nLon),
		Depth:     depths,
		Time:      make([]float64, steps),
		TimeUnits: "hours since " + start.UTC().Format("2006-01-02 15:04:05"),
	}
	for i := range axes.Latitude {
		axes.Latitude[i] = grid.LatMin + float64(i)*grid.Resolution
	}
	for j := range axes.Longitude {
		axes.Longitude[j] = grid.LonMin + float64(j)*grid.Resolution
	}
	for t := range axes.Time {
		axes.Time[t] = (time.Duration(t) * step).Hours()
	}

	ds := &cdf.Dataset{Axes: axes, FillValue: fillValue}
	ds.U = make([]float32, ds.Size())
	ds.V = make([]float32, ds.Size())

	latC := (grid.LatMin + grid.LatMax) / 2
	lonC := (grid.LonMin + grid.LonMax) / 2
	halfLat := (grid.LatMax - grid.LatMin) / 2
	halfLon := (grid.LonMax - grid.LonMin) / 2

	for t := range axes.Time {
		phase := 2 * math.Pi * float64(time.Duration(t)*step) / float64(p.Period)
		sin, cos := math.Sincos(phase)
		for k, depth := range depths {
			decay := math.Exp(-math.Abs(depth) / p.DecayDepth)
			for i, lat := range axes.Latitude {
				y := (lat - latC) / halfLat
				for j, lon := range axes.Longitude {
					x := (lon - lonC) / halfLon
					idx := ds.Index(t, k, i, j)
					r := math.Hypot(x, y)
					if r < p.IslandRatio {
						ds.U[idx], ds.V[idx] = float32(math.NaN()), float32(math.NaN())
						continue
					}
					// Tangential flow, strongest at mid-radius.
					mag := p.Speed * decay * r * math.Exp(1-2*r) * 2
					u := -y / math.Max(r, 1e-9) * mag
					v := x / math.Max(r, 1e-9) * mag
					ds.U[idx] = float32(u*cos - v*sin)
					ds.V[idx] = float32(u*sin + v*cos)
				}
			}
		}
	}

	return ds, nil
}
