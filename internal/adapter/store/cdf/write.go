package cdf

import (
	"fmt"
	"math"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/currents-tiles/internal/domain"
)

// Dataset is a fully materialized velocity dataset.
type Dataset struct {
	Axes      domain.Axes
	U         []float32 // Row-major (time, depth, lat, lon).
	V         []float32 // Row-major (time, depth, lat, lon).
	FillValue float32   // Written in place of NaN samples.
}

// Size returns the number of samples per velocity component.
func (d *Dataset) Size() int {
	a := d.Axes
	return len(a.Time) * len(a.Depth) * len(a.Latitude) * len(a.Longitude)
}

// Index returns the flat index of (t, k, i, j).
func (d *Dataset) Index(t, k, i, j int) int {
	a := d.Axes
	return ((t*len(a.Depth)+k)*len(a.Latitude)+i)*len(a.Longitude) + j
}

// Write creates a classic-format NetCDF file with latitude, longitude, depth,
// time, uo and vo variables laid out like Copernicus Marine products.
func Write(path string, d *Dataset) error {
	if err := d.Axes.Validate(); err != nil {
		return fmt.Errorf("invalid dataset: %w", err)
	}
	if len(d.U) != d.Size() || len(d.V) != d.Size() {
		return fmt.Errorf("velocity arrays have %d/%d samples, expected %d", len(d.U), len(d.V), d.Size())
	}

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = ds.Close() }()

	a := d.Axes
	//nolint:gosec // G115: Axis lengths are non-negative.
	timeDim, err := ds.AddDim("time", uint64(len(a.Time)))
	if err != nil {
		return err
	}
	//nolint:gosec // G115: Axis lengths are non-negative.
	depthDim, err := ds.AddDim("depth", uint64(len(a.Depth)))
	if err != nil {
		return err
	}
	//nolint:gosec // G115: Axis lengths are non-negative.
	latDim, err := ds.AddDim("latitude", uint64(len(a.Latitude)))
	if err != nil {
		return err
	}
	//nolint:gosec // G115: Axis lengths are non-negative.
	lonDim, err := ds.AddDim("longitude", uint64(len(a.Longitude)))
	if err != nil {
		return err
	}

	timeVar, err := addAxisVar(ds, "time", timeDim, a.TimeUnits)
	if err != nil {
		return err
	}
	depthVar, err := addAxisVar(ds, "depth", depthDim, "m")
	if err != nil {
		return err
	}
	latVar, err := addAxisVar(ds, "latitude", latDim, "degrees_north")
	if err != nil {
		return err
	}
	lonVar, err := addAxisVar(ds, "longitude", lonDim, "degrees_east")
	if err != nil {
		return err
	}

	dims := []netcdf.Dim{timeDim, depthDim, latDim, lonDim}
	uVar, err := addVelocityVar(ds, "uo", dims, d.FillValue, "Eastward velocity")
	if err != nil {
		return err
	}
	vVar, err := addVelocityVar(ds, "vo", dims, d.FillValue, "Northward velocity")
	if err != nil {
		return err
	}

	if err := ds.EndDef(); err != nil {
		return fmt.Errorf("failed to end define mode: %w", err)
	}

	for _, w := range []struct {
		v    netcdf.Var
		data []float64
	}{
		{timeVar, a.Time},
		{depthVar, a.Depth},
		{latVar, a.Latitude},
		{lonVar, a.Longitude},
	} {
		if err := w.v.WriteFloat64s(w.data); err != nil {
			return fmt.Errorf("failed to write axis: %w", err)
		}
	}

	if err := uVar.WriteFloat32s(withFill(d.U, d.FillValue)); err != nil {
		return fmt.Errorf("failed to write uo: %w", err)
	}
	if err := vVar.WriteFloat32s(withFill(d.V, d.FillValue)); err != nil {
		return fmt.Errorf("failed to write vo: %w", err)
	}
	return nil
}

func addAxisVar(ds netcdf.Dataset, name string, dim netcdf.Dim, units string) (netcdf.Var, error) {
	v, err := ds.AddVar(name, netcdf.DOUBLE, []netcdf.Dim{dim})
	if err != nil {
		return netcdf.Var{}, fmt.Errorf("failed to add %s: %w", name, err)
	}
	if units != "" {
		if err := v.Attr("units").WriteBytes([]byte(units)); err != nil {
			return netcdf.Var{}, fmt.Errorf("failed to write %s units: %w", name, err)
		}
	}
	return v, nil
}

func addVelocityVar(ds netcdf.Dataset, name string, dims []netcdf.Dim, fill float32, longName string) (netcdf.Var, error) {
	v, err := ds.AddVar(name, netcdf.FLOAT, dims)
	if err != nil {
		return netcdf.Var{}, fmt.Errorf("failed to add %s: %w", name, err)
	}
	if err := v.Attr("_FillValue").WriteFloat32s([]float32{fill}); err != nil {
		return netcdf.Var{}, fmt.Errorf("failed to write %s fill value: %w", name, err)
	}
	if err := v.Attr("units").WriteBytes([]byte("m s-1")); err != nil {
		return netcdf.Var{}, fmt.Errorf("failed to write %s units: %w", name, err)
	}
	if err := v.Attr("long_name").WriteBytes([]byte(longName)); err != nil {
		return netcdf.Var{}, fmt.Errorf("failed to write %s long_name: %w", name, err)
	}
	return v, nil
}

// withFill returns a copy of data with NaN samples replaced by fill.
func withFill(data []float32, fill float32) []float32 {
	out := make([]float32, len(data))
	for i, val := range data {
		if math.IsNaN(float64(val)) {
			val = fill
		}
		out[i] = val
	}
	return out
}
