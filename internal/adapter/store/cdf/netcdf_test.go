package cdf

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/currents-tiles/internal/adapter/store"
	"go.ngs.io/currents-tiles/internal/domain"
)

var nan32 = float32(math.NaN())

// workedExample is the 2×2 single time, single depth grid with one land cell.
func workedExample() *Dataset {
	return &Dataset{
		Axes: domain.Axes{
			Latitude:  []float64{10, 11},
			Longitude: []float64{20, 21},
			Depth:     []float64{0.494025},
			Time:      []float64{613608},
			TimeUnits: "hours since 1950-01-01",
		},
		U:         []float32{1, 0, 0, -1},
		V:         []float32{0, 1, nan32, 1},
		FillValue: -9999,
	}
}

// createAxesOnlyNC writes lat/lon/depth/time and lets fn add data variables.
func createAxesOnlyNC(t *testing.T, path string, fn func(f netcdf.Dataset, dims []netcdf.Dim) func() error) {
	t.Helper()
	f, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		t.Fatalf("create nc: %v", err)
	}
	defer func() { _ = f.Close() }()

	timeDim, _ := f.AddDim("time", 1)
	depthDim, _ := f.AddDim("depth", 1)
	latDim, _ := f.AddDim("lat", 2)
	lonDim, _ := f.AddDim("lon", 2)
	vtime, _ := f.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	vdepth, _ := f.AddVar("depth", netcdf.FLOAT, []netcdf.Dim{depthDim})
	vlat, _ := f.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	vlon, _ := f.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	write := fn(f, []netcdf.Dim{timeDim, depthDim, latDim, lonDim})

	if err := f.EndDef(); err != nil {
		t.Fatalf("enddef: %v", err)
	}
	if err := vtime.WriteFloat64s([]float64{0}); err != nil {
		t.Fatalf("write time: %v", err)
	}
	if err := vdepth.WriteFloat32s([]float32{1.5}); err != nil {
		t.Fatalf("write depth: %v", err)
	}
	if err := vlat.WriteFloat64s([]float64{35.0, 36.0}); err != nil {
		t.Fatalf("write lat: %v", err)
	}
	if err := vlon.WriteFloat64s([]float64{139.0, 140.0}); err != nil {
		t.Fatalf("write lon: %v", err)
	}
	if write != nil {
		if err := write(); err != nil {
			t.Fatalf("write data: %v", err)
		}
	}
}

func TestOpen_WorkedExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.nc")
	if err := Write(path, workedExample()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r, err := Open(path, store.DefaultVarNames())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	axes := r.Axes()
	if len(axes.Latitude) != 2 || axes.Latitude[1] != 11 || axes.Longitude[0] != 20 {
		t.Errorf("unexpected lat/lon axes: %v %v", axes.Latitude, axes.Longitude)
	}
	if axes.Depth[0] != 0.494025 || axes.Time[0] != 613608 {
		t.Errorf("unexpected depth/time axes: %v %v", axes.Depth, axes.Time)
	}
	if axes.TimeUnits != "hours since 1950-01-01" {
		t.Errorf("unexpected time units %q", axes.TimeUnits)
	}

	slice, err := r.ReadSlice(0, 0)
	if err != nil {
		t.Fatalf("ReadSlice: %v", err)
	}
	if slice.U[0][0] != 1 || slice.V[0][1] != 1 || slice.U[1][1] != -1 {
		t.Errorf("unexpected values U=%v V=%v", slice.U, slice.V)
	}
	if !math.IsNaN(slice.V[1][0]) {
		t.Errorf("expected fill value to read as NaN, got %v", slice.V[1][0])
	}
}

func TestReadSlice_SelectsTimeAndDepth(t *testing.T) {
	d := &Dataset{
		Axes: domain.Axes{
			Latitude:  []float64{0, 1},
			Longitude: []float64{0, 1, 2},
			Depth:     []float64{0.5, 10, 100},
			Time:      []float64{0, 6},
			TimeUnits: "hours since 2025-06-20",
		},
		FillValue: -9999,
	}
	d.U = make([]float32, d.Size())
	d.V = make([]float32, d.Size())
	for ti := 0; ti < 2; ti++ {
		for k := 0; k < 3; k++ {
			for i := 0; i < 2; i++ {
				for j := 0; j < 3; j++ {
					d.U[d.Index(ti, k, i, j)] = float32(ti*100 + k*10 + i*3 + j)
					d.V[d.Index(ti, k, i, j)] = -float32(ti*100 + k*10 + i*3 + j)
				}
			}
		}
	}

	path := filepath.Join(t.TempDir(), "multi.nc")
	if err := Write(path, d); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r, err := Open(path, store.DefaultVarNames())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	slice, err := r.ReadSlice(1, 2)
	if err != nil {
		t.Fatalf("ReadSlice: %v", err)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			want := float64(120 + i*3 + j)
			if slice.U[i][j] != want || slice.V[i][j] != -want {
				t.Errorf("cell (%d,%d): expected %v/%v, got %v/%v", i, j, want, -want, slice.U[i][j], slice.V[i][j])
			}
		}
	}

	if _, err := r.ReadSlice(2, 0); err == nil {
		t.Errorf("expected error for time index out of range")
	}
	if _, err := r.ReadSlice(0, -1); err == nil {
		t.Errorf("expected error for negative depth index")
	}
}

func TestOpen_PackedShortVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packed.nc")
	createAxesOnlyNC(t, path, func(f netcdf.Dataset, dims []netcdf.Dim) func() error {
		vu, _ := f.AddVar("uo", netcdf.SHORT, dims)
		vv, _ := f.AddVar("vo", netcdf.SHORT, dims)
		for _, v := range []netcdf.Var{vu, vv} {
			_ = v.Attr("scale_factor").WriteFloat64s([]float64{0.001})
			_ = v.Attr("add_offset").WriteFloat64s([]float64{0})
			_ = v.Attr("_FillValue").WriteInt16s([]int16{-32767})
		}
		return func() error {
			if err := vu.WriteInt16s([]int16{1000, -500, -32767, 250}); err != nil {
				return err
			}
			return vv.WriteInt16s([]int16{0, 1000, 10, -32767})
		}
	})

	r, err := Open(path, store.DefaultVarNames())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	if got := r.Axes().Depth[0]; got != 1.5 {
		t.Errorf("expected float depth axis 1.5, got %v", got)
	}

	slice, err := r.ReadSlice(0, 0)
	if err != nil {
		t.Fatalf("ReadSlice: %v", err)
	}
	if math.Abs(slice.U[0][0]-1.0) > 1e-9 || math.Abs(slice.U[0][1]+0.5) > 1e-9 {
		t.Errorf("scale_factor not applied: %v", slice.U)
	}
	if !math.IsNaN(slice.U[1][0]) || !math.IsNaN(slice.V[1][1]) {
		t.Errorf("expected fill values as NaN: U=%v V=%v", slice.U, slice.V)
	}
}

func TestOpen_MissingVelocityVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-vo.nc")
	createAxesOnlyNC(t, path, func(f netcdf.Dataset, dims []netcdf.Dim) func() error {
		_, _ = f.AddVar("uo", netcdf.FLOAT, dims)
		return nil
	})

	_, err := Open(path, store.DefaultVarNames())
	if !errors.Is(err, store.ErrVariableNotFound) {
		t.Fatalf("expected ErrVariableNotFound, got %v", err)
	}
}

func TestOpen_WrongShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "3d.nc")
	createAxesOnlyNC(t, path, func(f netcdf.Dataset, dims []netcdf.Dim) func() error {
		threeD := []netcdf.Dim{dims[0], dims[2], dims[3]}
		_, _ = f.AddVar("uo", netcdf.FLOAT, threeD)
		_, _ = f.AddVar("vo", netcdf.FLOAT, threeD)
		return nil
	})

	if _, err := Open(path, store.DefaultVarNames()); err == nil {
		t.Fatalf("expected error for 3D velocity variables")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.nc"), store.DefaultVarNames()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestWrite_RejectsWrongSize(t *testing.T) {
	d := workedExample()
	d.V = d.V[:3]
	if err := Write(filepath.Join(t.TempDir(), "bad.nc"), d); err == nil {
		t.Fatalf("expected error for short velocity array")
	}
}
