// Package cdf reads ocean-current NetCDF datasets through the netCDF-C library.
package cdf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/currents-tiles/internal/adapter/store"
	"go.ngs.io/currents-tiles/internal/domain"
)

// Reader reads velocity slices lazily from an open NetCDF file.
type Reader struct {
	path  string
	nc    netcdf.Dataset
	axes  domain.Axes
	u     netcdf.Var
	v     netcdf.Var
	uPack store.Packing
	vPack store.Packing
}

var _ store.VelocityReader = (*Reader)(nil)

// Open opens a NetCDF dataset and reads its coordinate axes.
// The velocity variables stay on disk until ReadSlice is called.
func Open(path string, names store.VarNames) (*Reader, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}

	r := &Reader{path: path, nc: nc}
	if err := r.load(names); err != nil {
		_ = nc.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) load(names store.VarNames) error {
	latNames, lonNames, depthNames, timeNames := names.Candidates()

	var err error
	if r.axes.Latitude, _, err = r.readAxis(latNames); err != nil {
		return err
	}
	if r.axes.Longitude, _, err = r.readAxis(lonNames); err != nil {
		return err
	}
	if r.axes.Depth, _, err = r.readAxis(depthNames); err != nil {
		return err
	}
	var timeVar netcdf.Var
	if r.axes.Time, timeVar, err = r.readAxis(timeNames); err != nil {
		return err
	}
	r.axes.TimeUnits, _ = readStringAttr(timeVar, "units")

	if err := r.axes.Validate(); err != nil {
		return fmt.Errorf("invalid axes in %s: %w", r.path, err)
	}

	if r.u, r.uPack, err = r.velocityVar(names.U); err != nil {
		return err
	}
	if r.v, r.vPack, err = r.velocityVar(names.V); err != nil {
		return err
	}
	return nil
}

// readAxis reads the first 1-D variable found among candidates.
func (r *Reader) readAxis(candidates []string) ([]float64, netcdf.Var, error) {
	for _, name := range candidates {
		v, err := r.nc.Var(name)
		if err != nil {
			continue
		}
		data, err := readFloat64Var(v)
		if err != nil {
			return nil, v, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return data, v, nil
	}
	return nil, netcdf.Var{}, fmt.Errorf("%w: tried %v in %s", store.ErrVariableNotFound, candidates, r.path)
}

// velocityVar looks up a 4-D (time, depth, lat, lon) velocity variable.
func (r *Reader) velocityVar(name string) (netcdf.Var, store.Packing, error) {
	v, err := r.nc.Var(name)
	if err != nil {
		return netcdf.Var{}, store.Packing{}, fmt.Errorf("%w: %s in %s", store.ErrVariableNotFound, name, r.path)
	}

	dims, err := v.Dims()
	if err != nil {
		return netcdf.Var{}, store.Packing{}, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}
	if len(dims) != 4 {
		return netcdf.Var{}, store.Packing{}, fmt.Errorf("expected 4D %s (time, depth, lat, lon), got %dD", name, len(dims))
	}

	want := []int{len(r.axes.Time), len(r.axes.Depth), len(r.axes.Latitude), len(r.axes.Longitude)}
	for i, d := range dims {
		n, err := d.Len()
		if err != nil {
			return netcdf.Var{}, store.Packing{}, fmt.Errorf("failed to get dim%d length of %s: %w", i, name, err)
		}
		//nolint:gosec // G115: Axis lengths are non-negative.
		if n != uint64(want[i]) {
			return netcdf.Var{}, store.Packing{}, fmt.Errorf("dimension mismatch for %s: dim%d has length %d, expected %d (shape must be time, depth, lat, lon)",
				name, i, n, want[i])
		}
	}

	return v, readPacking(v), nil
}

// Axes returns the coordinate axes.
func (r *Reader) Axes() domain.Axes {
	return r.axes
}

// ReadSlice reads one (lat × lon) layer of u and v.
func (r *Reader) ReadSlice(timeIdx, depthIdx int) (*domain.VelocitySlice, error) {
	if timeIdx < 0 || timeIdx >= len(r.axes.Time) {
		return nil, fmt.Errorf("time index %d out of range [0, %d)", timeIdx, len(r.axes.Time))
	}
	if depthIdx < 0 || depthIdx >= len(r.axes.Depth) {
		return nil, fmt.Errorf("depth index %d out of range [0, %d)", depthIdx, len(r.axes.Depth))
	}

	nLat, nLon := len(r.axes.Latitude), len(r.axes.Longitude)
	//nolint:gosec // G115: Indices are range-checked above.
	start := []uint64{uint64(timeIdx), uint64(depthIdx), 0, 0}
	//nolint:gosec // G115: Axis lengths are non-negative.
	count := []uint64{1, 1, uint64(nLat), uint64(nLon)}

	uFlat, err := readFloat64Slice(r.u, start, count, nLat*nLon)
	if err != nil {
		return nil, fmt.Errorf("failed to read u at time %d depth %d: %w", timeIdx, depthIdx, err)
	}
	vFlat, err := readFloat64Slice(r.v, start, count, nLat*nLon)
	if err != nil {
		return nil, fmt.Errorf("failed to read v at time %d depth %d: %w", timeIdx, depthIdx, err)
	}

	return &domain.VelocitySlice{
		U: r.uPack.UnpackRows(uFlat, nLat, nLon),
		V: r.vPack.UnpackRows(vFlat, nLat, nLon),
	}, nil
}

// Close closes the NetCDF file.
func (r *Reader) Close() error {
	return r.nc.Close()
}

// readFloat64Var reads a 1D variable as float64.
func readFloat64Var(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}

	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}

	//nolint:gosec // G115: Dimension lengths fit in int.
	return readFloat64Slice(v, []uint64{0}, []uint64{length}, int(length))
}

// readFloat64Slice reads a hyperslab of a numeric variable as float64.
// Supports DOUBLE, FLOAT, INT and SHORT variables.
func readFloat64Slice(v netcdf.Var, start, count []uint64, total int) ([]float64, error) {
	varType, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}

	flat := make([]float64, total)
	switch varType {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64Slice(flat, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float64: %w", err)
		}
	case netcdf.FLOAT:
		buf := make([]float32, total)
		if err := v.ReadFloat32Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float32: %w", err)
		}
		for i, val := range buf {
			flat[i] = float64(val)
		}
	case netcdf.INT:
		buf := make([]int32, total)
		if err := v.ReadInt32Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int32: %w", err)
		}
		for i, val := range buf {
			flat[i] = float64(val)
		}
	case netcdf.SHORT:
		buf := make([]int16, total)
		if err := v.ReadInt16Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int16: %w", err)
		}
		for i, val := range buf {
			flat[i] = float64(val)
		}
	case netcdf.BYTE, netcdf.UBYTE, netcdf.CHAR, netcdf.USHORT, netcdf.UINT, netcdf.INT64, netcdf.UINT64, netcdf.STRING:
		return nil, fmt.Errorf("unsupported data type: %v (expected DOUBLE, FLOAT, INT, or SHORT)", varType)
	default:
		return nil, fmt.Errorf("unsupported data type: %v", varType)
	}
	return flat, nil
}

// readPacking reads scale_factor, add_offset, _FillValue and missing_value.
func readPacking(v netcdf.Var) store.Packing {
	p := store.NoPacking()
	if s, ok := readFloatAttr(v, "scale_factor"); ok && s != 0 {
		p.Scale = s
	}
	if o, ok := readFloatAttr(v, "add_offset"); ok {
		p.Offset = o
	}
	p.FillValue, p.HasFill = readFloatAttr(v, "_FillValue")
	p.MissingValue, p.HasMissing = readFloatAttr(v, "missing_value")
	return p
}

// readFloatAttr returns the first value of a numeric attribute as float64.
func readFloatAttr(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	t, err := a.Type()
	if err != nil {
		return 0, false
	}

	switch t {
	case netcdf.DOUBLE:
		buf := make([]float64, n)
		if err := a.ReadFloat64s(buf); err == nil {
			return buf[0], true
		}
	case netcdf.FLOAT:
		buf := make([]float32, n)
		if err := a.ReadFloat32s(buf); err == nil {
			return float64(buf[0]), true
		}
	case netcdf.INT:
		buf := make([]int32, n)
		if err := a.ReadInt32s(buf); err == nil {
			return float64(buf[0]), true
		}
	case netcdf.SHORT:
		buf := make([]int16, n)
		if err := a.ReadInt16s(buf); err == nil {
			return float64(buf[0]), true
		}
	}
	return 0, false
}

// errNotText is returned for attributes that are not character data.
var errNotText = errors.New("attribute is not text")

// readStringAttr reads a text attribute.
func readStringAttr(v netcdf.Var, name string) (string, error) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil {
		return "", err
	}
	t, err := a.Type()
	if err != nil {
		return "", err
	}
	if t != netcdf.CHAR {
		return "", errNotText
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}
