// Package native reads ocean-current NetCDF datasets without cgo.
//
// The underlying library only slices the outermost dimension, so the reader
// loads one time step (depth × lat × lon) at a time and serves depth layers
// from it.
package native

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"go.ngs.io/currents-tiles/internal/adapter/store"
	"go.ngs.io/currents-tiles/internal/domain"
)

// Reader reads velocity slices from a NetCDF (classic or HDF5) file.
type Reader struct {
	path  string
	nc    api.Group
	axes  domain.Axes
	u     api.VarGetter
	v     api.VarGetter
	uPack store.Packing
	vPack store.Packing

	step  int // Time index held in uStep/vStep, -1 when empty.
	uStep any
	vStep any
}

var _ store.VelocityReader = (*Reader)(nil)

// Open opens a dataset and reads its coordinate axes.
func Open(path string, names store.VarNames) (*Reader, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}

	r := &Reader{path: path, nc: nc, step: -1}
	if err := r.load(names); err != nil {
		nc.Close()
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
	var timeAttrs api.AttributeMap
	if r.axes.Time, timeAttrs, err = r.readAxis(timeNames); err != nil {
		return err
	}
	r.axes.TimeUnits = stringAttr(timeAttrs, "units")

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

func (r *Reader) readAxis(candidates []string) ([]float64, api.AttributeMap, error) {
	for _, name := range candidates {
		v, err := r.nc.GetVariable(name)
		if err != nil {
			continue
		}
		data, err := toFloat64s(v.Values)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return data, v.Attributes, nil
	}
	return nil, nil, fmt.Errorf("%w: tried %v in %s", store.ErrVariableNotFound, candidates, r.path)
}

func (r *Reader) velocityVar(name string) (api.VarGetter, store.Packing, error) {
	vg, err := r.nc.GetVarGetter(name)
	if err != nil {
		return nil, store.Packing{}, fmt.Errorf("%w: %s in %s", store.ErrVariableNotFound, name, r.path)
	}
	if dims := vg.Dimensions(); len(dims) != 4 {
		return nil, store.Packing{}, fmt.Errorf("expected 4D %s (time, depth, lat, lon), got dimensions %v", name, dims)
	}
	if n := vg.Len(); n != int64(len(r.axes.Time)) {
		return nil, store.Packing{}, fmt.Errorf("dimension mismatch for %s: %d time steps, expected %d", name, n, len(r.axes.Time))
	}
	return vg, packing(vg.Attributes()), nil
}

// Axes returns the coordinate axes.
func (r *Reader) Axes() domain.Axes {
	return r.axes
}

// ReadSlice returns the u/v layer at (timeIdx, depthIdx). Consecutive calls
// for the same time index reuse the loaded time step.
func (r *Reader) ReadSlice(timeIdx, depthIdx int) (*domain.VelocitySlice, error) {
	if timeIdx < 0 || timeIdx >= len(r.axes.Time) {
		return nil, fmt.Errorf("time index %d out of range [0, %d)", timeIdx, len(r.axes.Time))
	}
	if depthIdx < 0 || depthIdx >= len(r.axes.Depth) {
		return nil, fmt.Errorf("depth index %d out of range [0, %d)", depthIdx, len(r.axes.Depth))
	}

	if r.step != timeIdx {
		if err := r.loadStep(timeIdx); err != nil {
			return nil, err
		}
	}

	nLat, nLon := len(r.axes.Latitude), len(r.axes.Longitude)
	u, err := layer(r.uStep, depthIdx, nLat, nLon)
	if err != nil {
		return nil, fmt.Errorf("failed to read u at time %d depth %d: %w", timeIdx, depthIdx, err)
	}
	v, err := layer(r.vStep, depthIdx, nLat, nLon)
	if err != nil {
		return nil, fmt.Errorf("failed to read v at time %d depth %d: %w", timeIdx, depthIdx, err)
	}

	return &domain.VelocitySlice{
		U: r.uPack.UnpackRows(u, nLat, nLon),
		V: r.vPack.UnpackRows(v, nLat, nLon),
	}, nil
}

func (r *Reader) loadStep(timeIdx int) error {
	r.step, r.uStep, r.vStep = -1, nil, nil

	begin := int64(timeIdx)
	u, err := r.u.GetSlice(begin, begin+1)
	if err != nil {
		return fmt.Errorf("failed to read u time step %d: %w", timeIdx, err)
	}
	v, err := r.v.GetSlice(begin, begin+1)
	if err != nil {
		return fmt.Errorf("failed to read v time step %d: %w", timeIdx, err)
	}
	r.step, r.uStep, r.vStep = timeIdx, u, v
	return nil
}

// Close releases the dataset.
func (r *Reader) Close() error {
	r.uStep, r.vStep = nil, nil
	r.nc.Close()
	return nil
}
