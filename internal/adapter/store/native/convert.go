package native

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"go.ngs.io/currents-tiles/internal/adapter/store"
)

// toFloat64s converts a 1-D numeric variable to float64.
func toFloat64s(values any) ([]float64, error) {
	switch vals := values.(type) {
	case []float64:
		return vals, nil
	case []float32:
		return convert(vals), nil
	case []int64:
		return convert(vals), nil
	case []int32:
		return convert(vals), nil
	case []int16:
		return convert(vals), nil
	case []int8:
		return convert(vals), nil
	default:
		return nil, fmt.Errorf("unsupported axis type %T", values)
	}
}

func convert[T float32 | int64 | int32 | int16 | int8](vals []T) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out
}

// layer extracts depth layer k of a single time step, flattened row-major.
func layer(step any, k, nLat, nLon int) ([]float64, error) {
	switch s := step.(type) {
	case [][][][]float32:
		return flatten(s, k, nLat, nLon)
	case [][][][]float64:
		return flatten(s, k, nLat, nLon)
	case [][][][]int16:
		return flatten(s, k, nLat, nLon)
	case [][][][]int32:
		return flatten(s, k, nLat, nLon)
	default:
		return nil, fmt.Errorf("unsupported velocity type %T", step)
	}
}

func flatten[T float32 | float64 | int16 | int32](step [][][][]T, k, nLat, nLon int) ([]float64, error) {
	if len(step) != 1 || k >= len(step[0]) {
		return nil, fmt.Errorf("time step does not contain depth index %d", k)
	}
	rows := step[0][k]
	if len(rows) != nLat {
		return nil, fmt.Errorf("layer has %d rows, expected %d", len(rows), nLat)
	}
	flat := make([]float64, 0, nLat*nLon)
	for i, row := range rows {
		if len(row) != nLon {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), nLon)
		}
		for _, v := range row {
			flat = append(flat, float64(v))
		}
	}
	return flat, nil
}

// packing reads scale_factor, add_offset, _FillValue and missing_value.
func packing(attrs api.AttributeMap) store.Packing {
	p := store.NoPacking()
	if s, ok := floatAttr(attrs, "scale_factor"); ok && s != 0 {
		p.Scale = s
	}
	if o, ok := floatAttr(attrs, "add_offset"); ok {
		p.Offset = o
	}
	p.FillValue, p.HasFill = floatAttr(attrs, "_FillValue")
	p.MissingValue, p.HasMissing = floatAttr(attrs, "missing_value")
	return p
}

// floatAttr reads a numeric attribute stored as a scalar or a slice.
func floatAttr(attrs api.AttributeMap, name string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	val, ok := attrs.Get(name)
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int8:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		if vals, err := toFloat64s(val); err == nil && len(vals) > 0 {
			return vals[0], true
		}
	}
	return 0, false
}

// stringAttr reads a text attribute, or "" when absent.
func stringAttr(attrs api.AttributeMap, name string) string {
	if attrs == nil {
		return ""
	}
	val, ok := attrs.Get(name)
	if !ok {
		return ""
	}
	s, _ := val.(string)
	return s
}
