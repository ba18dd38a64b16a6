// Package backend selects a dataset reader implementation by name.
package backend

import (
	"fmt"
	"strings"

	"go.ngs.io/currents-tiles/internal/adapter/store"
	"go.ngs.io/currents-tiles/internal/adapter/store/cdf"
	"go.ngs.io/currents-tiles/internal/adapter/store/native"
)

const (
	// CDF reads through the netCDF-C library (hyperslab reads, one layer at a time).
	CDF = "cdf"
	// Native reads with a pure-Go decoder (one time step at a time).
	Native = "native"
)

// Names lists the available backends.
func Names() []string {
	return []string{CDF, Native}
}

// Open opens path with the named backend.
func Open(name, path string, vars store.VarNames) (store.VelocityReader, error) {
	switch strings.ToLower(name) {
	case "", CDF:
		return cdf.Open(path, vars)
	case Native:
		return native.Open(path, vars)
	default:
		return nil, fmt.Errorf("unknown dataset backend %q (use %s)", name, strings.Join(Names(), " or "))
	}
}
