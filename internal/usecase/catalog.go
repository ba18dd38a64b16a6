package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"go.ngs.io/currents-tiles/internal/domain"
)

var (
	// ErrUnknownTime is returned for a time label missing from times.json.
	ErrUnknownTime = errors.New("unknown time")
	// ErrUnknownDepth is returned for a depth label missing from depths.json.
	ErrUnknownDepth = errors.New("unknown depth")
	// ErrTileNotFound is returned when a listed slice has no tile (no data).
	ErrTileNotFound = errors.New("tile not found")
)

// Catalog is the content of the index files of an output root.
type Catalog struct {
	Depths []float64
	Times  []string
}

// DepthLabels returns the labels of the catalog depths.
func (c *Catalog) DepthLabels() []string {
	labels := make([]string, len(c.Depths))
	for i, d := range c.Depths {
		labels[i] = domain.DepthLabel(d)
	}
	return labels
}

// TileService serves tiles and index files from an output root.
type TileService struct {
	fsys fs.FS
	ext  string
}

// NewTileService creates a tile service over fsys. An empty ext uses DefaultExtension.
func NewTileService(fsys fs.FS, ext string) *TileService {
	if ext == "" {
		ext = DefaultExtension
	}
	return &TileService{fsys: fsys, ext: ext}
}

// Extension returns the tile file extension.
func (s *TileService) Extension() string {
	return s.ext
}

// Catalog reads depths.json and times.json. The files are read on every call
// so that a re-run of the converter is picked up without a restart.
func (s *TileService) Catalog() (*Catalog, error) {
	var c Catalog
	if err := readJSON(s.fsys, DepthsIndex, &c.Depths); err != nil {
		return nil, err
	}
	if err := readJSON(s.fsys, TimesIndex, &c.Times); err != nil {
		return nil, err
	}
	return &c, nil
}

// Tile returns the encoded tile for a time and depth label. Labels are
// checked against the catalog before any tile path is opened.
func (s *TileService) Tile(timeLabel, depthLabel string) ([]byte, error) {
	c, err := s.Catalog()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(c.Times, timeLabel) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTime, timeLabel)
	}
	if !slices.Contains(c.DepthLabels(), depthLabel) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDepth, depthLabel)
	}

	key := TileKey(timeLabel, depthLabel, s.ext)
	if !fs.ValidPath(key) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTime, timeLabel)
	}
	data, err := fs.ReadFile(s.fsys, key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTileNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tile %s: %w", key, err)
	}
	return data, nil
}

func readJSON(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}
