package usecase

import (
	"errors"
	"testing"
	"testing/fstest"
)

func testOutput() fstest.MapFS {
	return fstest.MapFS{
		"depths.json":                   {Data: []byte(`[0.49, 5]`)},
		"times.json":                    {Data: []byte(`["20250620T000000Z", "20250621T000000Z"]`)},
		"20250620T000000Z/0.49.geojson": {Data: []byte(`{"type":"FeatureCollection","features":[]}`)},
		"20250620T000000Z/5.geojson":    {Data: []byte(`{"type":"FeatureCollection","features":[]}`)},
		"20250621T000000Z/0.49.geojson": {Data: []byte(`{"type":"FeatureCollection","features":[]}`)},
		"secret.txt":                    {Data: []byte("nope")},
	}
}

func TestTileService_Catalog(t *testing.T) {
	svc := NewTileService(testOutput(), "")

	c, err := svc.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if len(c.Depths) != 2 || c.Depths[0] != 0.49 || c.Depths[1] != 5 {
		t.Errorf("unexpected depths %v", c.Depths)
	}
	if len(c.Times) != 2 {
		t.Errorf("unexpected times %v", c.Times)
	}
	labels := c.DepthLabels()
	if labels[0] != "0.49" || labels[1] != "5" {
		t.Errorf("unexpected depth labels %v", labels)
	}
}

func TestTileService_Tile(t *testing.T) {
	svc := NewTileService(testOutput(), "geojson")

	tests := []struct {
		name    string
		time    string
		depth   string
		wantErr error
	}{
		{"present", "20250620T000000Z", "5", nil},
		{"listed but empty slice", "20250621T000000Z", "5", ErrTileNotFound},
		{"unknown time", "20990101T000000Z", "5", ErrUnknownTime},
		{"unknown depth", "20250620T000000Z", "6", ErrUnknownDepth},
		{"path traversal", "..", "5", ErrUnknownTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := svc.Tile(tt.time, tt.depth)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Tile: %v", err)
				}
				if len(data) == 0 {
					t.Errorf("expected tile data")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTileService_MissingIndex(t *testing.T) {
	svc := NewTileService(fstest.MapFS{"times.json": {Data: []byte(`[]`)}}, "")
	if _, err := svc.Catalog(); err == nil {
		t.Errorf("expected error for missing depths.json")
	}

	svc = NewTileService(fstest.MapFS{
		"depths.json": {Data: []byte(`{not json`)},
		"times.json":  {Data: []byte(`[]`)},
	}, "")
	if _, err := svc.Catalog(); err == nil {
		t.Errorf("expected error for malformed depths.json")
	}
}
