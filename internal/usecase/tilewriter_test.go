package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"go.ngs.io/currents-tiles/internal/adapter/sink"
)

func TestTileKey(t *testing.T) {
	if got := TileKey("20250620T000000Z", "0.49", "geojson"); got != "20250620T000000Z/0.49.geojson" {
		t.Errorf("unexpected key %q", got)
	}
	if got := TileKey("2025-06-20T00:00:00Z", "5", "json"); got != "2025-06-20T00:00:00Z/5.json" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestTileWriter_EmptyFeaturesWriteNothing(t *testing.T) {
	root := t.TempDir()
	w := NewTileWriter(sink.NewLocal(root), false, "")

	written, err := w.WriteTile(context.Background(), "T0Z", "0.49", nil)
	if err != nil {
		t.Fatalf("WriteTile: %v", err)
	}
	if written {
		t.Errorf("expected no tile for empty features")
	}
	if _, err := os.Stat(filepath.Join(root, "T0Z")); !os.IsNotExist(err) {
		t.Errorf("expected no time directory, got %v", err)
	}
}

func TestTileWriter_CompactAndPretty(t *testing.T) {
	f := geojson.NewFeature(orb.Point{20, 10})
	f.Properties["speed"] = 1.0

	for _, pretty := range []bool{false, true} {
		root := t.TempDir()
		w := NewTileWriter(sink.NewLocal(root), pretty, "geojson")
		written, err := w.WriteTile(context.Background(), "T0Z", "5", []*geojson.Feature{f})
		if err != nil {
			t.Fatalf("WriteTile(pretty=%v): %v", pretty, err)
		}
		if !written {
			t.Fatalf("expected tile to be written")
		}

		data, err := os.ReadFile(filepath.Join(root, "T0Z", "5.geojson"))
		if err != nil {
			t.Fatalf("read tile: %v", err)
		}
		if got := strings.Contains(string(data), "\n  "); got != pretty {
			t.Errorf("pretty=%v: unexpected indentation in %s", pretty, data)
		}

		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			t.Fatalf("decode tile: %v", err)
		}
		if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
			t.Errorf("unexpected collection: %+v", fc)
		}
	}
}

func TestTileWriter_WriteIndex(t *testing.T) {
	root := t.TempDir()
	w := NewTileWriter(sink.NewLocal(root), false, "")

	if err := w.WriteIndex(context.Background(), []float64{0.49, 5}, []string{"20250620T000000Z"}); err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}
	assertFile(t, filepath.Join(root, DepthsIndex), `[0.49,5]`)
	assertFile(t, filepath.Join(root, TimesIndex), `["20250620T000000Z"]`)

	if err := w.WriteIndex(context.Background(), nil, nil); err != nil {
		t.Fatalf("WriteIndex (empty): %v", err)
	}
	assertFile(t, filepath.Join(root, DepthsIndex), `[]`)
	assertFile(t, filepath.Join(root, TimesIndex), `[]`)
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if got := strings.TrimSpace(string(data)); got != want {
		t.Errorf("%s: expected %s, got %s", filepath.Base(path), want, got)
	}
}
