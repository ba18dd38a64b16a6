package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"

	"go.ngs.io/currents-tiles/internal/domain"
	"go.ngs.io/currents-tiles/internal/usecase"
)

func parseArgs(t *testing.T, args ...string) *CLI {
	t.Helper()
	input := filepath.Join(t.TempDir(), "in.nc")
	if err := os.WriteFile(input, []byte("x"), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Vars{
			"version":     "test",
			"webmercator": fmt.Sprintf("%v", domain.WebMercatorMaxLatitude),
		},
		kong.Exit(func(int) { t.Fatalf("unexpected exit") }),
	)
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	if _, err := parser.Parse(append([]string{input}, args...)); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return &cli
}

func TestRequest_Defaults(t *testing.T) {
	cli := parseArgs(t)

	req, err := cli.request()
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Geometry != usecase.GeometryPoint || req.TimeStyle != domain.TimeStyleExtended {
		t.Errorf("unexpected defaults: %+v", req)
	}
	if req.Extent != nil || req.SafeLatitude != 0 || req.Depth != "" || req.Pretty {
		t.Errorf("expected optional rules to be off: %+v", req)
	}
	if req.Extension != "geojson" {
		t.Errorf("expected geojson extension, got %q", req.Extension)
	}
	if cli.Backend != "cdf" || cli.Output != "./data/tiles" {
		t.Errorf("unexpected backend/output defaults: %q %q", cli.Backend, cli.Output)
	}
	if names := cli.varNames(); names.U != "uo" || names.Latitude != "latitude" {
		t.Errorf("unexpected variable names: %+v", names)
	}
}

func TestRequest_AllOptions(t *testing.T) {
	cli := parseArgs(t,
		"--geometry=polygon",
		"--time-style=compact",
		"--pretty",
		"--depth=surface",
		"--extent=-10,10,100,120",
		"--web-mercator",
		"--var-u=water_u",
		"--backend=native",
		"-o", "gs://tiles/currents",
	)

	req, err := cli.request()
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Geometry != usecase.GeometryPolygon || req.TimeStyle != domain.TimeStyleCompact || !req.Pretty {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.Depth != usecase.SurfaceDepth {
		t.Errorf("expected surface depth, got %q", req.Depth)
	}
	if req.Extent == nil || *req.Extent != (domain.Extent{LatMin: -10, LatMax: 10, LonMin: 100, LonMax: 120}) {
		t.Errorf("unexpected extent %+v", req.Extent)
	}
	if req.SafeLatitude != domain.WebMercatorMaxLatitude {
		t.Errorf("expected web mercator band, got %v", req.SafeLatitude)
	}
	if cli.varNames().U != "water_u" || cli.Backend != "native" || cli.Output != "gs://tiles/currents" {
		t.Errorf("unexpected CLI state: %+v", cli)
	}
}

func TestRequest_RejectsBadExtent(t *testing.T) {
	for _, extent := range []string{"--extent=1,2,3", "--extent=10,0,0,1"} {
		cli := parseArgs(t, extent)
		if _, err := cli.request(); err == nil {
			t.Errorf("%s: expected error", extent)
		}
	}
}
