// Package main converts an ocean current NetCDF dataset into GeoJSON tiles.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"go.ngs.io/currents-tiles/internal/adapter/sink"
	"go.ngs.io/currents-tiles/internal/adapter/store"
	"go.ngs.io/currents-tiles/internal/adapter/store/backend"
	"go.ngs.io/currents-tiles/internal/domain"
	"go.ngs.io/currents-tiles/internal/metrics"
	"go.ngs.io/currents-tiles/internal/usecase"
)

var version = "dev"

// CLI is the command line of currents-tiler.
type CLI struct {
	Input  string `arg:"" help:"NetCDF file with uo/vo velocities." type:"existingfile"`
	Output string `short:"o" default:"./data/tiles" env:"TILES_OUTPUT" help:"Output root: a directory or gs://bucket/prefix."`

	Backend string `default:"cdf" enum:"cdf,native" env:"TILES_BACKEND" help:"Dataset reader: cdf (netCDF-C) or native (pure Go)."`

	Geometry  string `default:"point" enum:"point,polygon" help:"Feature geometry per cell."`
	TimeStyle string `default:"extended" enum:"extended,compact" help:"Time label style."`
	Pretty    bool   `help:"Indent JSON output."`
	Ext       string `default:"geojson" help:"Tile file extension."`
	Depth     string `help:"Process a single depth: a depth label (e.g. 0.49) or 'surface'."`

	Extent       []float64 `sep:"," placeholder:"LATMIN,LATMAX,LONMIN,LONMAX" help:"Drop cells whose footprint leaves this extent."`
	SafeLatitude float64   `help:"Drop cells beyond this absolute latitude (0 disables)."`
	WebMercator  bool      `help:"Shorthand for --safe-latitude=${webmercator}."`

	Vars struct {
		Latitude  string `default:"latitude" help:"Latitude variable."`
		Longitude string `default:"longitude" help:"Longitude variable."`
		Depth     string `default:"depth" help:"Depth variable."`
		Time      string `default:"time" help:"Time variable."`
		U         string `default:"uo" help:"Eastward velocity variable."`
		V         string `default:"vo" help:"Northward velocity variable."`
	} `embed:"" prefix:"var-"`

	MetricsFile string `env:"TILES_METRICS_FILE" type:"path" help:"Write run metrics in node-exporter textfile format."`
	LogFormat   string `default:"text" enum:"text,json" help:"Log format."`
	Verbose     bool   `short:"v" help:"Log every empty slice."`

	Version kong.VersionFlag `help:"Show version information."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("currents-tiler"),
		kong.Description("Convert gridded ocean current forecasts into GeoJSON tiles."),
		kong.Vars{
			"version":     version,
			"webmercator": fmt.Sprintf("%v", domain.WebMercatorMaxLatitude),
		},
		kong.UsageOnError(),
	)

	logger := newLogger(cli.LogFormat, cli.Verbose)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.run(ctx, logger)
	stop()
	if err != nil {
		logger.Error("conversion failed", "err", err)
		kctx.Exit(1)
	}
}

func newLogger(format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// request builds the conversion request from the flags.
func (cli *CLI) request() (usecase.ConvertRequest, error) {
	geometry, err := usecase.ParseGeometry(cli.Geometry)
	if err != nil {
		return usecase.ConvertRequest{}, err
	}
	style, err := domain.ParseTimeStyle(cli.TimeStyle)
	if err != nil {
		return usecase.ConvertRequest{}, err
	}

	req := usecase.ConvertRequest{
		Geometry:     geometry,
		TimeStyle:    style,
		Pretty:       cli.Pretty,
		SafeLatitude: cli.SafeLatitude,
		Depth:        cli.Depth,
		Extension:    cli.Ext,
	}
	if cli.WebMercator {
		req.SafeLatitude = domain.WebMercatorMaxLatitude
	}
	if len(cli.Extent) > 0 {
		if len(cli.Extent) != 4 {
			return req, fmt.Errorf("--extent needs 4 values (lat-min,lat-max,lon-min,lon-max), got %d", len(cli.Extent))
		}
		req.Extent = &domain.Extent{
			LatMin: cli.Extent[0],
			LatMax: cli.Extent[1],
			LonMin: cli.Extent[2],
			LonMax: cli.Extent[3],
		}
	}
	return req, req.Validate()
}

func (cli *CLI) varNames() store.VarNames {
	return store.VarNames{
		Latitude:  cli.Vars.Latitude,
		Longitude: cli.Vars.Longitude,
		Depth:     cli.Vars.Depth,
		Time:      cli.Vars.Time,
		U:         cli.Vars.U,
		V:         cli.Vars.V,
	}
}

func (cli *CLI) run(ctx context.Context, logger *slog.Logger) error {
	req, err := cli.request()
	if err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	reader, err := backend.Open(cli.Backend, cli.Input, cli.varNames())
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = reader.Close() }()

	axes := reader.Axes()
	logger.Info("dataset",
		"file", cli.Input,
		"backend", cli.Backend,
		"lat", len(axes.Latitude),
		"lon", len(axes.Longitude),
		"depths", len(axes.Depth),
		"times", len(axes.Time),
		"time_units", axes.TimeUnits,
	)

	out, err := sink.New(ctx, cli.Output)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	defer func() { _ = out.Close() }()

	uc := usecase.NewConvertUseCase(reader, out, logger)
	summary, runErr := uc.Execute(ctx, req)

	if summary != nil {
		if b, err := json.Marshal(summary); err == nil {
			logger.Info("summary", "json", string(b))
		}
	}
	if cli.MetricsFile != "" {
		if err := metrics.WriteTextfile(cli.MetricsFile); err != nil {
			logger.Error("failed to write metrics file", "path", cli.MetricsFile, "err", err)
		}
	}
	return runErr
}
