// Package main provides the current tiles HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	httpHandler "go.ngs.io/currents-tiles/internal/http"
	"go.ngs.io/currents-tiles/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("tiles-server version %s\n", version)
		return
	}

	// Load configuration from environment.
	port := getEnv("PORT", "8080")
	tilesDir := getEnv("TILES_DIR", "./data/tiles")
	tilesExt := getEnv("TILES_EXT", usecase.DefaultExtension)

	log.Printf("Starting current tiles server...")
	log.Printf("Port: %s", port)
	log.Printf("Tiles directory: %s", tilesDir)

	if _, err := os.Stat(tilesDir); err != nil {
		log.Printf("Warning: tiles directory not readable yet: %v", err)
	}

	// Initialize use case.
	tiles := usecase.NewTileService(os.DirFS(tilesDir), tilesExt)

	// Setup router.
	router := httpHandler.SetupRouter(tiles)

	// Start server.
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Health check: http://localhost:%s/health", port)
	log.Printf("API endpoints:")
	log.Printf("  - GET /v1/depths")
	log.Printf("  - GET /v1/times")
	log.Printf("  - GET /v1/tiles/:time/:depth")
	log.Printf("  - GET /metrics")

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Current Tiles Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  tiles-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  TILES_DIR               Output root of currents-tiler (default: ./data/tiles)")
	fmt.Println("  TILES_EXT               Tile file extension (default: geojson)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Serve tiles written by currents-tiler")
	fmt.Println("  TILES_DIR=./out tiles-server")
	fmt.Println()
	fmt.Println("  # Start server on custom port")
	fmt.Println("  PORT=3000 tiles-server")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                    Health check")
	fmt.Println("  GET /v1/depths                 Depth levels (depths.json)")
	fmt.Println("  GET /v1/times                  Time labels (times.json)")
	fmt.Println("  GET /v1/tiles/:time/:depth     GeoJSON tile for one time and depth")
	fmt.Println("  GET /metrics                   Prometheus metrics")
	fmt.Println()
}
