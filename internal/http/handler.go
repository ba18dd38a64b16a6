package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/currents-tiles/internal/metrics"
	"go.ngs.io/currents-tiles/internal/usecase"
)

// Handler handles HTTP requests for current tiles.
type Handler struct {
	tiles *usecase.TileService
}

// NewHandler creates a new HTTP handler.
func NewHandler(tiles *usecase.TileService) *Handler {
	return &Handler{
		tiles: tiles,
	}
}

// GetDepths handles GET /v1/depths.
// The body matches depths.json so clients can use either.
func (h *Handler) GetDepths(c *gin.Context) {
	catalog, err := h.tiles.Catalog()
	if err != nil {
		h.fail(c, "depths", http.StatusServiceUnavailable, err)
		return
	}
	countRequest("depths", http.StatusOK)
	c.JSON(http.StatusOK, catalog.Depths)
}

// GetTimes handles GET /v1/times.
func (h *Handler) GetTimes(c *gin.Context) {
	catalog, err := h.tiles.Catalog()
	if err != nil {
		h.fail(c, "times", http.StatusServiceUnavailable, err)
		return
	}
	countRequest("times", http.StatusOK)
	c.JSON(http.StatusOK, catalog.Times)
}

// GetTile handles GET /v1/tiles/:time/:depth.
// The depth segment may carry the tile extension ("0.49.geojson").
func (h *Handler) GetTile(c *gin.Context) {
	timeLabel := c.Param("time")
	depthLabel := strings.TrimSuffix(c.Param("depth"), "."+h.tiles.Extension())

	data, err := h.tiles.Tile(timeLabel, depthLabel)
	switch {
	case errors.Is(err, usecase.ErrUnknownTime), errors.Is(err, usecase.ErrUnknownDepth):
		h.fail(c, "tiles", http.StatusNotFound, err)
		return
	case errors.Is(err, usecase.ErrTileNotFound):
		// Listed slice without ocean cells.
		countRequest("tiles", http.StatusNotFound)
		c.JSON(http.StatusNotFound, gin.H{"error": "no data for this time and depth"})
		return
	case err != nil:
		h.fail(c, "tiles", http.StatusInternalServerError, err)
		return
	}

	countRequest("tiles", http.StatusOK)
	c.Data(http.StatusOK, "application/geo+json", data)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) fail(c *gin.Context, endpoint string, status int, err error) {
	countRequest(endpoint, status)
	c.JSON(status, gin.H{"error": err.Error()})
}

func countRequest(endpoint string, status int) {
	metrics.TileRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}
