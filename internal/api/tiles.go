package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/model"
	"github.com/willie68/go_mapmosaic/internal/provider"
	"github.com/willie68/go_mapmosaic/internal/utils/measurement"
)

type tileService interface {
	FTile(ctx context.Context, tile model.Tile) (io.ReadCloser, error)
}

// XYZHandler delivers the provider tiles the tiles surface renders from
type XYZHandler struct {
	log     *slog.Logger
	tiles   tileService
	metrics *measurement.Service
}

func NewXYZHandler(ts tileService, ms *measurement.Service) *chi.Mux {
	th := &XYZHandler{
		log:     logging.New("api.tiles"),
		tiles:   ts,
		metrics: ms,
	}
	router := chi.NewRouter()
	router.Get("/{provider}/{z}/{x}/{y}", th.GetTileHandler)
	return router
}

// GetTileHandler URL: /api/v1/tiles/{provider}/{z}/{x}/{y}.png
func (h *XYZHandler) GetTileHandler(w http.ResponseWriter, r *http.Request) {
	td := h.metrics.Start("getTile")
	defer td.Stop()

	tile, err := h.getRequestParameter(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Path error: %s", err.Error()), http.StatusBadRequest)
		return
	}

	rd, err := h.tiles.FTile(r.Context(), tile)
	if errors.Is(err, provider.ErrNotFound) {
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}
	if err != nil {
		td.SetError()
		h.log.Error(fmt.Sprintf("System error: %v", err))
		http.Error(w, fmt.Sprintf("System error: %s", err.Error()), http.StatusBadGateway)
		return
	}
	defer rd.Close()

	w.Header().Set("Content-Type", "image/png")
	if _, err := io.Copy(w, rd); err != nil {
		h.log.Debug(fmt.Sprintf("writing tile %s: %v", tile.String(), err))
	}
}

func (h *XYZHandler) getRequestParameter(r *http.Request) (tile model.Tile, err error) {
	tile.Provider = chi.URLParam(r, "provider")
	zs := chi.URLParam(r, "z")
	xs := chi.URLParam(r, "x")
	ys := chi.URLParam(r, "y")

	tile.Z, err = strconv.Atoi(zs)
	if err != nil {
		return tile, errors.New("error in zoom level")
	}
	tile.X, err = strconv.Atoi(xs)
	if err != nil {
		return tile, errors.New("error in x axis")
	}
	ys = strings.TrimSuffix(ys, filepath.Ext(ys))
	tile.Y, err = strconv.Atoi(ys)
	if err != nil {
		return tile, errors.New("error in y axis")
	}
	if !tile.Valid() {
		return tile, errors.New("invalid tile coordinates")
	}
	return tile, nil
}
