// Package api serves the preview of the mosaic and the status of a run
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do/v2"

	"github.com/willie68/go_mapmosaic/internal/grid"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/mosaic"
	"github.com/willie68/go_mapmosaic/internal/utils/measurement"
)

const (
	// APIVersion the actual implemented api version
	APIVersion = "1"
	// BaseURL the prefix of all versioned routes
	BaseURL = "/api/v" + APIVersion
)

var logger = logging.New("api")

type board interface {
	Grid() *grid.TileGrid
	Preview() ([]byte, mosaic.Offset, time.Time, bool)
}

// GridInfo the state of the capture grid
type GridInfo struct {
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	Filled  []grid.Cell `json:"filled"`
	Missing []grid.Cell `json:"missing"`
	Done    bool        `json:"complete"`
}

// Routes creates the router with all endpoints. The tile route is only
// present when a tile service is registered.
func Routes(inj do.Injector) (*chi.Mux, error) {
	b, err := do.InvokeAs[board](inj)
	if err != nil {
		return nil, errors.Wrap(err, "no preview board")
	}
	ms, err := do.Invoke[*measurement.Service](inj)
	if err != nil {
		return nil, errors.Wrap(err, "no metrics")
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(measurement.NewCollector(ms)); err != nil {
		return nil, errors.Wrap(err, "can't register metrics")
	}
	reg.MustRegister(collectors.NewGoCollector())

	router := chi.NewRouter()
	router.Use(
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}),
	)
	router.Get("/healthz", HealthHandler)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.Get("/preview.png", PreviewHandler(b))
	router.Route(BaseURL, func(r chi.Router) {
		r.Get("/grid", GridHandler(b))
		r.Mount("/metrics", measurement.Routes(ms))
		if ts, err := do.InvokeAs[tileService](inj); err == nil {
			r.Mount("/tiles", NewXYZHandler(ts, ms))
		}
	})
	return router, nil
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// PreviewHandler delivers the latest rendered preview
func PreviewHandler(b board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, off, updated, ok := b.Preview()
		if !ok {
			http.Error(w, "no preview rendered yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Last-Modified", updated.UTC().Format(http.TimeFormat))
		w.Header().Set("X-Mosaic-Offset", off.String())
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(data); err != nil {
			logger.Debug(fmt.Sprintf("writing preview: %v", err))
		}
	}
}

// GridHandler the dimensions and the filled cells of the actual grid
func GridHandler(b board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g := b.Grid()
		if g == nil {
			http.Error(w, "no grid planned yet", http.StatusNotFound)
			return
		}
		render.JSON(w, r, GridInfo{
			Width:   g.Width(),
			Height:  g.Height(),
			Filled:  g.Filled(),
			Missing: g.Missing(),
			Done:    g.Complete(),
		})
	}
}
