package measurement

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Routes the metrics endpoints of the service
func Routes(ms *Service) *chi.Mux {
	router := chi.NewRouter()
	router.Get("/", GetMetricsHandler(ms))
	router.Post("/reset", ResetMetricsHandler(ms))
	router.Post("/reset/{name}", ResetPointHandler(ms))
	return router
}

func GetMetricsHandler(ms *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusOK)
		render.JSON(w, r, ms.Datas())
	}
}

func ResetMetricsHandler(ms *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ms.Reset()
		render.NoContent(w, r)
	}
}

func ResetPointHandler(ms *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ms.Point(chi.URLParam(r, "name")).Reset()
		render.NoContent(w, r)
	}
}
