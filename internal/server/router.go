package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelworks/brain/internal/api"
	"github.com/reelworks/brain/internal/api/handlers"
	"github.com/reelworks/brain/internal/api/middleware"
)

type RouterConfig struct {
	ServiceKey     string
	GatherHandler  *handlers.GatherHandler
	NodeHandler    *handlers.NodeHandler
	ProfileHandler *handlers.ProfileHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.ServiceKey))

		r.Route("/nodes", func(r chi.Router) {
			r.Post("/batch", cfg.GatherHandler.CreateBatch)
			r.Get("/", cfg.NodeHandler.List)
			r.Get("/{id}", cfg.NodeHandler.Get)
		})

		r.Post("/duplicates/search", cfg.GatherHandler.SearchDuplicates)
		r.Post("/context/segment", cfg.GatherHandler.SegmentContext)
		r.Post("/coverage/analyze", cfg.GatherHandler.AnalyzeCoverage)

		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", cfg.ProfileHandler.Create)
			r.Post("/search", cfg.ProfileHandler.Search)
			r.Get("/{id}", cfg.ProfileHandler.Get)
		})

		r.Get("/stats", cfg.NodeHandler.Stats)
	})

	return r
}
