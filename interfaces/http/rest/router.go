// Package rest wires the HTTP surface: middleware stack, route table and
// health probes.
package rest

import (
	"net/http"

	"mnemo-backend/interfaces/http/rest/handlers"
	"mnemo-backend/interfaces/http/rest/middleware"
	"mnemo-backend/pkg/auth"
	"mnemo-backend/pkg/common"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	retrieval  *handlers.RetrievalHandler
	sync       *handlers.SyncHandler
	entity     *handlers.EntityHandler
	graph      *handlers.GraphHandler
	validator  *auth.Validator
	enableCORS bool
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	retrievalHandler *handlers.RetrievalHandler,
	syncHandler *handlers.SyncHandler,
	entityHandler *handlers.EntityHandler,
	graphHandler *handlers.GraphHandler,
	validator *auth.Validator,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		retrieval:  retrievalHandler,
		sync:       syncHandler,
		entity:     entityHandler,
		graph:      graphHandler,
		validator:  validator,
		enableCORS: enableCORS,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))
		r.Use(middleware.RequireUser)

		r.Post("/retrieve", rt.retrieval.Retrieve)
		r.Post("/ingest", rt.retrieval.Ingest)

		r.Route("/sync", func(r chi.Router) {
			r.Post("/entities", rt.sync.SyncEntities)
			r.Post("/full", rt.sync.FullSync)
		})

		r.Route("/entities", func(r chi.Router) {
			r.Get("/", rt.entity.List)
			r.Get("/similar", rt.entity.Similar)
			r.Get("/{id}", rt.entity.Get)
		})

		r.Get("/relationships", rt.graph.ListRelationships)

		r.Route("/graph", func(r chi.Router) {
			r.Get("/path", rt.graph.ShortestPath)
			r.Get("/components", rt.graph.Components)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
