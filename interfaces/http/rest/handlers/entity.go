package handlers

import (
	"net/http"
	"strconv"

	"mnemo-backend/application/ports"
	"mnemo-backend/application/retrieval"
	"mnemo-backend/application/services"
	domaincfg "mnemo-backend/domain/config"
	"mnemo-backend/pkg/common"
	pkgerrors "mnemo-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EntityHandler serves read-only access to the entity graph
type EntityHandler struct {
	entities ports.EntityRepository
	graph    *services.GraphService
	domain   *domaincfg.DomainConfig
	logger   *zap.Logger
}

// NewEntityHandler creates the entity handler
func NewEntityHandler(
	entities ports.EntityRepository,
	graph *services.GraphService,
	domain *domaincfg.DomainConfig,
	logger *zap.Logger,
) *EntityHandler {
	if domain == nil {
		domain = domaincfg.DefaultDomainConfig()
	}
	return &EntityHandler{
		entities: entities,
		graph:    graph,
		domain:   domain,
		logger:   logger,
	}
}

// List handles GET /entities. An optional q parameter narrows the listing
// to term matches.
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := intParam(r, "limit", 50)

	if query == "" {
		entities, err := h.entities.All(r.Context())
		if err != nil {
			common.RespondAppError(w, err)
			return
		}
		if limit > 0 && len(entities) > limit {
			entities = entities[:limit]
		}
		common.RespondJSON(w, http.StatusOK, entities)
		return
	}

	terms := retrieval.Tokenize(query, h.domain.MinTermLength)
	entities, err := h.entities.Match(r.Context(), ports.MatchQuery{
		Terms:      terms,
		SortBy:     ports.SortByImportance,
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, entities)
}

// Get handles GET /entities/{id}
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		common.RespondAppError(w, pkgerrors.NewValidationError("entity id is required"))
		return
	}

	entity, err := h.entities.GetByID(r.Context(), id)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, entity)
}

// Similar handles GET /entities/similar. Relevance comes from the cognitive
// search capability, not from term matching.
func (h *EntityHandler) Similar(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		common.RespondAppError(w, pkgerrors.NewValidationError("q parameter is required"))
		return
	}
	limit := intParam(r, "limit", 10)
	threshold := floatParam(r, "threshold", 0.0)

	matches, err := h.graph.SimilarEntities(r.Context(), query, limit, threshold)
	if err != nil {
		h.logger.Error("similarity search failed", zap.Error(err), zap.String("query", query))
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, matches)
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func floatParam(r *http.Request, name string, def float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}
