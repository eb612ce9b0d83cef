package handlers

import (
	"net/http"

	"mnemo-backend/application/ports"
	"mnemo-backend/application/retrieval"
	"mnemo-backend/application/services"
	domaincfg "mnemo-backend/domain/config"
	"mnemo-backend/pkg/common"
	pkgerrors "mnemo-backend/pkg/errors"

	"go.uber.org/zap"
)

// GraphHandler serves relationship listing and graph traversal queries
type GraphHandler struct {
	relationships ports.RelationshipRepository
	graph         *services.GraphService
	domain        *domaincfg.DomainConfig
	logger        *zap.Logger
}

// NewGraphHandler creates the graph handler
func NewGraphHandler(
	relationships ports.RelationshipRepository,
	graph *services.GraphService,
	domain *domaincfg.DomainConfig,
	logger *zap.Logger,
) *GraphHandler {
	if domain == nil {
		domain = domaincfg.DefaultDomainConfig()
	}
	return &GraphHandler{
		relationships: relationships,
		graph:         graph,
		domain:        domain,
		logger:        logger,
	}
}

// ListRelationships handles GET /relationships with an optional q filter
func (h *GraphHandler) ListRelationships(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := intParam(r, "limit", 50)

	if query == "" {
		rels, err := h.relationships.All(r.Context())
		if err != nil {
			common.RespondAppError(w, err)
			return
		}
		if limit > 0 && len(rels) > limit {
			rels = rels[:limit]
		}
		common.RespondJSON(w, http.StatusOK, rels)
		return
	}

	terms := retrieval.Tokenize(query, h.domain.MinTermLength)
	rels, err := h.relationships.Match(r.Context(), ports.MatchQuery{
		Terms:      terms,
		SortBy:     ports.SortByRecency,
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, rels)
}

type pathResponse struct {
	Path      []string `json:"path"`
	Connected bool     `json:"connected"`
}

// ShortestPath handles GET /graph/path
func (h *GraphHandler) ShortestPath(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		common.RespondAppError(w, pkgerrors.NewValidationError("from and to parameters are required"))
		return
	}

	path, err := h.graph.ShortestPath(r.Context(), from, to)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, pathResponse{
		Path:      path,
		Connected: len(path) > 0,
	})
}

// Components handles GET /graph/components
func (h *GraphHandler) Components(w http.ResponseWriter, r *http.Request) {
	components, err := h.graph.ConnectedComponents(r.Context())
	if err != nil {
		h.logger.Error("component listing failed", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, components)
}
