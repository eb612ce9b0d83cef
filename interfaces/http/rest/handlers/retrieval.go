// Package handlers implements the REST endpoints over the application
// services.
package handlers

import (
	"net/http"
	"time"

	"mnemo-backend/application/retrieval"
	"mnemo-backend/application/services"
	"mnemo-backend/pkg/common"
	pkgerrors "mnemo-backend/pkg/errors"
	"mnemo-backend/pkg/observability"
	"mnemo-backend/pkg/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// RetrievalPresets serves the current retrieval presets, which may be hot
// reloaded behind this interface
type RetrievalPresets interface {
	Default() retrieval.Configuration
	Personal() retrieval.Configuration
}

// RetrievalHandler serves memory retrieval and ingestion
type RetrievalHandler struct {
	engine    *retrieval.Engine
	ingestion *services.IngestionService
	presets   RetrievalPresets
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewRetrievalHandler creates the retrieval handler
func NewRetrievalHandler(
	engine *retrieval.Engine,
	ingestion *services.IngestionService,
	presets RetrievalPresets,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *RetrievalHandler {
	return &RetrievalHandler{
		engine:    engine,
		ingestion: ingestion,
		presets:   presets,
		metrics:   metrics,
		logger:    logger,
	}
}

type retrieveRequest struct {
	Query  string                   `json:"query" validate:"required"`
	Config *retrieval.Configuration `json:"config,omitempty"`
}

// Retrieve handles POST /retrieve
func (h *RetrievalHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	var cfg retrieval.Configuration
	switch {
	case req.Config != nil:
		if err := utils.ValidateStruct(*req.Config); err != nil {
			common.RespondAppError(w, err)
			return
		}
		cfg = *req.Config
	case retrieval.DetectPersonal(req.Query):
		cfg = h.presets.Personal()
	default:
		cfg = h.presets.Default()
	}

	started := time.Now()
	result, err := h.engine.Retrieve(r.Context(), req.Query, cfg)
	if err != nil {
		h.logger.Error("retrieval failed", zap.Error(err), zap.String("query", req.Query))
		h.metrics.RecordError(r.Context(), string(pkgerrors.ErrorTypeStore))
		common.RespondAppError(w, err)
		return
	}
	h.metrics.RecordRetrieval(r.Context(), time.Since(started), result.TotalResults(), result.IsPersonal)
	common.RespondJSON(w, http.StatusOK, result)
}

type ingestRequest struct {
	Text string `json:"text" validate:"required"`
}

// Ingest handles POST /ingest
func (h *RetrievalHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	started := time.Now()
	result, err := h.ingestion.ProcessText(r.Context(), req.Text)
	if err != nil {
		h.logger.Error("ingestion failed", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}
	h.metrics.RecordRetrieval(r.Context(), time.Since(started), result.TotalResults(), result.IsPersonal)
	common.RespondJSON(w, http.StatusOK, result)
}
