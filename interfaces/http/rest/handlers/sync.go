package handlers

import (
	"net/http"
	"time"

	"mnemo-backend/application/services"
	"mnemo-backend/pkg/common"
	pkgerrors "mnemo-backend/pkg/errors"
	"mnemo-backend/pkg/observability"

	"go.uber.org/zap"
)

// SyncHandler serves the entity-to-cognitive synchronization endpoints
type SyncHandler struct {
	ingestion *services.IngestionService
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewSyncHandler creates the sync handler
func NewSyncHandler(ingestion *services.IngestionService, metrics *observability.Metrics, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		ingestion: ingestion,
		metrics:   metrics,
		logger:    logger,
	}
}

type syncEntitiesRequest struct {
	EntityIDs []string `json:"entityIds,omitempty"`
}

type syncResponse struct {
	Status string `json:"status"`
}

// SyncEntities handles POST /sync/entities. With no ids every entity is
// synced.
func (h *SyncHandler) SyncEntities(w http.ResponseWriter, r *http.Request) {
	var req syncEntitiesRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body"))
		return
	}

	started := time.Now()
	err := h.ingestion.SyncEntitiesByID(r.Context(), req.EntityIDs)
	h.metrics.RecordSync(r.Context(), "entities", len(req.EntityIDs), time.Since(started), err)
	if err != nil {
		h.logger.Error("entity sync failed", zap.Error(err), zap.Int("requested", len(req.EntityIDs)))
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, syncResponse{Status: "synced"})
}

// FullSync handles POST /sync/full
func (h *SyncHandler) FullSync(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	err := h.ingestion.FullSync(r.Context())
	h.metrics.RecordSync(r.Context(), "full", 0, time.Since(started), err)
	if err != nil {
		h.logger.Error("full sync failed", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, syncResponse{Status: "synced"})
}
