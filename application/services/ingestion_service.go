package services

import (
	"context"

	appcognitive "mnemo-backend/application/cognitive"
	"mnemo-backend/application/ports"
	"mnemo-backend/application/retrieval"
	"mnemo-backend/domain/graph"
	pkgerrors "mnemo-backend/pkg/errors"

	"go.uber.org/zap"
)

// IngestionService is the entry point the text/voice ingestion agents call:
// free text in, a MemoryContext out for downstream memory formation, plus a
// post-extraction synchronization hook.
type IngestionService struct {
	engine   *retrieval.Engine
	adapter  *appcognitive.Adapter
	entities ports.EntityRepository
	logger   *zap.Logger
}

// NewIngestionService creates the ingestion entry point
func NewIngestionService(
	engine *retrieval.Engine,
	adapter *appcognitive.Adapter,
	entities ports.EntityRepository,
	logger *zap.Logger,
) *IngestionService {
	return &IngestionService{
		engine:   engine,
		adapter:  adapter,
		entities: entities,
		logger:   logger,
	}
}

// ProcessText retrieves the memory context relevant to a piece of incoming
// text. The personal-focus preset is chosen automatically for first-person
// text; ingestion callers do not tune retrieval themselves.
func (s *IngestionService) ProcessText(ctx context.Context, text string) (*retrieval.MemoryContext, error) {
	if text == "" {
		return nil, pkgerrors.NewValidationError("text cannot be empty")
	}

	cfg := retrieval.DefaultConfiguration()
	if retrieval.DetectPersonal(text) {
		cfg = retrieval.PersonalFocusConfiguration()
	}
	return s.engine.Retrieve(ctx, text, cfg)
}

// SyncExtractedEntities synchronizes a batch of freshly extracted entities
// into the cognitive layers. Called by the ingestion pipeline once entity
// extraction completes.
func (s *IngestionService) SyncExtractedEntities(ctx context.Context, entities []*graph.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	s.logger.Debug("syncing extracted entities", zap.Int("count", len(entities)))
	return s.adapter.SyncEntities(ctx, entities)
}

// SyncEntitiesByID loads the named entities and synchronizes them. An empty
// id list sweeps every entity; callers wanting full convergence including
// fold-back and fusion materialization run FullSync instead.
func (s *IngestionService) SyncEntitiesByID(ctx context.Context, entityIDs []string) error {
	var entities []*graph.Entity

	if len(entityIDs) == 0 {
		all, err := s.entities.All(ctx)
		if err != nil {
			return pkgerrors.NewStoreFetchFailed("entities", err)
		}
		entities = all
	} else {
		for _, id := range entityIDs {
			entity, err := s.entities.GetByID(ctx, id)
			if err != nil {
				return err
			}
			entities = append(entities, entity)
		}
	}
	return s.adapter.SyncEntities(ctx, entities)
}

// FullSync runs the adapter's convergence pass
func (s *IngestionService) FullSync(ctx context.Context) error {
	return s.adapter.FullSync(ctx)
}
