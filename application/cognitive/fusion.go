package cognitive

import (
	"context"
	"fmt"

	"mnemo-backend/domain/cognitive"
	"mnemo-backend/domain/graph"
	pkgerrors "mnemo-backend/pkg/errors"

	"go.uber.org/zap"
)

// CreateRelationshipsFromFusions promotes fusion-layer cross-references
// into graph relationships. Source nodes with no mapped entity are dropped;
// a fusion needs at least two resolved entities to produce edges. An
// existing edge between a pair (in either direction) is strengthened, never
// duplicated.
func (a *Adapter) CreateRelationshipsFromFusions(ctx context.Context, fusions []*cognitive.FusionNode) error {
	for _, fusion := range fusions {
		entityIDs := a.resolveFusionEntities(fusion)
		if len(entityIDs) < a.domain.MinFusionSources {
			a.logger.Debug("fusion node resolved too few entities",
				zap.String("fusionId", fusion.ID),
				zap.Int("resolved", len(entityIDs)),
			)
			continue
		}

		for i := 0; i < len(entityIDs); i++ {
			for j := i + 1; j < len(entityIDs); j++ {
				if err := a.materializePair(ctx, fusion, entityIDs[i], entityIDs[j]); err != nil {
					return err
				}
			}
		}

		if err := a.recordFusionParticipation(ctx, fusion, entityIDs); err != nil {
			return err
		}
	}
	return nil
}

// resolveFusionEntities maps a fusion node's source nodes back to entity
// ids through the inverse mapping, dropping unmapped sources and duplicates
func (a *Adapter) resolveFusionEntities(fusion *cognitive.FusionNode) []string {
	seen := make(map[string]bool)
	entityIDs := make([]string, 0, len(fusion.SourceNodeIDs))
	for _, nodeID := range fusion.SourceNodeIDs {
		entityID, ok := a.mapping.EntityFor(nodeID)
		if !ok || seen[entityID] {
			continue
		}
		seen[entityID] = true
		entityIDs = append(entityIDs, entityID)
	}
	return entityIDs
}

// materializePair strengthens or creates the edge between two entities
func (a *Adapter) materializePair(ctx context.Context, fusion *cognitive.FusionNode, entityA, entityB string) error {
	existing, err := a.relationships.FindBetween(ctx, entityA, entityB)
	if err != nil {
		return pkgerrors.NewStoreFetchFailed("relationships", err)
	}

	if existing != nil {
		if fusion.Importance > existing.Importance {
			existing.Strengthen(fusion.Importance)
			if err := a.relationships.Save(ctx, existing); err != nil {
				return pkgerrors.NewStorePersistFailed("relationships", err)
			}
		}
		return nil
	}

	rel, err := graph.NewRelationship(entityA, predicateForFusion(fusion.FusionType), entityB)
	if err != nil {
		return err
	}
	rel.Confidence = fusion.Coherence
	rel.Importance = fusion.Importance
	rel.Context = fmt.Sprintf("derived from %s fusion", fusion.FusionType)
	rel.Source = graph.SourceCognitiveFusion

	if err := a.relationships.Save(ctx, rel); err != nil {
		return pkgerrors.NewStorePersistFailed("relationships", err)
	}

	a.logger.Debug("relationship materialized from fusion",
		zap.String("fusionId", fusion.ID),
		zap.String("subject", entityA),
		zap.String("object", entityB),
		zap.String("predicate", string(rel.Predicate)),
	)
	return nil
}

// recordFusionParticipation books the fusion connection onto each resolved
// entity, once per fusion node
func (a *Adapter) recordFusionParticipation(ctx context.Context, fusion *cognitive.FusionNode, entityIDs []string) error {
	for _, entityID := range entityIDs {
		entity, err := a.entities.GetByID(ctx, entityID)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				continue
			}
			return pkgerrors.NewStoreFetchFailed("entities", err)
		}

		before := len(entity.FusionConnections)
		entity.AddFusionConnection(fusion.ID)
		if len(entity.FusionConnections) == before {
			continue
		}
		if err := a.entities.Save(ctx, entity); err != nil {
			return pkgerrors.NewStorePersistFailed("entities", err)
		}
	}
	return nil
}

// predicateForFusion derives the relationship predicate from the fusion type
func predicateForFusion(t cognitive.FusionType) graph.PredicateType {
	switch t {
	case cognitive.FusionTemporal:
		return graph.PredicateTemporallyRelatedTo
	case cognitive.FusionCausal:
		return graph.PredicateCauses
	case cognitive.FusionAnalogical:
		return graph.PredicateSimilarTo
	default:
		// cross-layer, within-layer and conceptual fusions all read as
		// generic relatedness
		return graph.PredicateRelatedTo
	}
}
