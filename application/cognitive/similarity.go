package cognitive

import (
	"context"
	"sort"

	"mnemo-backend/domain/cognitive"
	"mnemo-backend/domain/graph"
	pkgerrors "mnemo-backend/pkg/errors"

	"go.uber.org/zap"
)

// EntityMatch is one similarity-search result: an entity, the relevance the
// cognitive search assigned to its node, and the layer the node lives in.
type EntityMatch struct {
	Entity    *graph.Entity       `json:"entity"`
	Relevance float64             `json:"relevance"`
	Layer     cognitive.LayerType `json:"layer"`
}

// FindSimilarEntities searches the cognitive layers for nodes matching the
// query, filters by the caller's relevance threshold, and resolves nodes
// back to entities. Hits whose node-to-entity mapping cannot be resolved
// are skipped rather than failing the search; stale mappings are expected.
func (a *Adapter) FindSimilarEntities(ctx context.Context, query string, limit int, threshold float64) ([]EntityMatch, error) {
	if limit <= 0 {
		limit = 10
	}

	// Overfetch: some hits will not resolve to a mapped entity
	hits, err := a.searcher.Search(ctx, query, limit*2)
	if err != nil {
		return nil, pkgerrors.NewExternalError("cognitive search", err)
	}

	matches := make([]EntityMatch, 0, len(hits))
	for _, hit := range hits {
		if hit.Relevance < threshold {
			continue
		}

		entityID, ok := a.mapping.EntityFor(hit.NodeID)
		if !ok {
			continue
		}

		entity, err := a.entities.GetByID(ctx, entityID)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				a.logger.Debug("skipping stale node mapping",
					zap.String("nodeId", hit.NodeID),
					zap.String("entityId", entityID),
				)
				continue
			}
			return nil, pkgerrors.NewStoreFetchFailed("entities", err)
		}

		entity.SetRelevance(hit.Relevance)
		matches = append(matches, EntityMatch{
			Entity:    entity,
			Relevance: hit.Relevance,
			Layer:     hit.Layer,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Relevance > matches[j].Relevance
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
