// Package services provides the thin application services layered over the
// retrieval engine and the cognitive adapter: graph traversal helpers and
// the ingestion entry point.
package services

import (
	"context"

	appcognitive "mnemo-backend/application/cognitive"
	"mnemo-backend/application/ports"
	"mnemo-backend/domain/graph"
	pkgerrors "mnemo-backend/pkg/errors"

	"go.uber.org/zap"
)

// GraphService exposes traversal helpers over the synchronized knowledge
// graph. Traversal is undirected: relationship subject/object order carries
// no meaning for connectivity.
type GraphService struct {
	entities      ports.EntityRepository
	relationships ports.RelationshipRepository
	adapter       *appcognitive.Adapter
	logger        *zap.Logger
}

// NewGraphService creates a graph query service
func NewGraphService(
	entities ports.EntityRepository,
	relationships ports.RelationshipRepository,
	adapter *appcognitive.Adapter,
	logger *zap.Logger,
) *GraphService {
	return &GraphService{
		entities:      entities,
		relationships: relationships,
		adapter:       adapter,
		logger:        logger,
	}
}

// ShortestPath returns the entity ids along the shortest undirected path
// between two entities, inclusive of both endpoints. An empty slice means
// the entities are not connected.
func (s *GraphService) ShortestPath(ctx context.Context, fromID, toID string) ([]string, error) {
	if fromID == "" || toID == "" {
		return nil, pkgerrors.NewValidationError("both path endpoints are required")
	}
	if _, err := s.entities.GetByID(ctx, fromID); err != nil {
		return nil, err
	}
	if _, err := s.entities.GetByID(ctx, toID); err != nil {
		return nil, err
	}
	if fromID == toID {
		return []string{fromID}, nil
	}

	adjacency, err := s.adjacency(ctx)
	if err != nil {
		return nil, err
	}

	// Breadth-first search from fromID
	parent := map[string]string{fromID: ""}
	queue := []string{fromID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range adjacency[current] {
			if _, visited := parent[next]; visited {
				continue
			}
			parent[next] = current
			if next == toID {
				return rebuildPath(parent, fromID, toID), nil
			}
			queue = append(queue, next)
		}
	}
	return []string{}, nil
}

// ConnectedComponents groups every entity into its undirected component.
// Isolated entities form singleton components.
func (s *GraphService) ConnectedComponents(ctx context.Context) ([][]string, error) {
	entities, err := s.entities.All(ctx)
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("entities", err)
	}
	adjacency, err := s.adjacency(ctx)
	if err != nil {
		return nil, err
	}

	visited := make(map[string]bool)
	var components [][]string

	for _, entity := range entities {
		if visited[entity.ID] {
			continue
		}

		var component []string
		stack := []string{entity.ID}
		visited[entity.ID] = true
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, current)

			for _, next := range adjacency[current] {
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}
		components = append(components, component)
	}
	return components, nil
}

// Neighbors returns the entities directly connected to the given entity
func (s *GraphService) Neighbors(ctx context.Context, entityID string) ([]*graph.Entity, error) {
	if _, err := s.entities.GetByID(ctx, entityID); err != nil {
		return nil, err
	}

	relationships, err := s.relationships.All(ctx)
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("relationships", err)
	}

	seen := make(map[string]bool)
	var neighbors []*graph.Entity
	for _, rel := range relationships {
		other, ok := rel.Other(entityID)
		if !ok || seen[other] {
			continue
		}
		seen[other] = true

		entity, err := s.entities.GetByID(ctx, other)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		neighbors = append(neighbors, entity)
	}
	return neighbors, nil
}

// SimilarEntities delegates to the adapter's cognitive similarity search
func (s *GraphService) SimilarEntities(ctx context.Context, query string, limit int, threshold float64) ([]appcognitive.EntityMatch, error) {
	return s.adapter.FindSimilarEntities(ctx, query, limit, threshold)
}

// adjacency builds an undirected adjacency list from all relationships
func (s *GraphService) adjacency(ctx context.Context) (map[string][]string, error) {
	relationships, err := s.relationships.All(ctx)
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("relationships", err)
	}

	adjacency := make(map[string][]string)
	for _, rel := range relationships {
		adjacency[rel.SubjectID] = append(adjacency[rel.SubjectID], rel.ObjectID)
		adjacency[rel.ObjectID] = append(adjacency[rel.ObjectID], rel.SubjectID)
	}
	return adjacency, nil
}

// rebuildPath walks parent pointers back from the target to the source
func rebuildPath(parent map[string]string, fromID, toID string) []string {
	var reversed []string
	for current := toID; current != ""; current = parent[current] {
		reversed = append(reversed, current)
		if current == fromID {
			break
		}
	}

	path := make([]string, len(reversed))
	for i, id := range reversed {
		path[len(reversed)-1-i] = id
	}
	return path
}
