// Package ports declares the persistence and collaborator interfaces the
// application layer depends on. The domain never sees an implementation.
package ports

import (
	"context"
	"time"

	"mnemo-backend/domain/cognitive"
	"mnemo-backend/domain/graph"
	"mnemo-backend/domain/memory"
)

// Sort keys understood by every Match implementation
const (
	SortByRecency    = "recency"
	SortByImportance = "importance"
)

// MatchQuery is the store-level fetch contract: a term-match predicate over
// the collection's text fields, a sort key with direction, and a limit.
// An empty term list matches nothing.
type MatchQuery struct {
	Terms      []string
	SortBy     string
	Descending bool
	Limit      int
}

// ShortTermMemoryRepository persists short-term memories
type ShortTermMemoryRepository interface {
	Match(ctx context.Context, q MatchQuery) ([]*memory.ShortTermMemory, error)
	Save(ctx context.Context, m *memory.ShortTermMemory) error
}

// LongTermMemoryRepository persists long-term memories
type LongTermMemoryRepository interface {
	Match(ctx context.Context, q MatchQuery) ([]*memory.LongTermMemory, error)
	Save(ctx context.Context, m *memory.LongTermMemory) error
}

// EpisodicMemoryRepository persists episodic memories
type EpisodicMemoryRepository interface {
	Match(ctx context.Context, q MatchQuery) ([]*memory.EpisodicMemory, error)
	Save(ctx context.Context, m *memory.EpisodicMemory) error
}

// NoteRepository persists notes
type NoteRepository interface {
	Match(ctx context.Context, q MatchQuery) ([]*memory.Note, error)
	Save(ctx context.Context, n *memory.Note) error
}

// EntityRepository persists graph entities
type EntityRepository interface {
	Match(ctx context.Context, q MatchQuery) ([]*graph.Entity, error)
	GetByID(ctx context.Context, id string) (*graph.Entity, error)
	All(ctx context.Context) ([]*graph.Entity, error)
	Save(ctx context.Context, e *graph.Entity) error
}

// RelationshipRepository persists graph relationships
type RelationshipRepository interface {
	Match(ctx context.Context, q MatchQuery) ([]*graph.Relationship, error)

	// FindBetween returns the relationship linking the two entities in
	// either subject/object order, or (nil, nil) when no edge exists.
	FindBetween(ctx context.Context, entityA, entityB string) (*graph.Relationship, error)

	All(ctx context.Context) ([]*graph.Relationship, error)
	Save(ctx context.Context, r *graph.Relationship) error
}

// CognitiveNodeRepository persists the layered cognitive nodes
type CognitiveNodeRepository interface {
	Insert(ctx context.Context, node cognitive.Node) error
	Update(ctx context.Context, node cognitive.Node) error

	// FindByID searches the addressable layers (veridical, semantic,
	// episodic) for the node. Fusion nodes are reached only through
	// FusionNodes.
	FindByID(ctx context.Context, nodeID string) (cognitive.Node, error)

	NodesByLayer(ctx context.Context, layer cognitive.LayerType) ([]cognitive.Node, error)
	FusionNodes(ctx context.Context) ([]*cognitive.FusionNode, error)
}

// SearchHit is one result from the external cognitive search capability
type SearchHit struct {
	NodeID    string
	Layer     cognitive.LayerType
	Relevance float64
}

// CognitiveSearcher is the black-box search capability over the cognitive
// layers. Implementations may be remote; callers treat relevance scores as
// opaque and comparable only within one search.
type CognitiveSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// SyncEvent notifies collaborators of sync progress and mapping changes.
// This replaces implicit observation of the mapping tables.
type SyncEvent struct {
	Type      string    `json:"type"`
	EntityID  string    `json:"entityId,omitempty"`
	NodeID    string    `json:"nodeId,omitempty"`
	Layer     string    `json:"layer,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sync event types
const (
	EventMappingCreated   = "cognitive.mapping.created"
	EventEntitySynced     = "cognitive.entity.synced"
	EventFullSyncComplete = "cognitive.full_sync.completed"
)

// EventPublisher publishes sync events to interested collaborators
type EventPublisher interface {
	Publish(ctx context.Context, event SyncEvent) error
}
