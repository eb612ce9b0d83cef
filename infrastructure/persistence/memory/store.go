// Package memory provides in-memory implementations of every persistence
// port, used for local development and tests. Matching semantics mirror the
// DynamoDB implementation: term predicates over the collection's text
// fields, store-level sort, limit-bounded results.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"mnemo-backend/application/ports"
	"mnemo-backend/domain/cognitive"
	"mnemo-backend/domain/graph"
	domainmemory "mnemo-backend/domain/memory"
	pkgerrors "mnemo-backend/pkg/errors"
)

// Store is an in-memory implementation of all persistence ports
type Store struct {
	mu            sync.RWMutex
	shortTerm     map[string]*domainmemory.ShortTermMemory
	longTerm      map[string]*domainmemory.LongTermMemory
	episodic      map[string]*domainmemory.EpisodicMemory
	notes         map[string]*domainmemory.Note
	entities      map[string]*graph.Entity
	relationships map[string]*graph.Relationship
	nodes         map[cognitive.LayerType]map[string]cognitive.Node
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	nodes := make(map[cognitive.LayerType]map[string]cognitive.Node)
	for _, layer := range []cognitive.LayerType{
		cognitive.LayerVeridical,
		cognitive.LayerSemantic,
		cognitive.LayerEpisodic,
		cognitive.LayerFusion,
	} {
		nodes[layer] = make(map[string]cognitive.Node)
	}
	return &Store{
		shortTerm:     make(map[string]*domainmemory.ShortTermMemory),
		longTerm:      make(map[string]*domainmemory.LongTermMemory),
		episodic:      make(map[string]*domainmemory.EpisodicMemory),
		notes:         make(map[string]*domainmemory.Note),
		entities:      make(map[string]*graph.Entity),
		relationships: make(map[string]*graph.Relationship),
		nodes:         nodes,
	}
}

// matches reports whether any query term matches any of the fields, exactly
// or as a substring. An empty term list matches nothing.
func matches(terms []string, fields ...string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, field := range fields {
		lower := strings.ToLower(field)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return true
			}
		}
	}
	return false
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// ShortTermMemories returns the short-term memory repository view
func (s *Store) ShortTermMemories() ports.ShortTermMemoryRepository { return (*shortTermRepo)(s) }

// LongTermMemories returns the long-term memory repository view
func (s *Store) LongTermMemories() ports.LongTermMemoryRepository { return (*longTermRepo)(s) }

// EpisodicMemories returns the episodic memory repository view
func (s *Store) EpisodicMemories() ports.EpisodicMemoryRepository { return (*episodicRepo)(s) }

// Notes returns the note repository view
func (s *Store) Notes() ports.NoteRepository { return (*noteRepo)(s) }

// Entities returns the entity repository view
func (s *Store) Entities() ports.EntityRepository { return (*entityRepo)(s) }

// Relationships returns the relationship repository view
func (s *Store) Relationships() ports.RelationshipRepository { return (*relationshipRepo)(s) }

// CognitiveNodes returns the cognitive node repository view
func (s *Store) CognitiveNodes() ports.CognitiveNodeRepository { return (*cognitiveRepo)(s) }

type shortTermRepo Store

func (r *shortTermRepo) Match(_ context.Context, q ports.MatchQuery) ([]*domainmemory.ShortTermMemory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domainmemory.ShortTermMemory
	for _, m := range r.shortTerm {
		if matches(q.Terms, m.Content) {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Descending {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return truncate(out, q.Limit), nil
}

func (r *shortTermRepo) Save(_ context.Context, m *domainmemory.ShortTermMemory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *m
	r.shortTerm[m.ID] = &copied
	return nil
}

type longTermRepo Store

func (r *longTermRepo) Match(_ context.Context, q ports.MatchQuery) ([]*domainmemory.LongTermMemory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domainmemory.LongTermMemory
	for _, m := range r.longTerm {
		if matches(q.Terms, m.Content, m.Summary) {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Descending {
			return out[i].LastAccessed.After(out[j].LastAccessed)
		}
		return out[i].LastAccessed.Before(out[j].LastAccessed)
	})
	return truncate(out, q.Limit), nil
}

func (r *longTermRepo) Save(_ context.Context, m *domainmemory.LongTermMemory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *m
	r.longTerm[m.ID] = &copied
	return nil
}

type episodicRepo Store

func (r *episodicRepo) Match(_ context.Context, q ports.MatchQuery) ([]*domainmemory.EpisodicMemory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domainmemory.EpisodicMemory
	for _, m := range r.episodic {
		fields := []string{m.EventDescription, m.Location,
			strings.Join(m.Participants, " "), strings.Join(m.ContextualCues, " ")}
		if matches(q.Terms, fields...) {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Descending {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return truncate(out, q.Limit), nil
}

func (r *episodicRepo) Save(_ context.Context, m *domainmemory.EpisodicMemory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *m
	r.episodic[m.ID] = &copied
	return nil
}

type noteRepo Store

func (r *noteRepo) Match(_ context.Context, q ports.MatchQuery) ([]*domainmemory.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domainmemory.Note
	for _, n := range r.notes {
		fields := []string{n.OriginalText, n.Summary,
			strings.Join(n.Topics, " "), strings.Join(n.ExtractedKeywords, " ")}
		if matches(q.Terms, fields...) {
			copied := *n
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Descending {
			return out[i].LastAccessed.After(out[j].LastAccessed)
		}
		return out[i].LastAccessed.Before(out[j].LastAccessed)
	})
	return truncate(out, q.Limit), nil
}

func (r *noteRepo) Save(_ context.Context, n *domainmemory.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *n
	r.notes[n.ID] = &copied
	return nil
}

type entityRepo Store

func (r *entityRepo) Match(_ context.Context, q ports.MatchQuery) ([]*graph.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*graph.Entity
	for _, e := range r.entities {
		fields := []string{e.Name, e.Description, string(e.Type),
			strings.Join(e.Aliases, " "), strings.Join(e.Tags, " ")}
		if matches(q.Terms, fields...) {
			copied := *e
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Descending {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Importance < out[j].Importance
	})
	return truncate(out, q.Limit), nil
}

func (r *entityRepo) GetByID(_ context.Context, id string) (*graph.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	if !ok {
		return nil, pkgerrors.NewEntityNotFound(id)
	}
	copied := *e
	return &copied, nil
}

func (r *entityRepo) All(_ context.Context) ([]*graph.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*graph.Entity, 0, len(r.entities))
	for _, e := range r.entities {
		copied := *e
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *entityRepo) Save(_ context.Context, e *graph.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *e
	r.entities[e.ID] = &copied
	return nil
}

type relationshipRepo Store

func (r *relationshipRepo) Match(_ context.Context, q ports.MatchQuery) ([]*graph.Relationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*graph.Relationship
	for _, rel := range r.relationships {
		if matches(q.Terms, string(rel.Predicate), rel.Context) {
			copied := *rel
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Descending {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Importance < out[j].Importance
	})
	return truncate(out, q.Limit), nil
}

func (r *relationshipRepo) FindBetween(_ context.Context, entityA, entityB string) (*graph.Relationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rel := range r.relationships {
		if rel.Connects(entityA, entityB) {
			copied := *rel
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *relationshipRepo) All(_ context.Context) ([]*graph.Relationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*graph.Relationship, 0, len(r.relationships))
	for _, rel := range r.relationships {
		copied := *rel
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *relationshipRepo) Save(_ context.Context, rel *graph.Relationship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *rel
	r.relationships[rel.ID] = &copied
	return nil
}

type cognitiveRepo Store

func (r *cognitiveRepo) Insert(_ context.Context, node cognitive.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	layer := r.nodes[node.Layer()]
	if _, exists := layer[node.Base().ID]; exists {
		return pkgerrors.NewConflictError("cognitive node already exists")
	}
	layer[node.Base().ID] = node
	return nil
}

func (r *cognitiveRepo) Update(_ context.Context, node cognitive.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	layer := r.nodes[node.Layer()]
	if _, exists := layer[node.Base().ID]; !exists {
		return pkgerrors.NewCognitiveNodeNotFound(node.Base().ID)
	}
	layer[node.Base().ID] = node
	return nil
}

func (r *cognitiveRepo) FindByID(_ context.Context, nodeID string) (cognitive.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, layer := range cognitive.AddressableLayers {
		if node, ok := r.nodes[layer][nodeID]; ok {
			return node, nil
		}
	}
	return nil, pkgerrors.NewCognitiveNodeNotFound(nodeID)
}

func (r *cognitiveRepo) NodesByLayer(_ context.Context, layer cognitive.LayerType) ([]cognitive.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	collection, ok := r.nodes[layer]
	if !ok {
		return nil, pkgerrors.NewValidationError("unknown cognitive layer")
	}
	out := make([]cognitive.Node, 0, len(collection))
	for _, node := range collection {
		out = append(out, node)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Base().CreatedAt.Before(out[j].Base().CreatedAt)
	})
	return out, nil
}

func (r *cognitiveRepo) FusionNodes(_ context.Context) ([]*cognitive.FusionNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	collection := r.nodes[cognitive.LayerFusion]
	out := make([]*cognitive.FusionNode, 0, len(collection))
	for _, node := range collection {
		if fusion, ok := node.(*cognitive.FusionNode); ok {
			out = append(out, fusion)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// InsertFusion stores a fusion node, bypassing the entity-sync guard; this
// stands in for the external fusion process in local runs and tests.
func (s *Store) InsertFusion(node *cognitive.FusionNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[cognitive.LayerFusion][node.ID] = node
}
