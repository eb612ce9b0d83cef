// Package graph holds the knowledge-graph model: entities extracted from
// notes and transcripts, and the relationships between them.
package graph

import (
	"time"

	"mnemo-backend/domain/cognitive"
	pkgerrors "mnemo-backend/pkg/errors"

	"github.com/google/uuid"
)

// EntityType classifies a graph entity
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityLocation     EntityType = "location"
	EntityConcept      EntityType = "concept"
	EntityActivity     EntityType = "activity"
	EntityEvent        EntityType = "event"
	EntityThing        EntityType = "thing"
)

// Entity is a node in the knowledge graph. It is mutated by entity
// extraction, by cognitive sync bookkeeping and by user edits; the trust
// signals (confidence, importance, mentions, validation) only ever move up.
type Entity struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        EntityType `json:"type"`
	Description string     `json:"description,omitempty"`
	Aliases     []string   `json:"aliases,omitempty"`
	Tags        []string   `json:"tags,omitempty"`

	Confidence    float64   `json:"confidence"`
	Importance    float64   `json:"importance"`
	Mentions      int       `json:"mentions"`
	LastMentioned time.Time `json:"lastMentioned"`
	IsValidated   bool      `json:"isValidated"`

	// Cognitive sync bookkeeping
	CognitiveNodeID    string              `json:"cognitiveNodeId,omitempty"`
	CognitiveLayer     cognitive.LayerType `json:"cognitiveLayer,omitempty"`
	ConsolidationScore float64             `json:"consolidationScore"`
	RelevanceScore     float64             `json:"relevanceScore"`
	LastSyncedAt       time.Time           `json:"lastSyncedAt,omitempty"`
	FusionConnections  []string            `json:"fusionConnections,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewEntity creates an entity with one initial mention
func NewEntity(name string, entityType EntityType) (*Entity, error) {
	if name == "" {
		return nil, pkgerrors.NewValidationError("entity name cannot be empty")
	}

	now := time.Now()
	return &Entity{
		ID:            uuid.New().String(),
		Name:          name,
		Type:          entityType,
		Confidence:    0.5,
		Importance:    0.5,
		Mentions:      1,
		LastMentioned: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// RecordMention counts an additional mention observed at the given time
func (e *Entity) RecordMention(at time.Time) {
	e.Mentions++
	if at.After(e.LastMentioned) {
		e.LastMentioned = at
	}
	e.UpdatedAt = time.Now()
}

// RecordMentions counts several mentions at once, as folded back from a
// cognitive node's access counter
func (e *Entity) RecordMentions(count int, lastAccess time.Time) {
	if count <= 0 {
		return
	}
	e.Mentions += count
	if lastAccess.After(e.LastMentioned) {
		e.LastMentioned = lastAccess
	}
	e.UpdatedAt = time.Now()
}

// RaiseImportance lifts importance to v, never lowering it
func (e *Entity) RaiseImportance(v float64) {
	if v > e.Importance {
		e.Importance = clamp01(v)
		e.UpdatedAt = time.Now()
	}
}

// RaiseConfidence lifts confidence to v, never lowering it
func (e *Entity) RaiseConfidence(v float64) {
	if v > e.Confidence {
		e.Confidence = clamp01(v)
		e.UpdatedAt = time.Now()
	}
}

// MarkValidated flags the entity as validated; validation never reverts
func (e *Entity) MarkValidated() {
	if !e.IsValidated {
		e.IsValidated = true
		e.UpdatedAt = time.Now()
	}
}

// MarkSynced records the cognitive node this entity maps to. Consolidation
// only ever rises; re-syncing an already mapped entity refreshes the
// timestamp without rebinding.
func (e *Entity) MarkSynced(nodeID string, layer cognitive.LayerType, at time.Time) {
	e.CognitiveNodeID = nodeID
	e.CognitiveLayer = layer
	e.LastSyncedAt = at
	if e.Importance > e.ConsolidationScore {
		e.ConsolidationScore = e.Importance
	}
	e.UpdatedAt = time.Now()
}

// SetRelevance records the latest similarity-search relevance for the entity
func (e *Entity) SetRelevance(score float64) {
	e.RelevanceScore = clamp01(score)
	e.UpdatedAt = time.Now()
}

// AddFusionConnection records participation in a fusion node, once
func (e *Entity) AddFusionConnection(fusionNodeID string) {
	for _, id := range e.FusionConnections {
		if id == fusionNodeID {
			return
		}
	}
	e.FusionConnections = append(e.FusionConnections, fusionNodeID)
	e.UpdatedAt = time.Now()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
