package graph

import (
	"time"

	pkgerrors "mnemo-backend/pkg/errors"

	"github.com/google/uuid"
)

// PredicateType names the relation between two entities
type PredicateType string

const (
	PredicateRelatedTo           PredicateType = "related to"
	PredicateTemporallyRelatedTo PredicateType = "temporally related to"
	PredicateCauses              PredicateType = "causes"
	PredicateSimilarTo           PredicateType = "similar to"
)

// RelationshipSource labels where a relationship came from
const (
	SourceTextExtraction  = "text_extraction"
	SourceCognitiveFusion = "cognitive_fusion"
)

// Relationship is a directed edge in the knowledge graph. Dedup between two
// entities is undirected: subject/object order does not distinguish edges.
type Relationship struct {
	ID          string        `json:"id"`
	SubjectID   string        `json:"subjectEntityId"`
	Predicate   PredicateType `json:"predicateType"`
	ObjectID    string        `json:"objectEntityId"`
	Confidence  float64       `json:"confidence"`
	Importance  float64       `json:"importance"`
	Strength    float64       `json:"strength"`
	Mentions    int           `json:"mentions"`
	Context     string        `json:"context,omitempty"`
	Source      string        `json:"source,omitempty"`
	IsValidated bool          `json:"isValidated"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// NewRelationship creates a relationship between two entities
func NewRelationship(subjectID string, predicate PredicateType, objectID string) (*Relationship, error) {
	if subjectID == "" || objectID == "" {
		return nil, pkgerrors.NewValidationError("relationship requires subject and object entity ids")
	}
	if subjectID == objectID {
		return nil, pkgerrors.NewValidationError("relationship cannot connect an entity to itself")
	}

	now := time.Now()
	return &Relationship{
		ID:         uuid.New().String(),
		SubjectID:  subjectID,
		Predicate:  predicate,
		ObjectID:   objectID,
		Confidence: 0.5,
		Importance: 0.5,
		Strength:   0.5,
		Mentions:   1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Connects reports whether this edge links the two entities in either order
func (r *Relationship) Connects(a, b string) bool {
	return (r.SubjectID == a && r.ObjectID == b) || (r.SubjectID == b && r.ObjectID == a)
}

// Other returns the entity on the far side of the edge from id, and whether
// id participates in the edge at all
func (r *Relationship) Other(id string) (string, bool) {
	switch id {
	case r.SubjectID:
		return r.ObjectID, true
	case r.ObjectID:
		return r.SubjectID, true
	default:
		return "", false
	}
}

// Strengthen lifts importance to v, never lowering it
func (r *Relationship) Strengthen(v float64) {
	if v > r.Importance {
		r.Importance = clamp01(v)
		r.UpdatedAt = time.Now()
	}
}

// RecordMention counts an additional observation of this relationship
func (r *Relationship) RecordMention() {
	r.Mentions++
	r.UpdatedAt = time.Now()
}
