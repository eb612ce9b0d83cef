// Package cognitive models the layered memory nodes: veridical facts,
// semantic concepts, episodic events and fusion syntheses. The four variants
// form a closed sum type over the Node interface; layer-specific fields are
// only reachable after a type switch.
package cognitive

import (
	"time"

	"github.com/google/uuid"
)

// LayerType identifies which of the four layers a node belongs to.
// A node belongs to exactly one layer for its whole lifetime.
type LayerType string

const (
	LayerVeridical LayerType = "veridical"
	LayerSemantic  LayerType = "semantic"
	LayerEpisodic  LayerType = "episodic"
	LayerFusion    LayerType = "fusion"
)

// AddressableLayers are the layers entity sync may read and write.
// Fusion nodes only originate from the fusion process.
var AddressableLayers = []LayerType{LayerVeridical, LayerSemantic, LayerEpisodic}

// VerificationStatus tracks whether a veridical fact has been verified
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
)

// ConceptType tags the kind of abstraction a semantic node holds
type ConceptType string

const (
	ConceptEntity   ConceptType = "entity"
	ConceptCategory ConceptType = "category"
	ConceptProcess  ConceptType = "process"
	ConceptRelation ConceptType = "relation"
)

// FusionType tags how a fusion node was synthesized
type FusionType string

const (
	FusionCrossLayer  FusionType = "cross_layer"
	FusionWithinLayer FusionType = "within_layer"
	FusionConceptual  FusionType = "conceptual"
	FusionTemporal    FusionType = "temporal"
	FusionCausal      FusionType = "causal"
	FusionAnalogical  FusionType = "analogical"
)

// BaseNode carries the fields shared by every layer variant
type BaseNode struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Importance   float64   `json:"importance"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
	AccessCount  int       `json:"accessCount"`
}

// Node is the closed interface over the four layer variants
type Node interface {
	Base() *BaseNode
	Layer() LayerType
}

// Base returns the shared fields; variants embed BaseNode so this is
// available on every Node without a type switch.
func (b *BaseNode) Base() *BaseNode {
	return b
}

// Touch records an access
func (b *BaseNode) Touch(at time.Time) {
	b.LastAccessed = at
	b.AccessCount++
}

// RaiseImportance lifts importance to v, never lowering it
func (b *BaseNode) RaiseImportance(v float64) {
	if v > b.Importance {
		b.Importance = clamp01(v)
	}
}

func newBase(content string, importance float64) BaseNode {
	now := time.Now()
	return BaseNode{
		ID:           uuid.New().String(),
		Content:      content,
		Importance:   clamp01(importance),
		CreatedAt:    now,
		LastAccessed: now,
	}
}

// VeridicalNode holds a verified or verifiable fact
type VeridicalNode struct {
	BaseNode
	FactType     string             `json:"factType,omitempty"`
	Verification VerificationStatus `json:"verification"`
	SourceRef    string             `json:"sourceRef,omitempty"`
}

// NewVeridicalNode creates an unverified fact node unless verified is set
func NewVeridicalNode(content string, importance float64, factType string, verified bool, sourceRef string) *VeridicalNode {
	status := VerificationUnverified
	if verified {
		status = VerificationVerified
	}
	return &VeridicalNode{
		BaseNode:     newBase(content, importance),
		FactType:     factType,
		Verification: status,
		SourceRef:    sourceRef,
	}
}

// Layer implements Node
func (n *VeridicalNode) Layer() LayerType { return LayerVeridical }

// Verify marks the fact verified; verification never reverts
func (n *VeridicalNode) Verify() {
	n.Verification = VerificationVerified
}

// SemanticNode holds an abstract concept
type SemanticNode struct {
	BaseNode
	ConceptType      ConceptType `json:"conceptType"`
	AbstractionLevel int         `json:"abstractionLevel"`
	Confidence       float64     `json:"confidence"`
}

// NewSemanticNode creates a concept node
func NewSemanticNode(content string, importance float64, conceptType ConceptType, abstractionLevel int, confidence float64) *SemanticNode {
	return &SemanticNode{
		BaseNode:         newBase(content, importance),
		ConceptType:      conceptType,
		AbstractionLevel: abstractionLevel,
		Confidence:       clamp01(confidence),
	}
}

// Layer implements Node
func (n *SemanticNode) Layer() LayerType { return LayerSemantic }

// RaiseConfidence lifts confidence to v, never lowering it
func (n *SemanticNode) RaiseConfidence(v float64) {
	if v > n.Confidence {
		n.Confidence = clamp01(v)
	}
}

// EpisodicNode holds a time- and context-bound event
type EpisodicNode struct {
	BaseNode
	OccurredAt       time.Time `json:"occurredAt"`
	ContextualCues   []string  `json:"contextualCues,omitempty"`
	EmotionalValence float64   `json:"emotionalValence"`
}

// NewEpisodicNode creates an event node
func NewEpisodicNode(content string, importance float64, occurredAt time.Time, cues []string, valence float64) *EpisodicNode {
	return &EpisodicNode{
		BaseNode:         newBase(content, importance),
		OccurredAt:       occurredAt,
		ContextualCues:   cues,
		EmotionalValence: valence,
	}
}

// Layer implements Node
func (n *EpisodicNode) Layer() LayerType { return LayerEpisodic }

// FusionNode is a synthesis referencing two or more source nodes,
// produced only by the fusion process.
type FusionNode struct {
	BaseNode
	SourceNodeIDs []string   `json:"sourceNodeIds"`
	FusionType    FusionType `json:"fusionType"`
	Coherence     float64    `json:"coherence"`
}

// NewFusionNode creates a fusion node over the given source nodes
func NewFusionNode(content string, importance float64, sourceNodeIDs []string, fusionType FusionType, coherence float64) *FusionNode {
	return &FusionNode{
		BaseNode:      newBase(content, importance),
		SourceNodeIDs: sourceNodeIDs,
		FusionType:    fusionType,
		Coherence:     clamp01(coherence),
	}
}

// Layer implements Node
func (n *FusionNode) Layer() LayerType { return LayerFusion }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
