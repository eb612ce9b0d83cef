// Package memory defines the persistent memory record types the retrieval
// engine fans out over. Records are plain data; ranking and scoring live in
// the application layer.
package memory

import (
	"time"

	"github.com/google/uuid"
)

// ShortTermMemory is a recent, unconsolidated observation.
type ShortTermMemory struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewShortTermMemory creates a short-term memory stamped now
func NewShortTermMemory(content string) *ShortTermMemory {
	return &ShortTermMemory{
		ID:        uuid.New().String(),
		Content:   content,
		Timestamp: time.Now(),
	}
}

// LongTermMemory is a consolidated memory with an optional summary.
type LongTermMemory struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Summary      string    `json:"summary,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
}

// NewLongTermMemory creates a long-term memory stamped now
func NewLongTermMemory(content, summary string) *LongTermMemory {
	now := time.Now()
	return &LongTermMemory{
		ID:           uuid.New().String(),
		Content:      content,
		Summary:      summary,
		CreatedAt:    now,
		LastAccessed: now,
	}
}

// Touch records an access without changing content
func (m *LongTermMemory) Touch(at time.Time) {
	m.LastAccessed = at
}

// EpisodicMemory is a time- and context-bound event record.
type EpisodicMemory struct {
	ID               string    `json:"id"`
	EventDescription string    `json:"eventDescription"`
	Participants     []string  `json:"participants,omitempty"`
	ContextualCues   []string  `json:"contextualCues,omitempty"`
	Location         string    `json:"location,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewEpisodicMemory creates an episodic memory for an event occurring now
func NewEpisodicMemory(description string, participants, cues []string, location string) *EpisodicMemory {
	return &EpisodicMemory{
		ID:               uuid.New().String(),
		EventDescription: description,
		Participants:     participants,
		ContextualCues:   cues,
		Location:         location,
		Timestamp:        time.Now(),
	}
}

// Note is a free-text note enriched by the ingestion pipeline.
type Note struct {
	ID                string    `json:"id"`
	OriginalText      string    `json:"originalText"`
	Summary           string    `json:"summary,omitempty"`
	Topics            []string  `json:"topics,omitempty"`
	ExtractedKeywords []string  `json:"extractedKeywords,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	LastAccessed      time.Time `json:"lastAccessed"`
}

// NewNote creates a note stamped now
func NewNote(text string) *Note {
	now := time.Now()
	return &Note{
		ID:           uuid.New().String(),
		OriginalText: text,
		CreatedAt:    now,
		LastAccessed: now,
	}
}

// Touch records an access without changing content
func (n *Note) Touch(at time.Time) {
	n.LastAccessed = at
}
