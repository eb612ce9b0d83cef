package retrieval

import (
	"time"

	"mnemo-backend/domain/graph"
	"mnemo-backend/domain/memory"
)

// MemoryContext is the assembled, ranked result of one retrieval call.
// Each list is sorted descending by relevance score; ordering across lists
// carries no meaning. The struct is owned by the caller once returned.
type MemoryContext struct {
	Query      string    `json:"query"`
	Timestamp  time.Time `json:"timestamp"`
	IsPersonal bool      `json:"isPersonal"`

	Entities      []*graph.Entity           `json:"entities"`
	Relationships []*graph.Relationship     `json:"relationships"`
	ShortTerm     []*memory.ShortTermMemory `json:"shortTermMemories"`
	LongTerm      []*memory.LongTermMemory  `json:"longTermMemories"`
	Episodic      []*memory.EpisodicMemory  `json:"episodicMemories"`
	Notes         []*memory.Note            `json:"notes"`
}

// IsEmpty reports whether retrieval found nothing at all
func (c *MemoryContext) IsEmpty() bool {
	return len(c.Entities) == 0 &&
		len(c.Relationships) == 0 &&
		len(c.ShortTerm) == 0 &&
		len(c.LongTerm) == 0 &&
		len(c.Episodic) == 0 &&
		len(c.Notes) == 0
}

// TotalResults counts results across all sources
func (c *MemoryContext) TotalResults() int {
	return len(c.Entities) +
		len(c.Relationships) +
		len(c.ShortTerm) +
		len(c.LongTerm) +
		len(c.Episodic) +
		len(c.Notes)
}
