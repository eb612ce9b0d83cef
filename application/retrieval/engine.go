// Package retrieval implements the multi-source memory retrieval engine:
// one query fans out concurrently across every enabled memory store, every
// candidate is scored under a single relevance model, and the ranked results
// are assembled into a MemoryContext.
package retrieval

import (
	"context"
	"sort"
	"time"

	"mnemo-backend/application/ports"
	domaincfg "mnemo-backend/domain/config"
	"mnemo-backend/domain/graph"
	"mnemo-backend/domain/memory"
	pkgerrors "mnemo-backend/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine fans a query out across the memory stores and ranks the results
type Engine struct {
	shortTerm     ports.ShortTermMemoryRepository
	longTerm      ports.LongTermMemoryRepository
	episodic      ports.EpisodicMemoryRepository
	notes         ports.NoteRepository
	entities      ports.EntityRepository
	relationships ports.RelationshipRepository
	domain        *domaincfg.DomainConfig
	logger        *zap.Logger
}

// NewEngine creates a retrieval engine over the given stores
func NewEngine(
	shortTerm ports.ShortTermMemoryRepository,
	longTerm ports.LongTermMemoryRepository,
	episodic ports.EpisodicMemoryRepository,
	notes ports.NoteRepository,
	entities ports.EntityRepository,
	relationships ports.RelationshipRepository,
	domain *domaincfg.DomainConfig,
	logger *zap.Logger,
) *Engine {
	if domain == nil {
		domain = domaincfg.DefaultDomainConfig()
	}
	return &Engine{
		shortTerm:     shortTerm,
		longTerm:      longTerm,
		episodic:      episodic,
		notes:         notes,
		entities:      entities,
		relationships: relationships,
		domain:        domain,
		logger:        logger,
	}
}

// Retrieve runs one retrieval call. Every enabled source is fetched
// concurrently; the first fetch failure cancels the remaining fetches and
// aborts the whole call, so a MemoryContext is never partial.
func (e *Engine) Retrieve(ctx context.Context, query string, cfg Configuration) (*MemoryContext, error) {
	cfg = cfg.normalized()
	now := time.Now()

	terms := Tokenize(query, e.domain.MinTermLength)
	personal := DetectPersonal(query)

	e.logger.Debug("retrieval started",
		zap.String("query", query),
		zap.Int("terms", len(terms)),
		zap.Bool("personal", personal),
	)

	var (
		shortTerms    []*memory.ShortTermMemory
		longTerms     []*memory.LongTermMemory
		episodics     []*memory.EpisodicMemory
		notes         []*memory.Note
		entities      []*graph.Entity
		relationships []*graph.Relationship
	)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.IncludeShortTerm {
		g.Go(func() error {
			res, err := e.shortTerm.Match(gctx, ports.MatchQuery{
				Terms:      terms,
				SortBy:     ports.SortByRecency,
				Descending: true,
				Limit:      sourceLimit(cfg.MaxResults, 2),
			})
			if err != nil {
				return pkgerrors.NewStoreFetchFailed("short_term_memories", err)
			}
			shortTerms = res
			return nil
		})
	}

	if cfg.IncludeLongTerm {
		g.Go(func() error {
			res, err := e.longTerm.Match(gctx, ports.MatchQuery{
				Terms:      terms,
				SortBy:     ports.SortByRecency,
				Descending: true,
				Limit:      sourceLimit(cfg.MaxResults, 2),
			})
			if err != nil {
				return pkgerrors.NewStoreFetchFailed("long_term_memories", err)
			}
			longTerms = res
			return nil
		})
	}

	if cfg.IncludeEpisodic {
		g.Go(func() error {
			res, err := e.episodic.Match(gctx, ports.MatchQuery{
				Terms:      terms,
				SortBy:     ports.SortByRecency,
				Descending: true,
				Limit:      sourceLimit(cfg.MaxResults, 3),
			})
			if err != nil {
				return pkgerrors.NewStoreFetchFailed("episodic_memories", err)
			}
			episodics = res
			return nil
		})
	}

	if cfg.IncludeNotes {
		g.Go(func() error {
			res, err := e.notes.Match(gctx, ports.MatchQuery{
				Terms:      terms,
				SortBy:     ports.SortByRecency,
				Descending: true,
				Limit:      sourceLimit(cfg.MaxResults, 3),
			})
			if err != nil {
				return pkgerrors.NewStoreFetchFailed("notes", err)
			}
			notes = res
			return nil
		})
	}

	if cfg.IncludeEntities {
		g.Go(func() error {
			res, err := e.entities.Match(gctx, ports.MatchQuery{
				Terms:      terms,
				SortBy:     ports.SortByImportance,
				Descending: true,
				Limit:      sourceLimit(cfg.MaxResults, 2),
			})
			if err != nil {
				return pkgerrors.NewStoreFetchFailed("entities", err)
			}
			entities = res
			return nil
		})
	}

	if cfg.IncludeRelationships {
		g.Go(func() error {
			res, err := e.relationships.Match(gctx, ports.MatchQuery{
				Terms:      terms,
				SortBy:     ports.SortByImportance,
				Descending: true,
				Limit:      sourceLimit(cfg.MaxResults, 4),
			})
			if err != nil {
				return pkgerrors.NewStoreFetchFailed("relationships", err)
			}
			relationships = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.Error("retrieval fan-out failed", zap.Error(err))
		return nil, err
	}

	mc := &MemoryContext{
		Query:         query,
		Timestamp:     now,
		IsPersonal:    personal,
		ShortTerm:     e.rankShortTerm(shortTerms, terms, cfg, now),
		LongTerm:      e.rankLongTerm(longTerms, terms, cfg, now),
		Episodic:      e.rankEpisodic(episodics, terms, cfg, now),
		Notes:         e.rankNotes(notes, terms, cfg, now),
		Entities:      e.rankEntities(entities, terms, cfg),
		Relationships: e.rankRelationships(relationships, terms, cfg),
	}

	e.logger.Debug("retrieval completed",
		zap.Int("results", mc.TotalResults()),
		zap.Duration("elapsed", time.Since(now)),
	)
	return mc, nil
}

// sourceLimit derives a per-source fetch bound from the overall maximum
func sourceLimit(maxResults, divisor int) int {
	limit := maxResults / divisor
	if limit < 1 {
		limit = 1
	}
	return limit
}

func (e *Engine) rankShortTerm(items []*memory.ShortTermMemory, terms []string, cfg Configuration, now time.Time) []*memory.ShortTermMemory {
	candidates := make([]scored[*memory.ShortTermMemory], len(items))
	for i, m := range items {
		text := textScore(terms, []weightedField{{m.Content, 1.0}})
		rec := recencyScore(m.Timestamp, e.domain.MemoryDecayWindow, now)
		candidates[i] = scored[*memory.ShortTermMemory]{m, blend(text, rec, cfg)}
	}
	return rankAbove(candidates, cfg.SemanticThreshold)
}

func (e *Engine) rankLongTerm(items []*memory.LongTermMemory, terms []string, cfg Configuration, now time.Time) []*memory.LongTermMemory {
	candidates := make([]scored[*memory.LongTermMemory], len(items))
	for i, m := range items {
		text := textScore(terms, []weightedField{
			{m.Content, 1.0},
			{m.Summary, 0.4},
		})
		rec := recencyScore(m.LastAccessed, e.domain.MemoryDecayWindow, now)
		candidates[i] = scored[*memory.LongTermMemory]{m, blend(text, rec, cfg)}
	}
	return rankAbove(candidates, cfg.SemanticThreshold)
}

func (e *Engine) rankEpisodic(items []*memory.EpisodicMemory, terms []string, cfg Configuration, now time.Time) []*memory.EpisodicMemory {
	candidates := make([]scored[*memory.EpisodicMemory], len(items))
	for i, m := range items {
		text := textScore(terms, []weightedField{
			{m.EventDescription, 1.0},
			{fieldText(m.Participants), 0.4},
			{fieldText(m.ContextualCues), 0.3},
			{m.Location, 0.3},
		})
		rec := recencyScore(m.Timestamp, e.domain.EpisodicDecayWindow, now)
		candidates[i] = scored[*memory.EpisodicMemory]{m, blend(text, rec, cfg)}
	}
	return rankAbove(candidates, cfg.SemanticThreshold)
}

func (e *Engine) rankNotes(items []*memory.Note, terms []string, cfg Configuration, now time.Time) []*memory.Note {
	candidates := make([]scored[*memory.Note], len(items))
	for i, n := range items {
		text := textScore(terms, []weightedField{
			{n.OriginalText, 1.0},
			{n.Summary, 0.4},
			{fieldText(n.Topics), 0.3},
			{fieldText(n.ExtractedKeywords), 0.3},
		})
		rec := recencyScore(n.LastAccessed, e.domain.MemoryDecayWindow, now)
		candidates[i] = scored[*memory.Note]{n, blend(text, rec, cfg)}
	}
	return rankAbove(candidates, cfg.SemanticThreshold)
}

// rankEntities ranks by text relevance with last-mention as tiebreak.
// Entities are exempt from thresholding: always ranked, never dropped.
func (e *Engine) rankEntities(items []*graph.Entity, terms []string, cfg Configuration) []*graph.Entity {
	type entityScore struct {
		entity *graph.Entity
		score  float64
	}
	candidates := make([]entityScore, len(items))
	for i, ent := range items {
		text := textScore(terms, []weightedField{
			{ent.Name, 0.8},
			{ent.Description, 0.4},
			{string(ent.Type), 0.3},
			{fieldText(ent.Aliases), 0.3},
			{fieldText(ent.Tags), 0.2},
		})
		candidates[i] = entityScore{ent, clip01(text * cfg.RelevanceWeight)}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].entity.LastMentioned.After(candidates[j].entity.LastMentioned)
	})
	out := make([]*graph.Entity, len(candidates))
	for i, c := range candidates {
		out[i] = c.entity
	}
	return out
}

func (e *Engine) rankRelationships(items []*graph.Relationship, terms []string, cfg Configuration) []*graph.Relationship {
	candidates := make([]scored[*graph.Relationship], len(items))
	for i, r := range items {
		text := textScore(terms, []weightedField{
			{string(r.Predicate), 0.6},
			{r.Context, 0.4},
		})
		candidates[i] = scored[*graph.Relationship]{r, clip01(text * cfg.RelevanceWeight)}
	}
	return rankAbove(candidates, cfg.SemanticThreshold)
}
