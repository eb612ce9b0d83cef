// Package search provides a self-hosted cognitive search capability built
// on plain term overlap. It stands in for an external semantic search
// service and works against any node repository.
package search

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"mnemo-backend/application/ports"
	"mnemo-backend/domain/cognitive"
)

// TermSearcher scores nodes by the fraction of query terms found in their
// content, across every layer including fusion.
type TermSearcher struct {
	nodes ports.CognitiveNodeRepository
}

// NewTermSearcher creates a searcher over the given node repository
func NewTermSearcher(nodes ports.CognitiveNodeRepository) *TermSearcher {
	return &TermSearcher{nodes: nodes}
}

// Search implements ports.CognitiveSearcher
func (s *TermSearcher) Search(ctx context.Context, query string, limit int) ([]ports.SearchHit, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var hits []ports.SearchHit
	for _, layer := range cognitive.AddressableLayers {
		nodes, err := s.nodes.NodesByLayer(ctx, layer)
		if err != nil {
			return nil, err
		}
		for _, node := range nodes {
			hits = appendHit(hits, node.Base().ID, layer, terms, node.Base().Content)
		}
	}

	fusions, err := s.nodes.FusionNodes(ctx)
	if err != nil {
		return nil, err
	}
	for _, node := range fusions {
		hits = appendHit(hits, node.ID, cognitive.LayerFusion, terms, node.Content)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Relevance > hits[j].Relevance
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func appendHit(hits []ports.SearchHit, id string, layer cognitive.LayerType, terms []string, content string) []ports.SearchHit {
	relevance := overlap(terms, content)
	if relevance <= 0 {
		return hits
	}
	return append(hits, ports.SearchHit{
		NodeID:    id,
		Layer:     layer,
		Relevance: relevance,
	})
}

func searchTerms(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	terms := words[:0]
	for _, w := range words {
		if len(w) > 2 {
			terms = append(terms, w)
		}
	}
	return terms
}

func overlap(terms []string, content string) float64 {
	lower := strings.ToLower(content)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
