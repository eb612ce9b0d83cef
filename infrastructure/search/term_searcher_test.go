package search

import (
	"context"
	"testing"

	"mnemo-backend/domain/cognitive"
	memstore "mnemo-backend/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermSearcher_RanksByOverlap(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()

	full := cognitive.NewSemanticNode("Boston harbor walks", 0.5, cognitive.ConceptEntity, 1, 0.5)
	partial := cognitive.NewSemanticNode("Boston winters", 0.5, cognitive.ConceptEntity, 1, 0.5)
	miss := cognitive.NewSemanticNode("Paris cafes", 0.5, cognitive.ConceptEntity, 1, 0.5)
	require.NoError(t, store.CognitiveNodes().Insert(ctx, full))
	require.NoError(t, store.CognitiveNodes().Insert(ctx, partial))
	require.NoError(t, store.CognitiveNodes().Insert(ctx, miss))

	searcher := NewTermSearcher(store.CognitiveNodes())

	hits, err := searcher.Search(ctx, "boston harbor", 10)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, full.ID, hits[0].NodeID)
	assert.Equal(t, 1.0, hits[0].Relevance)
	assert.Equal(t, partial.ID, hits[1].NodeID)
	assert.Equal(t, 0.5, hits[1].Relevance)
}

func TestTermSearcher_IncludesFusionLayer(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()

	fusion := cognitive.NewFusionNode("Boston trip synthesis", 0.5, []string{"n1", "n2"}, cognitive.FusionTemporal, 0.5)
	store.InsertFusion(fusion)

	searcher := NewTermSearcher(store.CognitiveNodes())

	hits, err := searcher.Search(ctx, "boston", 10)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, fusion.ID, hits[0].NodeID)
	assert.Equal(t, cognitive.LayerFusion, hits[0].Layer)
}

func TestTermSearcher_EmptyQuery(t *testing.T) {
	store := memstore.NewStore()
	searcher := NewTermSearcher(store.CognitiveNodes())

	hits, err := searcher.Search(context.Background(), "a an", 10)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTermSearcher_Limit(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	for i := 0; i < 5; i++ {
		node := cognitive.NewSemanticNode("boston note", 0.5, cognitive.ConceptEntity, 1, 0.5)
		require.NoError(t, store.CognitiveNodes().Insert(ctx, node))
	}

	searcher := NewTermSearcher(store.CognitiveNodes())

	hits, err := searcher.Search(ctx, "boston", 3)

	require.NoError(t, err)
	assert.Len(t, hits, 3)
}
