package memory

import (
	"context"
	"testing"
	"time"

	"mnemo-backend/application/ports"
	"mnemo-backend/domain/cognitive"
	"mnemo-backend/domain/graph"
	domainmemory "mnemo-backend/domain/memory"
	pkgerrors "mnemo-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Match_EmptyTermsMatchNothing(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.ShortTermMemories().Save(ctx, domainmemory.NewShortTermMemory("anything")))

	results, err := store.ShortTermMemories().Match(ctx, ports.MatchQuery{Terms: nil})

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_Match_SortsByRecencyAndLimits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	base := time.Now()
	for i, content := range []string{"boston oldest", "boston middle", "boston newest"} {
		m := domainmemory.NewShortTermMemory(content)
		m.Timestamp = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.ShortTermMemories().Save(ctx, m))
	}

	results, err := store.ShortTermMemories().Match(ctx, ports.MatchQuery{
		Terms:      []string{"boston"},
		SortBy:     ports.SortByRecency,
		Descending: true,
		Limit:      2,
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "boston newest", results[0].Content)
	assert.Equal(t, "boston middle", results[1].Content)
}

func TestStore_Match_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	m := domainmemory.NewShortTermMemory("boston flights")
	require.NoError(t, store.ShortTermMemories().Save(ctx, m))

	results, err := store.ShortTermMemories().Match(ctx, ports.MatchQuery{Terms: []string{"boston"}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	results[0].Content = "mutated"

	fresh, err := store.ShortTermMemories().Match(ctx, ports.MatchQuery{Terms: []string{"boston"}})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "boston flights", fresh[0].Content)
}

func TestStore_EntityMatch_SearchesAllTextFields(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	e, err := graph.NewEntity("Beantown", graph.EntityLocation)
	require.NoError(t, err)
	e.Aliases = []string{"Boston"}
	require.NoError(t, store.Entities().Save(ctx, e))

	results, err := store.Entities().Match(ctx, ports.MatchQuery{Terms: []string{"boston"}})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, e.ID, results[0].ID)
}

func TestStore_EntityGetByID_NotFound(t *testing.T) {
	store := NewStore()

	_, err := store.Entities().GetByID(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStore_RelationshipFindBetween_IgnoresDirection(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	rel, err := graph.NewRelationship("a", graph.PredicateRelatedTo, "b")
	require.NoError(t, err)
	require.NoError(t, store.Relationships().Save(ctx, rel))

	found, err := store.Relationships().FindBetween(ctx, "b", "a")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, rel.ID, found.ID)

	absent, err := store.Relationships().FindBetween(ctx, "a", "c")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestStore_CognitiveInsert_RejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	node := cognitive.NewSemanticNode("concept", 0.5, cognitive.ConceptEntity, 1, 0.5)

	require.NoError(t, store.CognitiveNodes().Insert(ctx, node))

	err := store.CognitiveNodes().Insert(ctx, node)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestStore_CognitiveUpdate_RequiresExistingNode(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	node := cognitive.NewSemanticNode("concept", 0.5, cognitive.ConceptEntity, 1, 0.5)

	err := store.CognitiveNodes().Update(ctx, node)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStore_CognitiveFindByID_SkipsFusionLayer(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	semantic := cognitive.NewSemanticNode("concept", 0.5, cognitive.ConceptEntity, 1, 0.5)
	require.NoError(t, store.CognitiveNodes().Insert(ctx, semantic))

	fusion := cognitive.NewFusionNode("synthesis", 0.5, []string{semantic.ID}, cognitive.FusionConceptual, 0.5)
	store.InsertFusion(fusion)

	found, err := store.CognitiveNodes().FindByID(ctx, semantic.ID)
	require.NoError(t, err)
	assert.Equal(t, semantic.ID, found.Base().ID)

	_, err = store.CognitiveNodes().FindByID(ctx, fusion.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err), "fusion nodes are not addressable")

	fusions, err := store.CognitiveNodes().FusionNodes(ctx)
	require.NoError(t, err)
	require.Len(t, fusions, 1)
	assert.Equal(t, fusion.ID, fusions[0].ID)
}
