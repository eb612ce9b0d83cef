package retrieval_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mnemo-backend/application/ports"
	"mnemo-backend/application/retrieval"
	domaincfg "mnemo-backend/domain/config"
	"mnemo-backend/domain/graph"
	domainmemory "mnemo-backend/domain/memory"
	memstore "mnemo-backend/infrastructure/persistence/memory"
	pkgerrors "mnemo-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(store *memstore.Store) *retrieval.Engine {
	return retrieval.NewEngine(
		store.ShortTermMemories(),
		store.LongTermMemories(),
		store.EpisodicMemories(),
		store.Notes(),
		store.Entities(),
		store.Relationships(),
		domaincfg.DefaultDomainConfig(),
		zap.NewNop(),
	)
}

func TestEngine_Retrieve_PersonalQueryAcrossSources(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memstore.NewStore()

	episodic := domainmemory.NewEpisodicMemory(
		"Visited the aquarium in Boston",
		[]string{"Sarah"},
		[]string{"rainy afternoon"},
		"Boston",
	)
	require.NoError(t, store.EpisodicMemories().Save(ctx, episodic))

	shortTerm := domainmemory.NewShortTermMemory("Need to book Boston return flights")
	require.NoError(t, store.ShortTermMemories().Save(ctx, shortTerm))

	unrelated := domainmemory.NewNote("Grocery list: milk and eggs")
	require.NoError(t, store.Notes().Save(ctx, unrelated))

	entity, err := graph.NewEntity("Boston", graph.EntityLocation)
	require.NoError(t, err)
	require.NoError(t, store.Entities().Save(ctx, entity))

	engine := newTestEngine(store)

	// Act
	mc, err := engine.Retrieve(ctx, "What did I do in Boston last week", retrieval.DefaultConfiguration())

	// Assert
	require.NoError(t, err)
	require.NotNil(t, mc)
	assert.True(t, mc.IsPersonal)

	require.Len(t, mc.Episodic, 1)
	assert.Equal(t, episodic.ID, mc.Episodic[0].ID)

	require.Len(t, mc.ShortTerm, 1)
	assert.Equal(t, shortTerm.ID, mc.ShortTerm[0].ID)

	assert.Empty(t, mc.Notes, "non-matching note must not surface")

	require.Len(t, mc.Entities, 1)
	assert.Equal(t, entity.ID, mc.Entities[0].ID)
}

func TestEngine_Retrieve_LongTermSurvivesRaisedThreshold(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memstore.NewStore()

	trip := domainmemory.NewLongTermMemory(
		"Boston trip planning notes: flights and hotel ideas",
		"Planning the Boston trip",
	)
	threeDaysAgo := time.Now().Add(-72 * time.Hour)
	trip.CreatedAt = threeDaysAgo
	trip.LastAccessed = threeDaysAgo
	require.NoError(t, store.LongTermMemories().Save(ctx, trip))

	stale := domainmemory.NewLongTermMemory("Trip insurance paperwork", "")
	staleAt := time.Now().Add(-40 * 24 * time.Hour)
	stale.CreatedAt = staleAt
	stale.LastAccessed = staleAt
	require.NoError(t, store.LongTermMemories().Save(ctx, stale))

	engine := newTestEngine(store)

	cfg := retrieval.DefaultConfiguration()
	cfg.SemanticThreshold = 0.5

	// Act
	mc, err := engine.Retrieve(ctx, "remind me of boston trip planning notes", cfg)

	// Assert
	require.NoError(t, err)
	assert.True(t, mc.IsPersonal, "remind/me flag the query as personal")

	require.Len(t, mc.LongTerm, 1, "a fresh, relevant memory clears the raised threshold")
	assert.Equal(t, trip.ID, mc.LongTerm[0].ID)
}

func TestEngine_Retrieve_NoUsableTerms(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	require.NoError(t, store.ShortTermMemories().Save(ctx, domainmemory.NewShortTermMemory("anything at all")))

	engine := newTestEngine(store)

	mc, err := engine.Retrieve(ctx, "a to in", retrieval.DefaultConfiguration())

	require.NoError(t, err)
	assert.True(t, mc.IsEmpty(), "short words yield no terms and no matches")
}

func TestEngine_Retrieve_ThresholdSparesEntities(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()

	require.NoError(t, store.ShortTermMemories().Save(ctx, domainmemory.NewShortTermMemory("Boston")))

	entity, err := graph.NewEntity("Boston", graph.EntityLocation)
	require.NoError(t, err)
	require.NoError(t, store.Entities().Save(ctx, entity))

	engine := newTestEngine(store)

	cfg := retrieval.DefaultConfiguration()
	cfg.SemanticThreshold = 0.9
	cfg.RecencyWeight = 0

	mc, err := engine.Retrieve(ctx, "boston dentist", cfg)

	require.NoError(t, err)
	assert.Empty(t, mc.ShortTerm, "weak match falls below the threshold")
	require.Len(t, mc.Entities, 1, "entities are ranked but never dropped")
	assert.Equal(t, entity.ID, mc.Entities[0].ID)
}

func TestEngine_Retrieve_PerSourceLimit(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()

	for i := 0; i < 5; i++ {
		m := domainmemory.NewShortTermMemory("conversation about boston planning")
		m.Timestamp = time.Now().Add(-time.Duration(i) * time.Minute)
		require.NoError(t, store.ShortTermMemories().Save(ctx, m))
	}

	engine := newTestEngine(store)

	cfg := retrieval.DefaultConfiguration()
	cfg.MaxResults = 2

	mc, err := engine.Retrieve(ctx, "boston planning", cfg)

	require.NoError(t, err)
	assert.LessOrEqual(t, len(mc.ShortTerm), 1, "each source is bounded by its share of MaxResults")
}

type failingShortTermRepo struct{}

func (failingShortTermRepo) Match(context.Context, ports.MatchQuery) ([]*domainmemory.ShortTermMemory, error) {
	return nil, errors.New("connection reset")
}

func (failingShortTermRepo) Save(context.Context, *domainmemory.ShortTermMemory) error {
	return errors.New("connection reset")
}

func TestEngine_Retrieve_StoreFailureAbortsCall(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()

	engine := retrieval.NewEngine(
		failingShortTermRepo{},
		store.LongTermMemories(),
		store.EpisodicMemories(),
		store.Notes(),
		store.Entities(),
		store.Relationships(),
		domaincfg.DefaultDomainConfig(),
		zap.NewNop(),
	)

	mc, err := engine.Retrieve(ctx, "boston trip", retrieval.DefaultConfiguration())

	require.Error(t, err)
	assert.Nil(t, mc, "a failed fetch never yields a partial context")
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeStore))
}
