package cognitive_test

import (
	"context"
	"sync"
	"testing"
	"time"

	appcognitive "mnemo-backend/application/cognitive"
	"mnemo-backend/application/ports"
	domaincfg "mnemo-backend/domain/config"
	"mnemo-backend/domain/cognitive"
	"mnemo-backend/domain/graph"
	memstore "mnemo-backend/infrastructure/persistence/memory"
	"mnemo-backend/infrastructure/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// capturingPublisher records published sync events for assertions
type capturingPublisher struct {
	mu     sync.Mutex
	events []ports.SyncEvent
}

func (p *capturingPublisher) Publish(_ context.Context, event ports.SyncEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) byType(eventType string) []ports.SyncEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []ports.SyncEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestAdapter(store *memstore.Store, publisher ports.EventPublisher) *appcognitive.Adapter {
	return appcognitive.NewAdapter(
		store.Entities(),
		store.Relationships(),
		store.CognitiveNodes(),
		search.NewTermSearcher(store.CognitiveNodes()),
		publisher,
		domaincfg.DefaultDomainConfig(),
		zap.NewNop(),
	)
}

func mustEntity(t *testing.T, name string, entityType graph.EntityType) *graph.Entity {
	t.Helper()
	e, err := graph.NewEntity(name, entityType)
	require.NoError(t, err)
	return e
}

func TestAdapter_DetermineLayer(t *testing.T) {
	adapter := newTestAdapter(memstore.NewStore(), nil)

	validated := mustEntity(t, "Sarah", graph.EntityPerson)
	validated.IsValidated = true
	validated.Confidence = 0.9
	assert.Equal(t, cognitive.LayerVeridical, adapter.DetermineLayer(validated))

	// Validation wins over the concept rule
	validatedConcept := mustEntity(t, "Stoicism", graph.EntityConcept)
	validatedConcept.IsValidated = true
	validatedConcept.Confidence = 0.9
	assert.Equal(t, cognitive.LayerVeridical, adapter.DetermineLayer(validatedConcept))

	concept := mustEntity(t, "Stoicism", graph.EntityConcept)
	assert.Equal(t, cognitive.LayerSemantic, adapter.DetermineLayer(concept))

	activity := mustEntity(t, "Rock climbing", graph.EntityActivity)
	assert.Equal(t, cognitive.LayerSemantic, adapter.DetermineLayer(activity))

	recent := mustEntity(t, "Dentist visit", graph.EntityEvent)
	recent.RecordMention(time.Now())
	assert.Equal(t, cognitive.LayerEpisodic, adapter.DetermineLayer(recent))

	// Validated but below the confidence floor falls through
	lowConfidence := mustEntity(t, "Maybe fact", graph.EntityThing)
	lowConfidence.IsValidated = true
	lowConfidence.Confidence = 0.5
	assert.Equal(t, cognitive.LayerSemantic, adapter.DetermineLayer(lowConfidence))

	plain := mustEntity(t, "Umbrella", graph.EntityThing)
	assert.Equal(t, cognitive.LayerSemantic, adapter.DetermineLayer(plain))
}

func TestAdapter_SyncEntity_CreatesNodeAndBinding(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	publisher := &capturingPublisher{}
	adapter := newTestAdapter(store, publisher)

	entity := mustEntity(t, "Boston", graph.EntityLocation)

	require.NoError(t, adapter.SyncEntity(ctx, entity))

	assert.NotEmpty(t, entity.CognitiveNodeID)
	assert.Equal(t, cognitive.LayerSemantic, entity.CognitiveLayer)
	assert.False(t, entity.LastSyncedAt.IsZero())

	node, err := store.CognitiveNodes().FindByID(ctx, entity.CognitiveNodeID)
	require.NoError(t, err)
	assert.Contains(t, node.Base().Content, "Boston")

	mapping := adapter.Mapping()
	assert.Equal(t, entity.CognitiveNodeID, mapping[entity.ID])

	created := publisher.byType(ports.EventMappingCreated)
	require.Len(t, created, 1)
	assert.Equal(t, entity.ID, created[0].EntityID)
	assert.Equal(t, entity.CognitiveNodeID, created[0].NodeID)
}

func TestAdapter_SyncEntity_SecondSyncUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	publisher := &capturingPublisher{}
	adapter := newTestAdapter(store, publisher)

	entity := mustEntity(t, "Boston", graph.EntityLocation)
	require.NoError(t, adapter.SyncEntity(ctx, entity))
	firstNodeID := entity.CognitiveNodeID

	entity.Description = "city in Massachusetts"
	require.NoError(t, adapter.SyncEntity(ctx, entity))

	assert.Equal(t, firstNodeID, entity.CognitiveNodeID, "re-sync never rebinds")

	nodes, err := store.CognitiveNodes().NodesByLayer(ctx, cognitive.LayerSemantic)
	require.NoError(t, err)
	require.Len(t, nodes, 1, "re-sync must not duplicate the node")
	assert.Contains(t, nodes[0].Base().Content, "Massachusetts")

	assert.Len(t, publisher.byType(ports.EventMappingCreated), 1)
	assert.Len(t, publisher.byType(ports.EventEntitySynced), 1)
}

func TestAdapter_SyncEntity_RehydratesBindingAfterRestart(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	adapter := newTestAdapter(store, nil)

	entity := mustEntity(t, "Boston", graph.EntityLocation)
	require.NoError(t, adapter.SyncEntity(ctx, entity))
	nodeID := entity.CognitiveNodeID

	// A fresh adapter simulates a process restart with an empty table
	restarted := newTestAdapter(store, nil)
	require.NoError(t, restarted.SyncEntity(ctx, entity))

	assert.Equal(t, nodeID, entity.CognitiveNodeID)
	nodes, err := store.CognitiveNodes().NodesByLayer(ctx, cognitive.LayerSemantic)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
	assert.Equal(t, nodeID, restarted.Mapping()[entity.ID])
}

func TestAdapter_SyncNodeToEntity_FoldBackIsMonotonic(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	adapter := newTestAdapter(store, nil)

	entity := mustEntity(t, "Boston", graph.EntityLocation)
	entity.Importance = 0.4
	require.NoError(t, adapter.SyncEntity(ctx, entity))

	node, err := store.CognitiveNodes().FindByID(ctx, entity.CognitiveNodeID)
	require.NoError(t, err)
	node.Base().RaiseImportance(0.9)
	node.Base().Touch(time.Now())
	require.NoError(t, store.CognitiveNodes().Update(ctx, node))

	require.NoError(t, adapter.SyncNodeToEntity(ctx, entity.CognitiveNodeID))

	updated, err := store.Entities().GetByID(ctx, entity.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.9, updated.Importance)
	assert.Equal(t, 2, updated.Mentions, "node accesses fold back as mentions")

	// A second fold-back from an unchanged node must not lower anything
	require.NoError(t, adapter.SyncNodeToEntity(ctx, entity.CognitiveNodeID))
	again, err := store.Entities().GetByID(ctx, entity.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.9, again.Importance)
}

func TestAdapter_SyncNodeToEntity_UnmappedNodeIsIgnored(t *testing.T) {
	adapter := newTestAdapter(memstore.NewStore(), nil)
	assert.NoError(t, adapter.SyncNodeToEntity(context.Background(), "no-such-node"))
}

func TestAdapter_SyncEntities_ChunkedBatch(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	adapter := newTestAdapter(store, nil)

	entities := make([]*graph.Entity, 0, 120)
	for i := 0; i < 120; i++ {
		e := mustEntity(t, "Entity", graph.EntityThing)
		require.NoError(t, store.Entities().Save(ctx, e))
		entities = append(entities, e)
	}

	require.NoError(t, adapter.SyncEntities(ctx, entities))

	assert.Equal(t, 120, len(adapter.Mapping()))
	nodes, err := store.CognitiveNodes().NodesByLayer(ctx, cognitive.LayerSemantic)
	require.NoError(t, err)
	assert.Len(t, nodes, 120)
}

// inflightEntityRepo wraps an entity repository and records how many Save
// calls overlap at any moment
type inflightEntityRepo struct {
	ports.EntityRepository

	mu     sync.Mutex
	active int
	peak   int
	total  int
}

func (r *inflightEntityRepo) Save(ctx context.Context, e *graph.Entity) error {
	r.mu.Lock()
	r.active++
	r.total++
	if r.active > r.peak {
		r.peak = r.active
	}
	r.mu.Unlock()

	// Hold the call open briefly so chunk members overlap in flight
	time.Sleep(time.Millisecond)
	err := r.EntityRepository.Save(ctx, e)

	r.mu.Lock()
	r.active--
	r.mu.Unlock()
	return err
}

func TestAdapter_SyncEntities_ChunksNeverInterleave(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	repo := &inflightEntityRepo{EntityRepository: store.Entities()}

	adapter := appcognitive.NewAdapter(
		repo,
		store.Relationships(),
		store.CognitiveNodes(),
		search.NewTermSearcher(store.CognitiveNodes()),
		nil,
		domaincfg.DefaultDomainConfig(),
		zap.NewNop(),
	)

	entities := make([]*graph.Entity, 0, 120)
	for i := 0; i < 120; i++ {
		e := mustEntity(t, "Entity", graph.EntityThing)
		require.NoError(t, store.Entities().Save(ctx, e))
		entities = append(entities, e)
	}

	require.NoError(t, adapter.SyncEntities(ctx, entities))

	chunkSize := domaincfg.DefaultDomainConfig().MaxSyncBatchSize
	assert.Equal(t, 120, repo.total, "every entity is written back exactly once")
	assert.LessOrEqual(t, repo.peak, chunkSize,
		"concurrent writes never exceed one chunk, so chunks run sequentially")
}

func TestAdapter_FullSync_MaterializesFusionsIdempotently(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	publisher := &capturingPublisher{}
	adapter := newTestAdapter(store, publisher)

	boston := mustEntity(t, "Boston", graph.EntityLocation)
	sarah := mustEntity(t, "Sarah", graph.EntityPerson)
	require.NoError(t, store.Entities().Save(ctx, boston))
	require.NoError(t, store.Entities().Save(ctx, sarah))

	require.NoError(t, adapter.SyncEntities(ctx, []*graph.Entity{boston, sarah}))

	fusion := cognitive.NewFusionNode(
		"Sarah and the Boston trip",
		0.7,
		[]string{boston.CognitiveNodeID, sarah.CognitiveNodeID},
		cognitive.FusionCausal,
		0.8,
	)
	store.InsertFusion(fusion)

	require.NoError(t, adapter.FullSync(ctx))

	rels, err := store.Relationships().All(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, graph.PredicateCauses, rels[0].Predicate)
	assert.Equal(t, graph.SourceCognitiveFusion, rels[0].Source)
	assert.Equal(t, 0.7, rels[0].Importance)
	assert.Equal(t, 0.8, rels[0].Confidence)
	assert.True(t, rels[0].Connects(boston.ID, sarah.ID))

	// A second run with no intervening mutation changes nothing
	require.NoError(t, adapter.FullSync(ctx))

	relsAgain, err := store.Relationships().All(ctx)
	require.NoError(t, err)
	require.Len(t, relsAgain, 1)
	assert.Equal(t, rels[0].ID, relsAgain[0].ID)
	assert.Equal(t, 0.7, relsAgain[0].Importance)

	bostonAfter, err := store.Entities().GetByID(ctx, boston.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{fusion.ID}, bostonAfter.FusionConnections)

	assert.Len(t, publisher.byType(ports.EventFullSyncComplete), 2)
}

func TestAdapter_Fusion_StrengthensExistingEdge(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	adapter := newTestAdapter(store, nil)

	a := mustEntity(t, "Boston", graph.EntityLocation)
	b := mustEntity(t, "Sarah", graph.EntityPerson)
	require.NoError(t, store.Entities().Save(ctx, a))
	require.NoError(t, store.Entities().Save(ctx, b))
	require.NoError(t, adapter.SyncEntities(ctx, []*graph.Entity{a, b}))

	existing, err := graph.NewRelationship(b.ID, graph.PredicateRelatedTo, a.ID)
	require.NoError(t, err)
	existing.Importance = 0.3
	require.NoError(t, store.Relationships().Save(ctx, existing))

	fusion := cognitive.NewFusionNode(
		"shared context",
		0.8,
		[]string{a.CognitiveNodeID, b.CognitiveNodeID},
		cognitive.FusionTemporal,
		0.6,
	)

	require.NoError(t, adapter.CreateRelationshipsFromFusions(ctx, []*cognitive.FusionNode{fusion}))

	rels, err := store.Relationships().All(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 1, "reverse-order edge is found and reused")
	assert.Equal(t, existing.ID, rels[0].ID)
	assert.Equal(t, 0.8, rels[0].Importance)
	assert.Equal(t, graph.PredicateRelatedTo, rels[0].Predicate, "strengthening keeps the original predicate")
}

func TestAdapter_Fusion_NeedsTwoResolvedEntities(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	adapter := newTestAdapter(store, nil)

	a := mustEntity(t, "Boston", graph.EntityLocation)
	require.NoError(t, store.Entities().Save(ctx, a))
	require.NoError(t, adapter.SyncEntity(ctx, a))

	fusion := cognitive.NewFusionNode(
		"dangling synthesis",
		0.5,
		[]string{a.CognitiveNodeID, "unmapped-node"},
		cognitive.FusionConceptual,
		0.5,
	)

	require.NoError(t, adapter.CreateRelationshipsFromFusions(ctx, []*cognitive.FusionNode{fusion}))

	rels, err := store.Relationships().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestAdapter_FindSimilarEntities(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	adapter := newTestAdapter(store, nil)

	boston := mustEntity(t, "Boston", graph.EntityLocation)
	boston.Description = "city on the harbor"
	paris := mustEntity(t, "Paris", graph.EntityLocation)
	require.NoError(t, store.Entities().Save(ctx, boston))
	require.NoError(t, store.Entities().Save(ctx, paris))
	require.NoError(t, adapter.SyncEntities(ctx, []*graph.Entity{boston, paris}))

	matches, err := adapter.FindSimilarEntities(ctx, "boston harbor", 10, 0.1)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, boston.ID, matches[0].Entity.ID)
	assert.Equal(t, cognitive.LayerSemantic, matches[0].Layer)
	assert.Greater(t, matches[0].Relevance, 0.1)
}
