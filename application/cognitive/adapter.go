// Package cognitive implements the bidirectional synchronizer between the
// knowledge graph's entities and the layered cognitive memory store, plus
// the promotion of fusion-layer cross-references into graph relationships.
package cognitive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mnemo-backend/application/ports"
	domaincfg "mnemo-backend/domain/config"
	"mnemo-backend/domain/cognitive"
	"mnemo-backend/domain/graph"
	pkgerrors "mnemo-backend/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Adapter keeps graph entities and cognitive-layer nodes consistent.
// The mapping table is owned by the adapter; collaborators observe changes
// through published SyncEvents, never by reading the table directly.
type Adapter struct {
	entities      ports.EntityRepository
	relationships ports.RelationshipRepository
	nodes         ports.CognitiveNodeRepository
	searcher      ports.CognitiveSearcher
	publisher     ports.EventPublisher
	mapping       *MappingTable
	domain        *domaincfg.DomainConfig
	logger        *zap.Logger
}

// NewAdapter creates a cognitive adapter over the given stores
func NewAdapter(
	entities ports.EntityRepository,
	relationships ports.RelationshipRepository,
	nodes ports.CognitiveNodeRepository,
	searcher ports.CognitiveSearcher,
	publisher ports.EventPublisher,
	domain *domaincfg.DomainConfig,
	logger *zap.Logger,
) *Adapter {
	if domain == nil {
		domain = domaincfg.DefaultDomainConfig()
	}
	return &Adapter{
		entities:      entities,
		relationships: relationships,
		nodes:         nodes,
		searcher:      searcher,
		publisher:     publisher,
		mapping:       NewMappingTable(),
		domain:        domain,
		logger:        logger,
	}
}

// Mapping exposes a read-only view of the current entity→node bindings
func (a *Adapter) Mapping() map[string]string {
	return a.mapping.Snapshot()
}

// DetermineLayer assigns an entity to its cognitive layer. Rules are
// evaluated in fixed priority order; the first match wins. The fusion layer
// is never an assignment target.
func (a *Adapter) DetermineLayer(e *graph.Entity) cognitive.LayerType {
	switch {
	case e.IsValidated && e.Confidence > a.domain.VeridicalConfidenceFloor:
		return cognitive.LayerVeridical
	case e.Type == graph.EntityConcept || e.Type == graph.EntityActivity:
		return cognitive.LayerSemantic
	case e.Mentions > a.domain.EpisodicMentionFloor &&
		time.Since(e.LastMentioned) < a.domain.EpisodicRecencyWindow:
		return cognitive.LayerEpisodic
	default:
		return cognitive.LayerSemantic
	}
}

// SyncEntity pushes one entity into the cognitive layers: updating the
// mapped node in place when one exists, otherwise creating a node in the
// assigned layer and binding the mapping. The mapping is bound only after
// the node insert succeeds, so the table is never half-written.
func (a *Adapter) SyncEntity(ctx context.Context, e *graph.Entity) error {
	now := time.Now()

	if nodeID, ok := a.boundNode(e); ok {
		return a.updateMappedNode(ctx, e, nodeID, now)
	}

	layer := a.DetermineLayer(e)
	node, err := a.buildNode(e, layer)
	if err != nil {
		return err
	}

	if err := a.nodes.Insert(ctx, node); err != nil {
		return pkgerrors.NewStorePersistFailed("cognitive_nodes", err)
	}
	a.mapping.Bind(e.ID, node.Base().ID)

	e.MarkSynced(node.Base().ID, layer, now)
	if err := a.entities.Save(ctx, e); err != nil {
		return pkgerrors.NewStorePersistFailed("entities", err)
	}

	a.publish(ctx, ports.SyncEvent{
		Type:      ports.EventMappingCreated,
		EntityID:  e.ID,
		NodeID:    node.Base().ID,
		Layer:     string(layer),
		Timestamp: now,
	})
	return nil
}

// boundNode resolves the entity's node binding, rehydrating the in-memory
// table from the entity's own bookkeeping after a restart.
func (a *Adapter) boundNode(e *graph.Entity) (string, bool) {
	if nodeID, ok := a.mapping.NodeFor(e.ID); ok {
		return nodeID, true
	}
	if e.CognitiveNodeID != "" {
		a.mapping.Bind(e.ID, e.CognitiveNodeID)
		return e.CognitiveNodeID, true
	}
	return "", false
}

// updateMappedNode refreshes an already-synced node in place
func (a *Adapter) updateMappedNode(ctx context.Context, e *graph.Entity, nodeID string, now time.Time) error {
	node, err := a.nodes.FindByID(ctx, nodeID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			// Stale binding: the node is gone, rebuild it
			a.logger.Warn("mapped cognitive node missing, rebinding",
				zap.String("entityId", e.ID),
				zap.String("nodeId", nodeID),
			)
			a.mapping.Unbind(e.ID)
			e.CognitiveNodeID = ""
			return a.SyncEntity(ctx, e)
		}
		return pkgerrors.NewStoreFetchFailed("cognitive_nodes", err)
	}

	base := node.Base()
	base.Content = synthesizeContent(e)
	base.RaiseImportance(e.Importance)
	base.LastAccessed = now

	switch n := node.(type) {
	case *cognitive.VeridicalNode:
		if e.IsValidated {
			n.Verify()
		}
		if n.SourceRef == "" {
			n.SourceRef = entitySourceRef(e)
		}
	case *cognitive.SemanticNode:
		n.RaiseConfidence(e.Confidence)
	}

	if err := a.nodes.Update(ctx, node); err != nil {
		return pkgerrors.NewStorePersistFailed("cognitive_nodes", err)
	}

	e.MarkSynced(nodeID, node.Layer(), now)
	if err := a.entities.Save(ctx, e); err != nil {
		return pkgerrors.NewStorePersistFailed("entities", err)
	}

	a.publish(ctx, ports.SyncEvent{
		Type:      ports.EventEntitySynced,
		EntityID:  e.ID,
		NodeID:    nodeID,
		Layer:     string(node.Layer()),
		Timestamp: now,
	})
	return nil
}

// buildNode constructs the layer-appropriate node variant for an entity.
// Routing to the fusion layer is an error: fusion nodes only originate from
// the fusion process.
func (a *Adapter) buildNode(e *graph.Entity, layer cognitive.LayerType) (cognitive.Node, error) {
	content := synthesizeContent(e)

	switch layer {
	case cognitive.LayerVeridical:
		return cognitive.NewVeridicalNode(content, e.Importance, string(e.Type), e.IsValidated, entitySourceRef(e)), nil
	case cognitive.LayerSemantic:
		return cognitive.NewSemanticNode(content, e.Importance, conceptTypeFor(e.Type), 1, e.Confidence), nil
	case cognitive.LayerEpisodic:
		return cognitive.NewEpisodicNode(content, e.Importance, e.LastMentioned, e.Tags, 0), nil
	default:
		return nil, pkgerrors.NewInvalidLayerAssignment(string(layer))
	}
}

// SyncEntities synchronizes a batch of entities in fixed-size chunks.
// Entities within a chunk run concurrently; chunks run strictly in order,
// so in-flight work never exceeds one chunk. The first failure cancels the
// rest of its chunk and aborts the batch; completed chunks stay applied,
// which is safe because sync is idempotent.
func (a *Adapter) SyncEntities(ctx context.Context, entities []*graph.Entity) error {
	chunkSize := a.domain.MaxSyncBatchSize
	if chunkSize <= 0 {
		chunkSize = 50
	}

	for start := 0; start < len(entities); start += chunkSize {
		end := start + chunkSize
		if end > len(entities) {
			end = len(entities)
		}
		chunk := entities[start:end]

		g, gctx := errgroup.WithContext(ctx)
		for _, e := range chunk {
			entity := e
			g.Go(func() error {
				return a.SyncEntity(gctx, entity)
			})
		}
		if err := g.Wait(); err != nil {
			a.logger.Error("batch sync chunk failed",
				zap.Int("chunkStart", start),
				zap.Int("chunkSize", len(chunk)),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// SyncNodeToEntity folds a cognitive node's signals back onto its mapped
// entity. Every update is monotonically non-decreasing: sync never lowers
// an entity's trust signals. An unmapped node is a warning, not an error.
func (a *Adapter) SyncNodeToEntity(ctx context.Context, nodeID string) error {
	entityID, ok := a.mapping.EntityFor(nodeID)
	if !ok {
		a.logger.Warn("no entity mapped to cognitive node",
			zap.String("nodeId", nodeID),
		)
		return nil
	}

	node, err := a.nodes.FindByID(ctx, nodeID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return pkgerrors.NewCognitiveNodeNotFound(nodeID)
		}
		return pkgerrors.NewStoreFetchFailed("cognitive_nodes", err)
	}

	entity, err := a.entities.GetByID(ctx, entityID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return pkgerrors.NewEntityNotFound(entityID)
		}
		return pkgerrors.NewStoreFetchFailed("entities", err)
	}

	base := node.Base()
	entity.RaiseImportance(base.Importance)
	if base.AccessCount > 0 {
		entity.RecordMentions(base.AccessCount, base.LastAccessed)
	}

	switch n := node.(type) {
	case *cognitive.SemanticNode:
		entity.RaiseConfidence(n.Confidence)
	case *cognitive.VeridicalNode:
		if n.Verification == cognitive.VerificationVerified {
			entity.MarkValidated()
		}
	}

	if err := a.entities.Save(ctx, entity); err != nil {
		return pkgerrors.NewStorePersistFailed("entities", err)
	}
	return nil
}

// FullSync converges the two stores: every entity is pushed into the
// cognitive layers, every mapped node's signals are folded back, and all
// current fusion nodes are materialized as relationships. Idempotent: a
// second run with no intervening mutation changes nothing, so a failed run
// is retried by simply running again.
func (a *Adapter) FullSync(ctx context.Context) error {
	started := time.Now()

	entities, err := a.entities.All(ctx)
	if err != nil {
		return pkgerrors.NewStoreFetchFailed("entities", err)
	}

	if err := a.SyncEntities(ctx, entities); err != nil {
		return pkgerrors.Wrap(err, "full sync: entity push failed")
	}

	for _, nodeID := range a.mapping.Snapshot() {
		if err := a.SyncNodeToEntity(ctx, nodeID); err != nil {
			return pkgerrors.Wrap(err, "full sync: fold-back failed")
		}
	}

	fusions, err := a.nodes.FusionNodes(ctx)
	if err != nil {
		return pkgerrors.NewStoreFetchFailed("cognitive_nodes", err)
	}
	if err := a.CreateRelationshipsFromFusions(ctx, fusions); err != nil {
		return pkgerrors.Wrap(err, "full sync: fusion materialization failed")
	}

	a.publish(ctx, ports.SyncEvent{
		Type:      ports.EventFullSyncComplete,
		Count:     len(entities),
		Timestamp: time.Now(),
	})

	a.logger.Info("full sync completed",
		zap.Int("entities", len(entities)),
		zap.Int("mappings", a.mapping.Len()),
		zap.Int("fusionNodes", len(fusions)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// publish emits a sync event; delivery is best-effort and never fails a sync
func (a *Adapter) publish(ctx context.Context, event ports.SyncEvent) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(ctx, event); err != nil {
		a.logger.Warn("sync event publish failed",
			zap.String("eventType", event.Type),
			zap.Error(err),
		)
	}
}

// synthesizeContent builds a node's textual content from the entity's name,
// description and aliases
func synthesizeContent(e *graph.Entity) string {
	var b strings.Builder
	b.WriteString(e.Name)
	if e.Description != "" {
		b.WriteString(": ")
		b.WriteString(e.Description)
	}
	if len(e.Aliases) > 0 {
		b.WriteString(" (also known as ")
		b.WriteString(strings.Join(e.Aliases, ", "))
		b.WriteString(")")
	}
	return b.String()
}

func entitySourceRef(e *graph.Entity) string {
	return fmt.Sprintf("entity:%s", e.ID)
}

// conceptTypeFor maps an entity type onto a semantic concept tag
func conceptTypeFor(t graph.EntityType) cognitive.ConceptType {
	switch t {
	case graph.EntityConcept:
		return cognitive.ConceptCategory
	case graph.EntityActivity:
		return cognitive.ConceptProcess
	default:
		return cognitive.ConceptEntity
	}
}
