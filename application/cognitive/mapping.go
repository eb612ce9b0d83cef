package cognitive

import "sync"

// MappingTable holds the two mutually-inverse maps between graph entities
// and cognitive nodes. Both directions stay injective: binding an entity
// that already has a node rebinds, it never duplicates. The orchestrating
// adapter is the only writer, but chunked batch sync shares the table across
// worker goroutines, so access is guarded.
type MappingTable struct {
	mu           sync.RWMutex
	entityToNode map[string]string
	nodeToEntity map[string]string
}

// NewMappingTable creates an empty mapping table
func NewMappingTable() *MappingTable {
	return &MappingTable{
		entityToNode: make(map[string]string),
		nodeToEntity: make(map[string]string),
	}
}

// Bind records the entity↔node association, replacing any previous binding
// of either side so both maps stay injective and mutually inverse.
func (t *MappingTable) Bind(entityID, nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.entityToNode[entityID]; ok {
		delete(t.nodeToEntity, old)
	}
	if old, ok := t.nodeToEntity[nodeID]; ok {
		delete(t.entityToNode, old)
	}
	t.entityToNode[entityID] = nodeID
	t.nodeToEntity[nodeID] = entityID
}

// NodeFor returns the cognitive node mapped to the entity, if any
func (t *MappingTable) NodeFor(entityID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	nodeID, ok := t.entityToNode[entityID]
	return nodeID, ok
}

// EntityFor returns the entity mapped to the cognitive node, if any
func (t *MappingTable) EntityFor(nodeID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entityID, ok := t.nodeToEntity[nodeID]
	return entityID, ok
}

// Unbind removes the entity's mapping in both directions
func (t *MappingTable) Unbind(entityID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if nodeID, ok := t.entityToNode[entityID]; ok {
		delete(t.nodeToEntity, nodeID)
		delete(t.entityToNode, entityID)
	}
}

// Len returns the number of bindings
func (t *MappingTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entityToNode)
}

// Snapshot returns a copy of the entity→node map, safe to iterate while
// sync operations continue.
func (t *MappingTable) Snapshot() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.entityToNode))
	for k, v := range t.entityToNode {
		out[k] = v
	}
	return out
}
