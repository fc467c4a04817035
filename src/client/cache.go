package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
)

// GraphClient é a camada de cache para callers interativos: um mapa de
// nós por id e listas de relacionamentos por source id, mutação
// otimista com rollback e uma fila FIFO de replay para escritas
// offline. Envolve o store adapter; os serviços de leitura em massa não
// passam por aqui.
type GraphClient struct {
	nodes         domain.NodeStore
	relationships domain.RelationshipStore

	mu                    sync.RWMutex
	nodeCache             map[string]entities.Node
	relationshipsBySource map[string][]entities.Relationship

	subscriptions *subscriptionRegistry
	queue         *replayQueue
}

func NewGraphClient(nodes domain.NodeStore, relationships domain.RelationshipStore) *GraphClient {
	return &GraphClient{
		nodes:                 nodes,
		relationships:         relationships,
		nodeCache:             make(map[string]entities.Node),
		relationshipsBySource: make(map[string][]entities.Relationship),
		subscriptions:         newSubscriptionRegistry(),
		queue:                 newReplayQueue(),
	}
}

// GetNode devolve do cache local quando possível; um miss popula o mapa
// a partir do store.
func (c *GraphClient) GetNode(ctx context.Context, id string) (*entities.Node, error) {
	c.mu.RLock()
	if node, ok := c.nodeCache[id]; ok {
		c.mu.RUnlock()
		return &node, nil
	}
	c.mu.RUnlock()

	node, err := c.nodes.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	c.storeNode(*node)
	return node, nil
}

// GetRelationships devolve as arestas de saída de um nó, do cache local
// quando já carregadas.
func (c *GraphClient) GetRelationships(ctx context.Context, sourceID string) ([]entities.Relationship, error) {
	c.mu.RLock()
	if rels, ok := c.relationshipsBySource[sourceID]; ok {
		c.mu.RUnlock()
		return rels, nil
	}
	c.mu.RUnlock()

	rels, err := c.relationships.GetBySourceIDs(ctx, []string{sourceID}, nil)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.relationshipsBySource[sourceID] = rels
	c.mu.Unlock()

	return rels, nil
}

// UpdateNode aplica a mutação otimisticamente: o mapa local muda antes
// do backend confirmar. Rejeição restaura o snapshot pré-escrita;
// sucesso substitui o valor otimista pelo canônico do backend. Falha de
// backend (não de validação) entra na fila de replay.
func (c *GraphClient) UpdateNode(ctx context.Context, id string, attributes map[string]any) (*entities.Node, error) {
	c.mu.Lock()
	snapshot, hadSnapshot := c.nodeCache[id]
	optimistic := mergeAttributes(snapshot, id, attributes)
	c.nodeCache[id] = optimistic
	c.mu.Unlock()

	canonical, err := c.nodes.Update(ctx, id, attributes)
	if err != nil {
		c.rollbackNode(id, snapshot, hadSnapshot)

		if isRetryable(err) {
			c.queue.enqueue(replayEntry{Kind: replayUpdateNode, NodeID: id, Attributes: attributes})
		}
		return nil, fmt.Errorf("GraphClient.UpdateNode - backend rejected write: %w", err)
	}

	c.storeNode(*canonical)
	return canonical, nil
}

// CreateNode cria otimisticamente; rollback remove a entrada local.
func (c *GraphClient) CreateNode(ctx context.Context, node entities.Node) (*entities.Node, error) {
	if node.ID == "" {
		return nil, &domain.ValidationError{Errors: []string{"optimistic create requires a caller-supplied id"}}
	}

	c.mu.Lock()
	c.nodeCache[node.ID] = node
	c.mu.Unlock()

	canonical, err := c.nodes.Create(ctx, node)
	if err != nil {
		c.mu.Lock()
		delete(c.nodeCache, node.ID)
		c.mu.Unlock()

		if isRetryable(err) {
			c.queue.enqueue(replayEntry{Kind: replayCreateNode, NodeID: node.ID, Node: &node})
		}
		return nil, fmt.Errorf("GraphClient.CreateNode - backend rejected write: %w", err)
	}

	c.storeNode(*canonical)
	return canonical, nil
}

// DeleteNode remove otimisticamente; rollback restaura o valor anterior.
func (c *GraphClient) DeleteNode(ctx context.Context, id string) error {
	c.mu.Lock()
	snapshot, hadSnapshot := c.nodeCache[id]
	delete(c.nodeCache, id)
	c.mu.Unlock()

	if err := c.nodes.Delete(ctx, id); err != nil {
		c.rollbackNode(id, snapshot, hadSnapshot)

		if isRetryable(err) {
			c.queue.enqueue(replayEntry{Kind: replayDeleteNode, NodeID: id})
		}
		return fmt.Errorf("GraphClient.DeleteNode - backend rejected delete: %w", err)
	}

	return nil
}

// PendingWrites informa o tamanho atual da fila de replay.
func (c *GraphClient) PendingWrites() int {
	return c.queue.len()
}

func (c *GraphClient) storeNode(node entities.Node) {
	c.mu.Lock()
	c.nodeCache[node.ID] = node
	c.mu.Unlock()
}

func (c *GraphClient) dropNode(id string) {
	c.mu.Lock()
	delete(c.nodeCache, id)
	c.mu.Unlock()
}

func (c *GraphClient) rollbackNode(id string, snapshot entities.Node, hadSnapshot bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hadSnapshot {
		c.nodeCache[id] = snapshot
	} else {
		delete(c.nodeCache, id)
	}
}

// mergeAttributes produz o valor otimista com merge raso, sem tocar no
// snapshot original.
func mergeAttributes(snapshot entities.Node, id string, attributes map[string]any) entities.Node {
	optimistic := snapshot
	optimistic.ID = id
	optimistic.Attributes = make(map[string]any, len(snapshot.Attributes)+len(attributes))
	for key, value := range snapshot.Attributes {
		optimistic.Attributes[key] = value
	}
	for key, value := range attributes {
		optimistic.Attributes[key] = value
	}
	return optimistic
}

// isRetryable separa falhas de backend (entram na fila) de rejeições
// definitivas como validação, not-found e already-exists.
func isRetryable(err error) bool {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return false
	}
	if errors.Is(err, domain.ErrNodeNotFound) ||
		errors.Is(err, domain.ErrRelationshipNotFound) ||
		errors.Is(err, domain.ErrAlreadyExists) {
		return false
	}

	var storeErr *domain.StoreError
	return errors.As(err, &storeErr)
}
