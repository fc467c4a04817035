package client

import (
	"fmt"
	"sync"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
)

// subscriptionRegistry conta referências por chave de subscription. O
// store adapter não de-duplica: esse é o papel desta camada. Re-assinar
// uma chave já aberta é um no-op (só incrementa o contador); liberar a
// última referência é responsabilidade do caller, nunca automático.
type subscriptionRegistry struct {
	mu      sync.Mutex
	entries map[string]*subscriptionEntry
}

type subscriptionEntry struct {
	refCount    int
	unsubscribe domain.UnsubscribeFunc
}

func newSubscriptionRegistry() *subscriptionRegistry {
	return &subscriptionRegistry{entries: make(map[string]*subscriptionEntry)}
}

// acquire abre a subscription de verdade apenas na primeira referência
// da chave. Devolve a função de release da referência adquirida.
func (r *subscriptionRegistry) acquire(key string, open func() domain.UnsubscribeFunc) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[key]
	if !exists {
		entry = &subscriptionEntry{unsubscribe: open()}
		r.entries[key] = entry
	}
	entry.refCount++

	var once sync.Once
	return func() {
		once.Do(func() {
			r.release(key)
		})
	}
}

func (r *subscriptionRegistry) release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[key]
	if !exists {
		return
	}

	entry.refCount--
	if entry.refCount > 0 {
		return
	}

	entry.unsubscribe()
	delete(r.entries, key)
}

func (r *subscriptionRegistry) openCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// WatchNode mantém a entrada do cache sincronizada com o stream de
// mudanças do store. Devolve o release da referência.
func (c *GraphClient) WatchNode(id string) func() {
	key := "node:" + id

	return c.subscriptions.acquire(key, func() domain.UnsubscribeFunc {
		return c.nodes.Subscribe(id, func(node *entities.Node) {
			if node == nil {
				c.dropNode(id)
				return
			}
			c.storeNode(*node)
		})
	})
}

// WatchRelationships mantém a lista de arestas de saída de um nó
// sincronizada com o stream de mudanças.
func (c *GraphClient) WatchRelationships(sourceID string) func() {
	key := "rels:" + sourceID

	return c.subscriptions.acquire(key, func() domain.UnsubscribeFunc {
		return c.relationships.SubscribeQuery(domain.RelationshipFilters{SourceID: sourceID}, func(rels []entities.Relationship) {
			c.mu.Lock()
			c.relationshipsBySource[sourceID] = rels
			c.mu.Unlock()
		})
	})
}

// WatchQuery mantém todos os nós do resultado de uma consulta dentro do
// mapa local. A chave é a assinatura dos filtros.
func (c *GraphClient) WatchQuery(filters domain.NodeFilters) func() {
	key := fmt.Sprintf("query:%s|%s|%s|%s", filters.Context, filters.Type, filters.CreatedBy, filters.Visibility)

	return c.subscriptions.acquire(key, func() domain.UnsubscribeFunc {
		return c.nodes.SubscribeQuery(filters, func(nodes []entities.Node) {
			c.mu.Lock()
			for _, node := range nodes {
				c.nodeCache[node.ID] = node
			}
			c.mu.Unlock()
		})
	})
}

// OpenSubscriptions informa quantas chaves distintas estão abertas.
func (c *GraphClient) OpenSubscriptions() int {
	return c.subscriptions.openCount()
}
