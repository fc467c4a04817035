package fakes

import (
	"context"
	"sync"
	"time"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"

	"github.com/google/uuid"
)

// FakeNodeStore é um NodeStore em memória para testes unitários. Conta
// chamadas por método e permite injetar erros por método, para exercitar
// caminhos de retry e rollback sem banco.
type FakeNodeStore struct {
	mu    sync.Mutex
	nodes map[string]entities.Node

	calls  map[string]int
	errors map[string]error

	nodeSubs  map[int]nodeSub
	querySubs map[int]nodeQuerySub
	nextSubID int
}

type nodeSub struct {
	id string
	cb func(*entities.Node)
}

type nodeQuerySub struct {
	filters domain.NodeFilters
	cb      func([]entities.Node)
}

func NewFakeNodeStore() *FakeNodeStore {
	return &FakeNodeStore{
		nodes:     make(map[string]entities.Node),
		calls:     make(map[string]int),
		errors:    make(map[string]error),
		nodeSubs:  make(map[int]nodeSub),
		querySubs: make(map[int]nodeQuerySub),
	}
}

// FailWith faz o método indicado devolver err em todas as próximas
// chamadas, até ClearFailures.
func (f *FakeNodeStore) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[method] = err
}

func (f *FakeNodeStore) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = make(map[string]error)
}

func (f *FakeNodeStore) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Seed insere nós direto no estado interno, sem contar chamada nem
// disparar subscriptions.
func (f *FakeNodeStore) Seed(nodes ...entities.Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, node := range nodes {
		f.nodes[node.ID] = node
	}
}

func (f *FakeNodeStore) record(method string) error {
	f.calls[method]++
	return f.errors[method]
}

func (f *FakeNodeStore) Create(ctx context.Context, node entities.Node) (*entities.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Create"); err != nil {
		return nil, err
	}

	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if _, exists := f.nodes[node.ID]; exists {
		return nil, domain.ErrAlreadyExists
	}

	now := time.Now().UTC()
	node.CreatedAt = now
	node.UpdatedAt = now
	f.nodes[node.ID] = node

	f.notifyLocked(node.ID)
	return &node, nil
}

func (f *FakeNodeStore) Get(ctx context.Context, id string) (*entities.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Get"); err != nil {
		return nil, err
	}

	node, ok := f.nodes[id]
	if !ok {
		return nil, domain.ErrNodeNotFound
	}
	return &node, nil
}

func (f *FakeNodeStore) Update(ctx context.Context, id string, attributes map[string]any) (*entities.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Update"); err != nil {
		return nil, err
	}

	node, ok := f.nodes[id]
	if !ok {
		return nil, domain.ErrNodeNotFound
	}

	merged := make(map[string]any, len(node.Attributes)+len(attributes))
	for k, v := range node.Attributes {
		merged[k] = v
	}
	for k, v := range attributes {
		merged[k] = v
	}
	node.Attributes = merged
	node.UpdatedAt = time.Now().UTC()
	f.nodes[id] = node

	f.notifyLocked(id)
	return &node, nil
}

func (f *FakeNodeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Delete"); err != nil {
		return err
	}

	if _, ok := f.nodes[id]; !ok {
		return domain.ErrNodeNotFound
	}
	delete(f.nodes, id)

	for _, sub := range f.nodeSubs {
		if sub.id == id {
			sub.cb(nil)
		}
	}
	return nil
}

func (f *FakeNodeStore) Query(ctx context.Context, filters domain.NodeFilters, options domain.QueryOptions) (*domain.Page[entities.Node], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Query"); err != nil {
		return nil, err
	}

	var items []entities.Node
	for _, node := range f.nodes {
		if nodeMatches(node, filters) {
			items = append(items, node)
		}
	}

	return &domain.Page[entities.Node]{Items: items}, nil
}

func (f *FakeNodeStore) GetBatch(ctx context.Context, ids []string) (map[string]entities.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("GetBatch"); err != nil {
		return nil, err
	}

	result := make(map[string]entities.Node, len(ids))
	for _, id := range ids {
		if node, ok := f.nodes[id]; ok {
			result[id] = node
		}
	}
	return result, nil
}

func (f *FakeNodeStore) CreateBatch(ctx context.Context, nodes []entities.Node) domain.BatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("CreateBatch")

	result := domain.BatchResult{Success: true}
	now := time.Now().UTC()
	for _, node := range nodes {
		if node.ID == "" {
			node.ID = uuid.NewString()
		}
		if _, exists := f.nodes[node.ID]; exists {
			result.FailedIDs = append(result.FailedIDs, node.ID)
			continue
		}
		node.CreatedAt = now
		node.UpdatedAt = now
		f.nodes[node.ID] = node
		result.SuccessCount++
	}
	result.Success = len(result.FailedIDs) == 0
	return result
}

func (f *FakeNodeStore) DeleteBatch(ctx context.Context, ids []string) domain.BatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("DeleteBatch")

	// Delete em lote é idempotente: ids inexistentes contam como sucesso.
	result := domain.BatchResult{Success: true}
	for _, id := range ids {
		delete(f.nodes, id)
		result.SuccessCount++
	}
	return result
}

func (f *FakeNodeStore) Subscribe(id string, cb func(*entities.Node)) domain.UnsubscribeFunc {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("Subscribe")

	subID := f.nextSubID
	f.nextSubID++
	f.nodeSubs[subID] = nodeSub{id: id, cb: cb}

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.nodeSubs, subID)
	}
}

func (f *FakeNodeStore) SubscribeQuery(filters domain.NodeFilters, cb func([]entities.Node)) domain.UnsubscribeFunc {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("SubscribeQuery")

	subID := f.nextSubID
	f.nextSubID++
	f.querySubs[subID] = nodeQuerySub{filters: filters, cb: cb}

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.querySubs, subID)
	}
}

func (f *FakeNodeStore) AdjustMetaCounter(ctx context.Context, id string, key string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("AdjustMetaCounter"); err != nil {
		return err
	}

	node, ok := f.nodes[id]
	if !ok {
		// Aresta órfã: ajuste em nó inexistente é aceito e ignorado.
		return nil
	}

	if node.Attributes == nil {
		node.Attributes = map[string]any{}
	}
	current, _ := node.Attributes[key].(int64)
	if asFloat, ok := node.Attributes[key].(float64); ok {
		current = int64(asFloat)
	}
	next := current + delta
	if next < 0 {
		next = 0
	}
	node.Attributes[key] = next
	f.nodes[id] = node
	return nil
}

// MetaCounter lê um agregado direto do estado interno.
func (f *FakeNodeStore) MetaCounter(id string, key string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	node, ok := f.nodes[id]
	if !ok || node.Attributes == nil {
		return 0
	}
	value, _ := node.Attributes[key].(int64)
	return value
}

func (f *FakeNodeStore) notifyLocked(id string) {
	node := f.nodes[id]
	for _, sub := range f.nodeSubs {
		if sub.id == id {
			copied := node
			sub.cb(&copied)
		}
	}
	for _, sub := range f.querySubs {
		if nodeMatches(node, sub.filters) {
			var items []entities.Node
			for _, candidate := range f.nodes {
				if nodeMatches(candidate, sub.filters) {
					items = append(items, candidate)
				}
			}
			sub.cb(items)
		}
	}
}

func nodeMatches(node entities.Node, filters domain.NodeFilters) bool {
	if filters.Context != "" && node.Context != filters.Context {
		return false
	}
	if filters.Type != "" && node.Type != filters.Type {
		return false
	}
	if filters.CreatedBy != "" && node.CreatedBy != filters.CreatedBy {
		return false
	}
	if filters.Visibility != "" && node.Visibility != filters.Visibility {
		return false
	}
	return true
}
