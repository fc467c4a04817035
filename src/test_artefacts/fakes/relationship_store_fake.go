package fakes

import (
	"context"
	"sync"
	"time"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
)

// FakeRelationshipStore é o par do FakeNodeStore para relacionamentos.
type FakeRelationshipStore struct {
	mu            sync.Mutex
	relationships map[string]entities.Relationship

	calls  map[string]int
	errors map[string]error

	relSubs   map[int]relSub
	querySubs map[int]relQuerySub
	nextSubID int
}

type relSub struct {
	id string
	cb func(*entities.Relationship)
}

type relQuerySub struct {
	filters domain.RelationshipFilters
	cb      func([]entities.Relationship)
}

func NewFakeRelationshipStore() *FakeRelationshipStore {
	return &FakeRelationshipStore{
		relationships: make(map[string]entities.Relationship),
		calls:         make(map[string]int),
		errors:        make(map[string]error),
		relSubs:       make(map[int]relSub),
		querySubs:     make(map[int]relQuerySub),
	}
}

func (f *FakeRelationshipStore) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[method] = err
}

func (f *FakeRelationshipStore) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = make(map[string]error)
}

func (f *FakeRelationshipStore) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeRelationshipStore) Seed(rels ...entities.Relationship) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rel := range rels {
		if rel.ID == "" {
			rel.ID = entities.NewRelationshipID()
		}
		f.relationships[rel.ID] = rel
	}
}

func (f *FakeRelationshipStore) record(method string) error {
	f.calls[method]++
	return f.errors[method]
}

func (f *FakeRelationshipStore) Create(ctx context.Context, rel entities.Relationship) (*entities.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Create"); err != nil {
		return nil, err
	}

	if rel.ID == "" {
		rel.ID = entities.NewRelationshipID()
	}
	if _, exists := f.relationships[rel.ID]; exists {
		return nil, domain.ErrAlreadyExists
	}

	now := time.Now().UTC()
	rel.CreatedAt = now
	rel.UpdatedAt = now
	f.relationships[rel.ID] = rel

	f.notifyLocked(rel.ID)
	return &rel, nil
}

func (f *FakeRelationshipStore) CreateIfAbsent(ctx context.Context, rel entities.Relationship) (*entities.Relationship, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("CreateIfAbsent"); err != nil {
		return nil, false, err
	}

	if rel.ID == "" {
		rel.ID = entities.NewRelationshipID()
	}
	if existing, exists := f.relationships[rel.ID]; exists {
		return &existing, false, nil
	}

	now := time.Now().UTC()
	rel.CreatedAt = now
	rel.UpdatedAt = now
	f.relationships[rel.ID] = rel

	f.notifyLocked(rel.ID)
	return &rel, true, nil
}

func (f *FakeRelationshipStore) Get(ctx context.Context, id string) (*entities.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Get"); err != nil {
		return nil, err
	}

	rel, ok := f.relationships[id]
	if !ok {
		return nil, domain.ErrRelationshipNotFound
	}
	return &rel, nil
}

func (f *FakeRelationshipStore) Update(ctx context.Context, id string, attributes map[string]any) (*entities.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Update"); err != nil {
		return nil, err
	}

	rel, ok := f.relationships[id]
	if !ok {
		return nil, domain.ErrRelationshipNotFound
	}

	merged := make(map[string]any, len(rel.Attributes)+len(attributes))
	for k, v := range rel.Attributes {
		merged[k] = v
	}
	for k, v := range attributes {
		merged[k] = v
	}
	rel.Attributes = merged
	rel.UpdatedAt = time.Now().UTC()
	f.relationships[id] = rel

	f.notifyLocked(id)
	return &rel, nil
}

func (f *FakeRelationshipStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Delete"); err != nil {
		return err
	}

	if _, ok := f.relationships[id]; !ok {
		return domain.ErrRelationshipNotFound
	}
	delete(f.relationships, id)

	for _, sub := range f.relSubs {
		if sub.id == id {
			sub.cb(nil)
		}
	}
	return nil
}

func (f *FakeRelationshipStore) Query(ctx context.Context, filters domain.RelationshipFilters, options domain.QueryOptions) (*domain.Page[entities.Relationship], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Query"); err != nil {
		return nil, err
	}

	var items []entities.Relationship
	for _, rel := range f.relationships {
		if relationshipMatches(rel, filters) {
			items = append(items, rel)
		}
	}

	return &domain.Page[entities.Relationship]{Items: items}, nil
}

func (f *FakeRelationshipStore) GetBatch(ctx context.Context, ids []string) (map[string]entities.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("GetBatch"); err != nil {
		return nil, err
	}

	result := make(map[string]entities.Relationship, len(ids))
	for _, id := range ids {
		if rel, ok := f.relationships[id]; ok {
			result[id] = rel
		}
	}
	return result, nil
}

func (f *FakeRelationshipStore) GetBySourceIDs(ctx context.Context, sourceIDs []string, types []string) ([]entities.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("GetBySourceIDs"); err != nil {
		return nil, err
	}

	return f.byEndpointLocked(sourceIDs, types, func(rel entities.Relationship) string { return rel.SourceID }), nil
}

func (f *FakeRelationshipStore) GetByTargetIDs(ctx context.Context, targetIDs []string, types []string) ([]entities.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("GetByTargetIDs"); err != nil {
		return nil, err
	}

	return f.byEndpointLocked(targetIDs, types, func(rel entities.Relationship) string { return rel.TargetID }), nil
}

func (f *FakeRelationshipStore) byEndpointLocked(ids []string, types []string, endpoint func(entities.Relationship) string) []entities.Relationship {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	var result []entities.Relationship
	for _, rel := range f.relationships {
		if !idSet[endpoint(rel)] {
			continue
		}
		if len(typeSet) > 0 && !typeSet[rel.Type] {
			continue
		}
		result = append(result, rel)
	}
	return result
}

func (f *FakeRelationshipStore) CreateBatch(ctx context.Context, rels []entities.Relationship) domain.BatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("CreateBatch")

	result := domain.BatchResult{Success: true}
	now := time.Now().UTC()
	for _, rel := range rels {
		if rel.ID == "" {
			rel.ID = entities.NewRelationshipID()
		}
		if _, exists := f.relationships[rel.ID]; exists {
			result.FailedIDs = append(result.FailedIDs, rel.ID)
			continue
		}
		rel.CreatedAt = now
		rel.UpdatedAt = now
		f.relationships[rel.ID] = rel
		result.SuccessCount++
	}
	result.Success = len(result.FailedIDs) == 0
	return result
}

func (f *FakeRelationshipStore) DeleteBatch(ctx context.Context, ids []string) domain.BatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("DeleteBatch")

	// Delete em lote é idempotente: ids inexistentes contam como sucesso.
	result := domain.BatchResult{Success: true}
	for _, id := range ids {
		delete(f.relationships, id)
		result.SuccessCount++
	}
	return result
}

func (f *FakeRelationshipStore) Subscribe(id string, cb func(*entities.Relationship)) domain.UnsubscribeFunc {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("Subscribe")

	subID := f.nextSubID
	f.nextSubID++
	f.relSubs[subID] = relSub{id: id, cb: cb}

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.relSubs, subID)
	}
}

func (f *FakeRelationshipStore) SubscribeQuery(filters domain.RelationshipFilters, cb func([]entities.Relationship)) domain.UnsubscribeFunc {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("SubscribeQuery")

	subID := f.nextSubID
	f.nextSubID++
	f.querySubs[subID] = relQuerySub{filters: filters, cb: cb}

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.querySubs, subID)
	}
}

func (f *FakeRelationshipStore) notifyLocked(id string) {
	rel := f.relationships[id]
	for _, sub := range f.relSubs {
		if sub.id == id {
			copied := rel
			sub.cb(&copied)
		}
	}
	for _, sub := range f.querySubs {
		if relationshipMatches(rel, sub.filters) {
			var items []entities.Relationship
			for _, candidate := range f.relationships {
				if relationshipMatches(candidate, sub.filters) {
					items = append(items, candidate)
				}
			}
			sub.cb(items)
		}
	}
}

func relationshipMatches(rel entities.Relationship, filters domain.RelationshipFilters) bool {
	if filters.SourceID != "" && rel.SourceID != filters.SourceID {
		return false
	}
	if filters.TargetID != "" && rel.TargetID != filters.TargetID {
		return false
	}
	if filters.Type != "" && rel.Type != filters.Type {
		return false
	}
	if len(filters.Types) > 0 {
		found := false
		for _, t := range filters.Types {
			if rel.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filters.CreatedBy != "" && rel.CreatedBy != filters.CreatedBy {
		return false
	}
	return true
}
