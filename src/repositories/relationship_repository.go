package repositories

import (
	"context"
	"fmt"
	"log"
	"time"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
	"gamegraph/src/infra/changefeed"
	"gamegraph/src/infra/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RelationshipRepository é a implementação Postgres do
// domain.RelationshipStore. O id default é aleatório, então vários
// relacionamentos com o mesmo (source, target, type) coexistem; ids
// determinísticos entram via CreateIfAbsent.
type RelationshipRepository struct {
	pool   *pgxpool.Pool
	broker *changefeed.Broker
}

func NewRelationshipRepository(pool *pgxpool.Pool, broker *changefeed.Broker) *RelationshipRepository {
	return &RelationshipRepository{pool: pool, broker: broker}
}

const relationshipColumns = "id, source_id, target_id, type, created_by, attributes, valid_from, valid_until, created_at, updated_at"

func scanRelationship(row pgx.Row) (*entities.Relationship, error) {
	var rel entities.Relationship
	err := row.Scan(
		&rel.ID,
		&rel.SourceID,
		&rel.TargetID,
		&rel.Type,
		&rel.CreatedBy,
		&rel.Attributes,
		&rel.ValidFrom,
		&rel.ValidUntil,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *RelationshipRepository) Create(ctx context.Context, rel entities.Relationship) (*entities.Relationship, error) {
	if rel.ID == "" {
		rel.ID = entities.NewRelationshipID()
	}
	if rel.Attributes == nil {
		rel.Attributes = map[string]any{}
	}

	query := `
		INSERT INTO relationships (id, source_id, target_id, type, created_by, attributes, valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + relationshipColumns

	created, err := scanRelationship(r.pool.QueryRow(ctx, query,
		rel.ID, rel.SourceID, rel.TargetID, rel.Type, rel.CreatedBy, rel.Attributes, rel.ValidFrom, rel.ValidUntil))
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, domain.NewStoreError(domain.StoreOpCreate, rel.ID, domain.ErrAlreadyExists)
		}
		return nil, domain.NewStoreError(domain.StoreOpCreate, rel.ID,
			fmt.Errorf("RelationshipRepository.Create - insert failed: %w", err))
	}

	r.publish(domain.ChangeOpCreated, created, nil)

	return created, nil
}

// CreateIfAbsent implementa create-if-absent para call sites que usam o
// construtor de id determinístico e querem no máximo um relacionamento
// daquela forma. created=false quando o id já existia.
func (r *RelationshipRepository) CreateIfAbsent(ctx context.Context, rel entities.Relationship) (*entities.Relationship, bool, error) {
	if rel.ID == "" {
		rel.ID = entities.DeterministicRelationshipID(rel.SourceID, rel.TargetID, rel.Type)
	}
	if rel.Attributes == nil {
		rel.Attributes = map[string]any{}
	}

	query := `
		INSERT INTO relationships (id, source_id, target_id, type, created_by, attributes, valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
		RETURNING ` + relationshipColumns

	created, err := scanRelationship(r.pool.QueryRow(ctx, query,
		rel.ID, rel.SourceID, rel.TargetID, rel.Type, rel.CreatedBy, rel.Attributes, rel.ValidFrom, rel.ValidUntil))
	if err != nil {
		if postgres.IsNoRows(err) {
			// Perdeu a corrida (ou já existia): devolve o valor canônico.
			existing, getErr := r.Get(ctx, rel.ID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, domain.NewStoreError(domain.StoreOpCreate, rel.ID,
			fmt.Errorf("RelationshipRepository.CreateIfAbsent - insert failed: %w", err))
	}

	r.publish(domain.ChangeOpCreated, created, nil)

	return created, true, nil
}

func (r *RelationshipRepository) Get(ctx context.Context, id string) (*entities.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE id = $1`

	rel, err := scanRelationship(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.NewStoreError(domain.StoreOpGet, id, domain.ErrRelationshipNotFound)
		}
		return nil, domain.NewStoreError(domain.StoreOpGet, id,
			fmt.Errorf("RelationshipRepository.Get - select failed: %w", err))
	}

	return rel, nil
}

func (r *RelationshipRepository) Update(ctx context.Context, id string, attributes map[string]any) (*entities.Relationship, error) {
	if len(attributes) == 0 {
		return r.Get(ctx, id)
	}

	query := `
		UPDATE relationships
		SET attributes = COALESCE(attributes, '{}'::jsonb) || $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + relationshipColumns

	updated, err := scanRelationship(r.pool.QueryRow(ctx, query, id, attributes))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.NewStoreError(domain.StoreOpUpdate, id, domain.ErrRelationshipNotFound)
		}
		return nil, domain.NewStoreError(domain.StoreOpUpdate, id,
			fmt.Errorf("RelationshipRepository.Update - update failed: %w", err))
	}

	changedKeys := make([]string, 0, len(attributes))
	for key := range attributes {
		changedKeys = append(changedKeys, key)
	}
	r.publish(domain.ChangeOpUpdated, updated, changedKeys)

	return updated, nil
}

func (r *RelationshipRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM relationships WHERE id = $1 RETURNING ` + relationshipColumns

	deleted, err := scanRelationship(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return domain.NewStoreError(domain.StoreOpDelete, id, domain.ErrRelationshipNotFound)
		}
		return domain.NewStoreError(domain.StoreOpDelete, id,
			fmt.Errorf("RelationshipRepository.Delete - delete failed: %w", err))
	}

	r.publish(domain.ChangeOpDeleted, deleted, nil)

	return nil
}

func (r *RelationshipRepository) Query(ctx context.Context, filters domain.RelationshipFilters, options domain.QueryOptions) (*domain.Page[entities.Relationship], error) {
	orderBy, direction, err := normalizeOrder(options.OrderBy, options.OrderDirection)
	if err != nil {
		return nil, domain.NewStoreError(domain.StoreOpQuery, "", err)
	}
	pageSize := normalizePageSize(options.PageSize, defaultRelationshipPageSize)

	query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE 1=1`
	args := []any{}

	addFilter := func(column string, value string) {
		if value != "" {
			args = append(args, value)
			query += fmt.Sprintf(" AND %s = $%d", column, len(args))
		}
	}
	addFilter("source_id", filters.SourceID)
	addFilter("target_id", filters.TargetID)
	addFilter("type", filters.Type)
	addFilter("created_by", filters.CreatedBy)

	if len(filters.Types) > 0 {
		args = append(args, filters.Types)
		query += fmt.Sprintf(" AND type = ANY($%d)", len(args))
	}

	if options.Cursor != "" {
		cursor, err := decodeCursor(options.Cursor)
		if err != nil {
			return nil, domain.NewStoreError(domain.StoreOpQuery, "", err)
		}

		comparator := ">"
		if direction == "DESC" {
			comparator = "<"
		}
		args = append(args, cursor.OrderValue, cursor.LastID)
		query += fmt.Sprintf(" AND (%s, id) %s ($%d%s, $%d)",
			orderBy, comparator, len(args)-1, castForColumn(orderBy), len(args))
	}

	args = append(args, pageSize+1)
	query += fmt.Sprintf(" ORDER BY %s %s, id %s LIMIT $%d", orderBy, direction, direction, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStoreError(domain.StoreOpQuery, "",
			fmt.Errorf("RelationshipRepository.Query - query failed: %w", err))
	}
	defer rows.Close()

	var items []entities.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, domain.NewStoreError(domain.StoreOpQuery, "",
				fmt.Errorf("RelationshipRepository.Query - scan failed: %w", err))
		}
		items = append(items, *rel)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError(domain.StoreOpQuery, "",
			fmt.Errorf("RelationshipRepository.Query - row iteration failed: %w", err))
	}

	page := &domain.Page[entities.Relationship]{}
	if len(items) > pageSize {
		items = items[:pageSize]
		page.HasMore = true

		last := items[len(items)-1]
		page.Cursor = encodeCursor(queryCursor{
			OrderValue: relationshipOrderValue(last, orderBy),
			LastID:     last.ID,
		})
	}
	page.Items = items

	return page, nil
}

func relationshipOrderValue(rel entities.Relationship, column string) string {
	switch column {
	case "created_at":
		return rel.CreatedAt.Format(time.RFC3339Nano)
	case "updated_at":
		return rel.UpdatedAt.Format(time.RFC3339Nano)
	case "type":
		return rel.Type
	default:
		return rel.ID
	}
}

func (r *RelationshipRepository) GetBatch(ctx context.Context, ids []string) (map[string]entities.Relationship, error) {
	result := make(map[string]entities.Relationship, len(ids))

	for _, idsChunk := range chunk(ids, batchGetChunkSize) {
		rels, err := r.queryChunk(ctx, `SELECT `+relationshipColumns+` FROM relationships WHERE id = ANY($1)`, idsChunk, nil)
		if err != nil {
			return nil, err
		}
		for _, rel := range rels {
			result[rel.ID] = rel
		}
	}

	return result, nil
}

// GetBySourceIDs busca relacionamentos de saída da fronteira informada,
// em chunks de até 10 source ids por chamada. É a primitiva do
// traversal.
func (r *RelationshipRepository) GetBySourceIDs(ctx context.Context, sourceIDs []string, types []string) ([]entities.Relationship, error) {
	return r.getByEndpointIDs(ctx, "source_id", sourceIDs, types)
}

func (r *RelationshipRepository) GetByTargetIDs(ctx context.Context, targetIDs []string, types []string) ([]entities.Relationship, error) {
	return r.getByEndpointIDs(ctx, "target_id", targetIDs, types)
}

func (r *RelationshipRepository) getByEndpointIDs(ctx context.Context, column string, ids []string, types []string) ([]entities.Relationship, error) {
	var result []entities.Relationship

	for _, idsChunk := range chunk(ids, batchGetChunkSize) {
		query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE ` + column + ` = ANY($1)`
		if len(types) > 0 {
			query += ` AND type = ANY($2)`
		}

		rels, err := r.queryChunk(ctx, query, idsChunk, types)
		if err != nil {
			return nil, err
		}
		result = append(result, rels...)
	}

	return result, nil
}

func (r *RelationshipRepository) queryChunk(ctx context.Context, query string, ids []string, types []string) ([]entities.Relationship, error) {
	args := []any{ids}
	if len(types) > 0 {
		args = append(args, types)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStoreError(domain.StoreOpQuery, "",
			fmt.Errorf("RelationshipRepository.queryChunk - chunk query failed: %w", err))
	}
	defer rows.Close()

	var rels []entities.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, domain.NewStoreError(domain.StoreOpQuery, "",
				fmt.Errorf("RelationshipRepository.queryChunk - scan failed: %w", err))
		}
		rels = append(rels, *rel)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError(domain.StoreOpQuery, "",
			fmt.Errorf("RelationshipRepository.queryChunk - row iteration failed: %w", err))
	}

	return rels, nil
}

func (r *RelationshipRepository) CreateBatch(ctx context.Context, rels []entities.Relationship) domain.BatchResult {
	result := domain.BatchResult{Success: true}

	for index := range rels {
		if rels[index].ID == "" {
			rels[index].ID = entities.NewRelationshipID()
		}
		if rels[index].Attributes == nil {
			rels[index].Attributes = map[string]any{}
		}
	}

	for _, relsChunk := range chunk(rels, batchWriteChunkSize) {
		created, err := r.createChunk(ctx, relsChunk)
		if err != nil {
			chunkResult := domain.BatchResult{Errors: []string{err.Error()}}
			for _, rel := range relsChunk {
				chunkResult.FailedIDs = append(chunkResult.FailedIDs, rel.ID)
			}
			result.Merge(chunkResult)
			continue
		}

		result.Merge(domain.BatchResult{Success: true, SuccessCount: len(relsChunk)})
		for index := range created {
			r.publish(domain.ChangeOpCreated, &created[index], nil)
		}
	}

	return result
}

func (r *RelationshipRepository) createChunk(ctx context.Context, rels []entities.Relationship) ([]entities.Relationship, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("RelationshipRepository.createChunk - failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO relationships (id, source_id, target_id, type, created_by, attributes, valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + relationshipColumns

	created := make([]entities.Relationship, 0, len(rels))
	for _, rel := range rels {
		row, err := scanRelationship(tx.QueryRow(ctx, query,
			rel.ID, rel.SourceID, rel.TargetID, rel.Type, rel.CreatedBy, rel.Attributes, rel.ValidFrom, rel.ValidUntil))
		if err != nil {
			return nil, fmt.Errorf("RelationshipRepository.createChunk - insert %q failed: %w", rel.ID, err)
		}
		created = append(created, *row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("RelationshipRepository.createChunk - commit failed: %w", err)
	}

	return created, nil
}

func (r *RelationshipRepository) DeleteBatch(ctx context.Context, ids []string) domain.BatchResult {
	result := domain.BatchResult{Success: true}

	for _, idsChunk := range chunk(ids, batchWriteChunkSize) {
		deleted, err := r.deleteChunk(ctx, idsChunk)
		if err != nil {
			chunkResult := domain.BatchResult{
				FailedIDs: append([]string(nil), idsChunk...),
				Errors:    []string{err.Error()},
			}
			result.Merge(chunkResult)
			continue
		}

		result.Merge(domain.BatchResult{Success: true, SuccessCount: len(idsChunk)})
		for index := range deleted {
			r.publish(domain.ChangeOpDeleted, &deleted[index], nil)
		}
	}

	return result
}

func (r *RelationshipRepository) deleteChunk(ctx context.Context, ids []string) ([]entities.Relationship, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("RelationshipRepository.deleteChunk - failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `DELETE FROM relationships WHERE id = ANY($1) RETURNING ` + relationshipColumns

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("RelationshipRepository.deleteChunk - delete failed: %w", err)
	}

	var deleted []entities.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("RelationshipRepository.deleteChunk - scan failed: %w", err)
		}
		deleted = append(deleted, *rel)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RelationshipRepository.deleteChunk - row iteration failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("RelationshipRepository.deleteChunk - commit failed: %w", err)
	}

	return deleted, nil
}

func (r *RelationshipRepository) Subscribe(id string, cb func(*entities.Relationship)) domain.UnsubscribeFunc {
	return r.broker.Subscribe(func(event domain.ChangeEvent) {
		if event.Kind != domain.ChangeKindRelationship || event.EntityID != id {
			return
		}
		if event.Op == domain.ChangeOpDeleted {
			cb(nil)
			return
		}
		cb(event.Relationship)
	})
}

func (r *RelationshipRepository) SubscribeQuery(filters domain.RelationshipFilters, cb func([]entities.Relationship)) domain.UnsubscribeFunc {
	return r.broker.Subscribe(func(event domain.ChangeEvent) {
		if event.Kind != domain.ChangeKindRelationship || !relationshipMatchesFilters(event.Relationship, filters) {
			return
		}

		page, err := r.Query(context.Background(), filters, domain.QueryOptions{})
		if err != nil {
			log.Printf("RelationshipRepository.SubscribeQuery - refresh failed: %v", err)
			return
		}
		cb(page.Items)
	})
}

func relationshipMatchesFilters(rel *entities.Relationship, filters domain.RelationshipFilters) bool {
	if rel == nil {
		return false
	}
	if filters.SourceID != "" && rel.SourceID != filters.SourceID {
		return false
	}
	if filters.TargetID != "" && rel.TargetID != filters.TargetID {
		return false
	}
	if filters.Type != "" && rel.Type != filters.Type {
		return false
	}
	if filters.CreatedBy != "" && rel.CreatedBy != filters.CreatedBy {
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
	return true
}

func (r *RelationshipRepository) publish(op string, rel *entities.Relationship, changedKeys []string) {
	if r.broker == nil {
		return
	}
	r.broker.Publish(domain.ChangeEvent{
		Kind:         domain.ChangeKindRelationship,
		Op:           op,
		EntityID:     rel.ID,
		ChangedKeys:  changedKeys,
		Relationship: rel,
		OccurredAt:   time.Now().UTC(),
	})
}
