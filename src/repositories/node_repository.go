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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NodeRepository é a implementação Postgres do domain.NodeStore: uma
// linha por nó, atributos num saco JSONB. Toda atomicidade vem de
// statements de linha única; nenhuma transação multi-documento.
type NodeRepository struct {
	pool   *pgxpool.Pool
	broker *changefeed.Broker
}

func NewNodeRepository(pool *pgxpool.Pool, broker *changefeed.Broker) *NodeRepository {
	return &NodeRepository{pool: pool, broker: broker}
}

const nodeColumns = "id, type, context, created_by, visibility, attributes, created_at, updated_at"

func scanNode(row pgx.Row) (*entities.Node, error) {
	var node entities.Node
	err := row.Scan(
		&node.ID,
		&node.Type,
		&node.Context,
		&node.CreatedBy,
		&node.Visibility,
		&node.Attributes,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// metaKeyViolations acumula as chaves derivadas que um caller comum
// tentou escrever. Somente o consistency worker escreve "_meta:".
func metaKeyViolations(attributes map[string]any) []string {
	var violations []string
	for key := range attributes {
		if entities.IsMetaKey(key) {
			violations = append(violations, fmt.Sprintf("attribute %q is derived and read-only", key))
		}
	}
	return violations
}

func (r *NodeRepository) Create(ctx context.Context, node entities.Node) (*entities.Node, error) {
	if violations := metaKeyViolations(node.Attributes); len(violations) > 0 {
		return nil, &domain.ValidationError{Errors: violations}
	}

	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if node.Visibility == "" {
		node.Visibility = entities.VisibilityPublic
	}
	if node.Attributes == nil {
		node.Attributes = map[string]any{}
	}

	query := `
		INSERT INTO nodes (id, type, context, created_by, visibility, attributes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + nodeColumns

	created, err := scanNode(r.pool.QueryRow(ctx, query,
		node.ID, node.Type, node.Context, node.CreatedBy, node.Visibility, node.Attributes))
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, domain.NewStoreError(domain.StoreOpCreate, node.ID, domain.ErrAlreadyExists)
		}
		return nil, domain.NewStoreError(domain.StoreOpCreate, node.ID,
			fmt.Errorf("NodeRepository.Create - insert failed: %w", err))
	}

	r.publish(domain.ChangeEvent{
		Kind:       domain.ChangeKindNode,
		Op:         domain.ChangeOpCreated,
		EntityID:   created.ID,
		Node:       created,
		OccurredAt: time.Now().UTC(),
	})

	return created, nil
}

func (r *NodeRepository) Get(ctx context.Context, id string) (*entities.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1`

	node, err := scanNode(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.NewStoreError(domain.StoreOpGet, id, domain.ErrNodeNotFound)
		}
		return nil, domain.NewStoreError(domain.StoreOpGet, id,
			fmt.Errorf("NodeRepository.Get - select failed: %w", err))
	}

	return node, nil
}

// Update faz merge raso dos atributos parciais via operador || do JSONB;
// o mapa inteiro nunca é substituído.
func (r *NodeRepository) Update(ctx context.Context, id string, attributes map[string]any) (*entities.Node, error) {
	if violations := metaKeyViolations(attributes); len(violations) > 0 {
		return nil, &domain.ValidationError{Errors: violations}
	}
	if len(attributes) == 0 {
		return r.Get(ctx, id)
	}

	query := `
		UPDATE nodes
		SET attributes = COALESCE(attributes, '{}'::jsonb) || $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + nodeColumns

	updated, err := scanNode(r.pool.QueryRow(ctx, query, id, attributes))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.NewStoreError(domain.StoreOpUpdate, id, domain.ErrNodeNotFound)
		}
		return nil, domain.NewStoreError(domain.StoreOpUpdate, id,
			fmt.Errorf("NodeRepository.Update - update failed: %w", err))
	}

	changedKeys := make([]string, 0, len(attributes))
	for key := range attributes {
		changedKeys = append(changedKeys, key)
	}

	r.publish(domain.ChangeEvent{
		Kind:        domain.ChangeKindNode,
		Op:          domain.ChangeOpUpdated,
		EntityID:    updated.ID,
		ChangedKeys: changedKeys,
		Node:        updated,
		OccurredAt:  time.Now().UTC(),
	})

	return updated, nil
}

// Delete remove o nó por id. Relacionamentos apontando para ele NÃO são
// cascateados; arestas órfãs são um gap conhecido e aceito.
func (r *NodeRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM nodes WHERE id = $1 RETURNING ` + nodeColumns

	deleted, err := scanNode(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return domain.NewStoreError(domain.StoreOpDelete, id, domain.ErrNodeNotFound)
		}
		return domain.NewStoreError(domain.StoreOpDelete, id,
			fmt.Errorf("NodeRepository.Delete - delete failed: %w", err))
	}

	r.publish(domain.ChangeEvent{
		Kind:       domain.ChangeKindNode,
		Op:         domain.ChangeOpDeleted,
		EntityID:   id,
		Node:       deleted,
		OccurredAt: time.Now().UTC(),
	})

	return nil
}

func (r *NodeRepository) Query(ctx context.Context, filters domain.NodeFilters, options domain.QueryOptions) (*domain.Page[entities.Node], error) {
	orderBy, direction, err := normalizeOrder(options.OrderBy, options.OrderDirection)
	if err != nil {
		return nil, domain.NewStoreError(domain.StoreOpQuery, "", err)
	}
	pageSize := normalizePageSize(options.PageSize, defaultNodePageSize)

	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE 1=1`
	args := []any{}

	addFilter := func(column string, value string) {
		if value != "" {
			args = append(args, value)
			query += fmt.Sprintf(" AND %s = $%d", column, len(args))
		}
	}
	addFilter("context", filters.Context)
	addFilter("type", filters.Type)
	addFilter("created_by", filters.CreatedBy)
	addFilter("visibility", filters.Visibility)

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

	// Busca uma linha extra para decidir hasMore sem segunda query.
	args = append(args, pageSize+1)
	query += fmt.Sprintf(" ORDER BY %s %s, id %s LIMIT $%d", orderBy, direction, direction, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStoreError(domain.StoreOpQuery, "",
			fmt.Errorf("NodeRepository.Query - query failed: %w", err))
	}
	defer rows.Close()

	var items []entities.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, domain.NewStoreError(domain.StoreOpQuery, "",
				fmt.Errorf("NodeRepository.Query - scan failed: %w", err))
		}
		items = append(items, *node)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError(domain.StoreOpQuery, "",
			fmt.Errorf("NodeRepository.Query - row iteration failed: %w", err))
	}

	page := &domain.Page[entities.Node]{}
	if len(items) > pageSize {
		items = items[:pageSize]
		page.HasMore = true

		last := items[len(items)-1]
		page.Cursor = encodeCursor(queryCursor{
			OrderValue: nodeOrderValue(last, orderBy),
			LastID:     last.ID,
		})
	}
	page.Items = items

	return page, nil
}

func castForColumn(column string) string {
	if column == "created_at" || column == "updated_at" {
		return "::timestamptz"
	}
	return ""
}

func nodeOrderValue(node entities.Node, column string) string {
	switch column {
	case "created_at":
		return node.CreatedAt.Format(time.RFC3339Nano)
	case "updated_at":
		return node.UpdatedAt.Format(time.RFC3339Nano)
	case "type":
		return node.Type
	default:
		return node.ID
	}
}

// GetBatch busca nós por id em chunks de até 10 ids por chamada (limite
// de predicado do backend) e funde os resultados. Ids inexistentes ficam
// simplesmente ausentes do mapa.
func (r *NodeRepository) GetBatch(ctx context.Context, ids []string) (map[string]entities.Node, error) {
	result := make(map[string]entities.Node, len(ids))

	for _, idsChunk := range chunk(ids, batchGetChunkSize) {
		query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = ANY($1)`

		rows, err := r.pool.Query(ctx, query, idsChunk)
		if err != nil {
			return nil, domain.NewStoreError(domain.StoreOpQuery, "",
				fmt.Errorf("NodeRepository.GetBatch - chunk query failed: %w", err))
		}

		for rows.Next() {
			node, err := scanNode(rows)
			if err != nil {
				rows.Close()
				return nil, domain.NewStoreError(domain.StoreOpQuery, "",
					fmt.Errorf("NodeRepository.GetBatch - scan failed: %w", err))
			}
			result[node.ID] = *node
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, domain.NewStoreError(domain.StoreOpQuery, "",
				fmt.Errorf("NodeRepository.GetBatch - row iteration failed: %w", err))
		}
		rows.Close()
	}

	return result, nil
}

// CreateBatch insere nós em chunks de até 500; cada chunk commita
// atomicamente e a falha de um chunk só marca os ids dele como falhos.
// Nunca devolve erro de topo: sucesso parcial vive no BatchResult.
func (r *NodeRepository) CreateBatch(ctx context.Context, nodes []entities.Node) domain.BatchResult {
	result := domain.BatchResult{Success: true}

	for index := range nodes {
		if nodes[index].ID == "" {
			nodes[index].ID = uuid.NewString()
		}
		if nodes[index].Visibility == "" {
			nodes[index].Visibility = entities.VisibilityPublic
		}
		if nodes[index].Attributes == nil {
			nodes[index].Attributes = map[string]any{}
		}
	}

	for _, nodesChunk := range chunk(nodes, batchWriteChunkSize) {
		created, err := r.createChunk(ctx, nodesChunk)
		if err != nil {
			chunkResult := domain.BatchResult{Errors: []string{err.Error()}}
			for _, node := range nodesChunk {
				chunkResult.FailedIDs = append(chunkResult.FailedIDs, node.ID)
			}
			result.Merge(chunkResult)
			continue
		}

		result.Merge(domain.BatchResult{Success: true, SuccessCount: len(nodesChunk)})
		for index := range created {
			r.publish(domain.ChangeEvent{
				Kind:       domain.ChangeKindNode,
				Op:         domain.ChangeOpCreated,
				EntityID:   created[index].ID,
				Node:       &created[index],
				OccurredAt: time.Now().UTC(),
			})
		}
	}

	return result
}

func (r *NodeRepository) createChunk(ctx context.Context, nodes []entities.Node) ([]entities.Node, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("NodeRepository.createChunk - failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO nodes (id, type, context, created_by, visibility, attributes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + nodeColumns

	created := make([]entities.Node, 0, len(nodes))
	for _, node := range nodes {
		row, err := scanNode(tx.QueryRow(ctx, query,
			node.ID, node.Type, node.Context, node.CreatedBy, node.Visibility, node.Attributes))
		if err != nil {
			return nil, fmt.Errorf("NodeRepository.createChunk - insert %q failed: %w", node.ID, err)
		}
		created = append(created, *row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("NodeRepository.createChunk - commit failed: %w", err)
	}

	return created, nil
}

// DeleteBatch remove nós em chunks de até 500 com a mesma semântica de
// sucesso parcial do CreateBatch. Ids já inexistentes contam como
// sucesso (delete é idempotente em lote).
func (r *NodeRepository) DeleteBatch(ctx context.Context, ids []string) domain.BatchResult {
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
			r.publish(domain.ChangeEvent{
				Kind:       domain.ChangeKindNode,
				Op:         domain.ChangeOpDeleted,
				EntityID:   deleted[index].ID,
				Node:       &deleted[index],
				OccurredAt: time.Now().UTC(),
			})
		}
	}

	return result
}

func (r *NodeRepository) deleteChunk(ctx context.Context, ids []string) ([]entities.Node, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("NodeRepository.deleteChunk - failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `DELETE FROM nodes WHERE id = ANY($1) RETURNING ` + nodeColumns

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("NodeRepository.deleteChunk - delete failed: %w", err)
	}

	var deleted []entities.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("NodeRepository.deleteChunk - scan failed: %w", err)
		}
		deleted = append(deleted, *node)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("NodeRepository.deleteChunk - row iteration failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("NodeRepository.deleteChunk - commit failed: %w", err)
	}

	return deleted, nil
}

// Subscribe entrega o valor corrente completo do nó a cada mudança (nil
// no delete). Este layer não de-duplica chaves repetidas: isso é papel
// do client cache.
func (r *NodeRepository) Subscribe(id string, cb func(*entities.Node)) domain.UnsubscribeFunc {
	return r.broker.Subscribe(func(event domain.ChangeEvent) {
		if event.Kind != domain.ChangeKindNode || event.EntityID != id {
			return
		}
		if event.Op == domain.ChangeOpDeleted {
			cb(nil)
			return
		}
		cb(event.Node)
	})
}

// SubscribeQuery reexecuta a primeira página da consulta a cada mudança
// que a afete e entrega o resultado completo.
func (r *NodeRepository) SubscribeQuery(filters domain.NodeFilters, cb func([]entities.Node)) domain.UnsubscribeFunc {
	return r.broker.Subscribe(func(event domain.ChangeEvent) {
		if event.Kind != domain.ChangeKindNode || !nodeMatchesFilters(event.Node, filters) {
			return
		}

		page, err := r.Query(context.Background(), filters, domain.QueryOptions{})
		if err != nil {
			log.Printf("NodeRepository.SubscribeQuery - refresh failed: %v", err)
			return
		}
		cb(page.Items)
	})
}

func nodeMatchesFilters(node *entities.Node, filters domain.NodeFilters) bool {
	if node == nil {
		return false
	}
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

// AdjustMetaCounter incrementa um contador "_meta:" num único statement
// de linha única (a transação single-document do backend). Worker-only.
func (r *NodeRepository) AdjustMetaCounter(ctx context.Context, id string, key string, delta int64) error {
	if !entities.IsMetaKey(key) {
		return &domain.ValidationError{Errors: []string{fmt.Sprintf("attribute %q is not a meta key", key)}}
	}

	query := `
		UPDATE nodes
		SET attributes = jsonb_set(
			COALESCE(attributes, '{}'::jsonb),
			ARRAY[$2],
			to_jsonb(GREATEST(COALESCE((attributes->>$2)::bigint, 0) + $3, 0))
		)
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, key, delta)
	if err != nil {
		return domain.NewStoreError(domain.StoreOpUpdate, id,
			fmt.Errorf("NodeRepository.AdjustMetaCounter - update failed: %w", err))
	}
	if tag.RowsAffected() == 0 {
		// Endpoint já deletado: aresta órfã, aceito.
		return nil
	}

	return nil
}

func (r *NodeRepository) publish(event domain.ChangeEvent) {
	if r.broker != nil {
		r.broker.Publish(event)
	}
}
