package test_seeder

import (
	"context"
	"encoding/json"
	"fmt"

	"gamegraph/src/domain/entities"
)

// InsertNode inserts a node into the database for testing
func (ts TestSeeder) InsertNode(ctx context.Context, node *entities.Node) {
	attributes, _ := json.Marshal(node.Attributes)

	query := `
		INSERT INTO nodes (id, type, context, created_by, visibility, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := ts.pool.Exec(ctx, query,
		node.ID,
		node.Type,
		node.Context,
		node.CreatedBy,
		node.Visibility,
		attributes,
		node.CreatedAt,
		node.UpdatedAt,
	)

	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertNode failed: %v", err))
	}
}

// InsertRelationship inserts a relationship into the database for testing
func (ts TestSeeder) InsertRelationship(ctx context.Context, rel *entities.Relationship) {
	attributes, _ := json.Marshal(rel.Attributes)

	query := `
		INSERT INTO relationships (id, source_id, target_id, type, created_by, attributes, valid_from, valid_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := ts.pool.Exec(ctx, query,
		rel.ID,
		rel.SourceID,
		rel.TargetID,
		rel.Type,
		rel.CreatedBy,
		attributes,
		rel.ValidFrom,
		rel.ValidUntil,
		rel.CreatedAt,
		rel.UpdatedAt,
	)

	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertRelationship failed: %v", err))
	}
}
