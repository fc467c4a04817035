package test_seeder

import (
	"context"
	"fmt"
)

// CountNodes conta os nós persistidos num contexto.
func (ts TestSeeder) CountNodes(ctx context.Context, contextScope string) int {
	var count int
	err := ts.pool.QueryRow(ctx, "SELECT COUNT(*) FROM nodes WHERE context = $1", contextScope).Scan(&count)
	if err != nil {
		panic(fmt.Sprintf("Seeder.CountNodes failed: %v", err))
	}
	return count
}

// CountRelationships conta os relacionamentos por source.
func (ts TestSeeder) CountRelationships(ctx context.Context, sourceID string) int {
	var count int
	err := ts.pool.QueryRow(ctx, "SELECT COUNT(*) FROM relationships WHERE source_id = $1", sourceID).Scan(&count)
	if err != nil {
		panic(fmt.Sprintf("Seeder.CountRelationships failed: %v", err))
	}
	return count
}

// NodeMetaCounter lê um contador "_meta:" direto do JSONB.
func (ts TestSeeder) NodeMetaCounter(ctx context.Context, nodeID string, key string) int64 {
	var value int64
	err := ts.pool.QueryRow(ctx,
		"SELECT COALESCE((attributes->>$2)::bigint, 0) FROM nodes WHERE id = $1",
		nodeID, key,
	).Scan(&value)
	if err != nil {
		panic(fmt.Sprintf("Seeder.NodeMetaCounter failed: %v", err))
	}
	return value
}
