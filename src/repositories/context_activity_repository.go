package repositories

import (
	"context"
	"fmt"
	"time"

	"gamegraph/src/infra/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ContextActivityRepository mantém o tracker "last activity" por
// contexto, alimentado apenas pelo consistency worker.
type ContextActivityRepository struct {
	pool *pgxpool.Pool
}

func NewContextActivityRepository(pool *pgxpool.Pool) *ContextActivityRepository {
	return &ContextActivityRepository{pool: pool}
}

// Touch grava o instante de última atividade do contexto. O upsert só
// avança o timestamp: eventos entregues fora de ordem não regridem o
// tracker.
func (r *ContextActivityRepository) Touch(ctx context.Context, contextScope string, at time.Time) error {
	query := `
		INSERT INTO context_activity (context, last_activity_at, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (context) DO UPDATE SET
			last_activity_at = GREATEST(context_activity.last_activity_at, excluded.last_activity_at),
			updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, query, contextScope, at); err != nil {
		return fmt.Errorf("ContextActivityRepository.Touch - upsert failed: %w", err)
	}

	return nil
}

// LastActivity lê o instante de última atividade de um contexto; zero
// quando o contexto nunca teve atividade.
func (r *ContextActivityRepository) LastActivity(ctx context.Context, contextScope string) (time.Time, error) {
	query := `SELECT last_activity_at FROM context_activity WHERE context = $1`

	var at time.Time
	if err := r.pool.QueryRow(ctx, query, contextScope).Scan(&at); err != nil {
		if postgres.IsNoRows(err) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("ContextActivityRepository.LastActivity - select failed: %w", err)
	}

	return at, nil
}
