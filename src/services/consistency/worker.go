package consistency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
	"gamegraph/src/infra/changefeed"
)

// MetaWriter é o caminho privilegiado de escrita dos agregados "_meta:".
type MetaWriter interface {
	AdjustMetaCounter(ctx context.Context, id string, key string, delta int64) error
}

// ActivityTracker registra a última atividade por contexto.
type ActivityTracker interface {
	Touch(ctx context.Context, contextScope string, at time.Time) error
}

// Worker é o handler out-of-band de eventos de mudança: o ÚNICO escritor
// de atributos "_meta:" no sistema inteiro. Roda fora do caminho de
// request do caller; leitores devem tolerar a janela em que os
// agregados ainda não refletem o conjunto real de relacionamentos.
type Worker struct {
	logger  *slog.Logger
	meta    MetaWriter
	tracker ActivityTracker
}

func NewWorker(logger *slog.Logger, meta MetaWriter, tracker ActivityTracker) *Worker {
	return &Worker{
		logger:  logger,
		meta:    meta,
		tracker: tracker,
	}
}

// AttachTo pendura o worker no mesmo change stream das subscriptions.
func (w *Worker) AttachTo(broker *changefeed.Broker) domain.UnsubscribeFunc {
	return broker.Subscribe(func(event domain.ChangeEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := w.HandleEvent(ctx, event); err != nil {
			w.logger.Error("consistency worker failed to handle event",
				"kind", event.Kind,
				"op", event.Op,
				"entity_id", event.EntityID,
				"error", err)
		}
	})
}

// HandleEvent reconcilia agregados para um único evento já commitado.
func (w *Worker) HandleEvent(ctx context.Context, event domain.ChangeEvent) error {
	switch event.Kind {
	case domain.ChangeKindRelationship:
		return w.handleRelationshipEvent(ctx, event)
	case domain.ChangeKindNode:
		return w.handleNodeEvent(ctx, event)
	}
	return nil
}

// handleRelationshipEvent incrementa/decrementa os contadores de grau de
// cada endpoint, um read-modify-write de documento único por nó.
func (w *Worker) handleRelationshipEvent(ctx context.Context, event domain.ChangeEvent) error {
	if event.Relationship == nil {
		return nil
	}

	var delta int64
	switch event.Op {
	case domain.ChangeOpCreated:
		delta = 1
	case domain.ChangeOpDeleted:
		delta = -1
	default:
		// Updates de atributos não mudam o grau.
		return nil
	}

	rel := event.Relationship
	if err := w.meta.AdjustMetaCounter(ctx, rel.SourceID, entities.MetaOutgoingCount, delta); err != nil {
		return fmt.Errorf("Worker.handleRelationshipEvent - failed to adjust outgoing count for %s: %w", rel.SourceID, err)
	}
	if err := w.meta.AdjustMetaCounter(ctx, rel.TargetID, entities.MetaIncomingCount, delta); err != nil {
		return fmt.Errorf("Worker.handleRelationshipEvent - failed to adjust incoming count for %s: %w", rel.TargetID, err)
	}

	return nil
}

// handleNodeEvent atualiza o tracker de última atividade do contexto.
// Mudanças onde só chaves "_meta:" diferem são ignoradas para o worker
// não re-disparar a si mesmo.
func (w *Worker) handleNodeEvent(ctx context.Context, event domain.ChangeEvent) error {
	if event.Node == nil || event.Op == domain.ChangeOpDeleted {
		return nil
	}

	if event.Op == domain.ChangeOpUpdated && entities.HasOnlyMetaKeys(event.ChangedKeys) {
		return nil
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	if err := w.tracker.Touch(ctx, event.Node.Context, occurredAt); err != nil {
		return fmt.Errorf("Worker.handleNodeEvent - failed to touch context %q: %w", event.Node.Context, err)
	}

	return nil
}
