package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gamegraph/src/domain"
	"gamegraph/src/infra/kafka"
	"gamegraph/src/services/consistency"
)

// GraphChangesConsumer liga o tópico de eventos de mudança ao
// consistency worker quando ele roda como binário separado. Um lote que
// falha não commita offset e é reentregue.
type GraphChangesConsumer struct {
	logger *slog.Logger
	worker *consistency.Worker
}

func NewGraphChangesConsumer(
	logger *slog.Logger,
	worker *consistency.Worker,
) *GraphChangesConsumer {
	return &GraphChangesConsumer{
		logger: logger,
		worker: worker,
	}
}

func (c *GraphChangesConsumer) Start(ctx context.Context, kafkaClient *kafka.KafkaClient, topic string) error {
	c.logger.Info("Starting graph changes consumer", "topic", topic)

	handler := func(messages []kafka.Message) error {
		return c.handleMessages(ctx, messages)
	}

	return kafkaClient.Consumer(ctx, handler, topic)
}

func (c *GraphChangesConsumer) handleMessages(ctx context.Context, messages []kafka.Message) error {
	if len(messages) == 0 {
		return nil
	}

	c.logger.Info("Processing change events batch", "count", len(messages))

	for _, msg := range messages {
		var event domain.ChangeEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error("Failed to unmarshal change event",
				"error", err,
				"key", msg.Key,
				"value", string(msg.Value))
			return fmt.Errorf("failed to unmarshal change event with key %s: %w", msg.Key, err)
		}

		if event.Kind == "" || event.Op == "" {
			c.logger.Warn("Skipping change event with missing fields", "key", msg.Key)
			continue
		}

		if err := c.worker.HandleEvent(ctx, event); err != nil {
			c.logger.Error("Failed to reconcile change event",
				"error", err,
				"kind", event.Kind,
				"op", event.Op,
				"entity_id", event.EntityID)
			return fmt.Errorf("failed to reconcile event for %s: %w", event.EntityID, err)
		}
	}

	c.logger.Info("Successfully processed change events batch", "count", len(messages))

	return nil
}
