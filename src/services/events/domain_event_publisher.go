package events

import (
	"encoding/json"
	"log/slog"

	"gamegraph/src/domain"
	"gamegraph/src/infra/changefeed"
	"gamegraph/src/infra/kafka"
)

// DomainEventPublisher espelha o change feed in-process num tópico
// Kafka, para consumidores fora do processo (o consistency worker em
// deployment separado, auditoria, etc). Particiona por entity id para
// preservar a ordem por entidade.
type DomainEventPublisher struct {
	logger      *slog.Logger
	kafkaClient *kafka.KafkaClient
	topic       string
}

func NewDomainEventPublisher(
	logger *slog.Logger,
	kafkaClient *kafka.KafkaClient,
	topic string,
) *DomainEventPublisher {
	return &DomainEventPublisher{
		logger:      logger,
		kafkaClient: kafkaClient,
		topic:       topic,
	}
}

// AttachTo pendura o publisher no change feed. A publicação acontece no
// goroutine de dispatch do broker, nunca no caminho do caller.
func (p *DomainEventPublisher) AttachTo(broker *changefeed.Broker) domain.UnsubscribeFunc {
	return broker.Subscribe(func(event domain.ChangeEvent) {
		if err := p.Publish(event); err != nil {
			p.logger.Error("Failed to publish change event",
				"error", err,
				"kind", event.Kind,
				"op", event.Op,
				"entity_id", event.EntityID)
		}
	})
}

// Publish serializa e envia um único evento de mudança.
func (p *DomainEventPublisher) Publish(event domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	message := kafka.Message{
		Key:   event.EntityID, // ordena por entidade dentro da partição
		Value: payload,
		Headers: map[string]string{
			"kind":           event.Kind,
			"op":             event.Op,
			"source_service": "gamegraph-api",
			"schema_version": "v1",
		},
	}

	return p.kafkaClient.Producer([]kafka.Message{message}, p.topic)
}
