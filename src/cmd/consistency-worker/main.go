package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamegraph/src/adapters/kafka/consumers"
	"gamegraph/src/helper/env"
	"gamegraph/src/infra/kafka"
	"gamegraph/src/infra/postgres"
	"gamegraph/src/repositories"
	"gamegraph/src/services/consistency"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

func main() {
	log.SetOutput(os.Stdout)
	log.Println("Starting Consistency Worker with Uber Fx...")

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newSQLClient,
			newKafkaClient,
			newNodeRepository,
			newContextActivityRepository,
			newConsistencyWorker,
			newGraphChangesConsumer,
		),

		// Invocations
		fx.Invoke(startConsumer),
	)

	// Start the application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start consistency worker: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down consistency worker...")

	// Stop the application
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}

	log.Println("Consistency worker shutdown complete")
}

func newLogger() *slog.Logger {
	logLevel := env.GetString("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func newSQLClient() (*pgxpool.Pool, error) {
	dbHost := env.MustGetString("DB_HOST")
	dbPort := env.GetString("DB_PORT", "5432")
	dbname := env.MustGetString("DB_NAME")
	dbUser := env.MustGetString("DB_USER")
	dbPassword := env.MustGetString("DB_PASSWORD")
	maxConnections := env.GetInt("DB_MAX_POOL_CONNECTIONS", 10)

	return postgres.NewPostgresClient(dbHost, dbPort, dbname, dbUser, dbPassword, maxConnections)
}

func newKafkaClient() (*kafka.KafkaClient, error) {
	brokers := env.MustGetString("KAFKA_BROKERS")
	groupID := env.MustGetString("KAFKA_CONSISTENCY_WORKER_GROUP_ID")
	batchSize := env.GetInt("KAFKA_BATCH_SIZE", 100)

	return kafka.NewKafkaClient(brokers, groupID, batchSize)
}

// newNodeRepository constrói o repositório sem broker: o worker recebe
// os eventos pelo Kafka e não deve realimentar o change feed com os
// próprios ajustes de "_meta:".
func newNodeRepository(pool *pgxpool.Pool) *repositories.NodeRepository {
	return repositories.NewNodeRepository(pool, nil)
}

func newContextActivityRepository(pool *pgxpool.Pool) *repositories.ContextActivityRepository {
	return repositories.NewContextActivityRepository(pool)
}

func newConsistencyWorker(
	logger *slog.Logger,
	nodeRepository *repositories.NodeRepository,
	contextActivityRepository *repositories.ContextActivityRepository,
) *consistency.Worker {
	return consistency.NewWorker(logger, nodeRepository, contextActivityRepository)
}

func newGraphChangesConsumer(
	logger *slog.Logger,
	worker *consistency.Worker,
) *consumers.GraphChangesConsumer {
	return consumers.NewGraphChangesConsumer(logger, worker)
}

func startConsumer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	kafkaClient *kafka.KafkaClient,
	graphChangesConsumer *consumers.GraphChangesConsumer,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			topic := env.MustGetString("KAFKA_GRAPH_CHANGES_TOPIC")
			logger.Info("Starting graph changes consumer", "topic", topic)

			// Start consumer in background
			go func() {
				if err := graphChangesConsumer.Start(context.Background(), kafkaClient, topic); err != nil {
					logger.Error("Consumer failed", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down Kafka client...")
			if err := kafkaClient.Close(); err != nil {
				logger.Error("Failed to close Kafka client", "error", err)
				return err
			}
			logger.Info("Kafka client shut down gracefully")
			return nil
		},
	})
}
