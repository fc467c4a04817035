package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"time"

	"gamegraph/src/adapters/http"
	"gamegraph/src/helper/env"
	"gamegraph/src/infra/changefeed"
	"gamegraph/src/infra/kafka"
	"gamegraph/src/infra/postgres"
	"gamegraph/src/infra/redis"
	"gamegraph/src/repositories"
	"gamegraph/src/services/consistency"
	"gamegraph/src/services/events"
	"gamegraph/src/services/graph"
	"gamegraph/src/services/matching"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

func main() {
	// Configurar logger
	log.SetOutput(os.Stdout)
	log.Println("Starting API server with Uber Fx...")

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newSQLClient,
			newRedisClient,
			newChangeFeedBroker,
			newNodeRepository,
			newCachedNodeRepository,
			newRelationshipRepository,
			newContextActivityRepository,
			newGraphService,
			newMatchingService,
			newServer,
		),

		// Invocations
		fx.Invoke(runMigrations),
		fx.Invoke(attachChangeFeedConsumers),
		fx.Invoke(registerServerHooks),
	)

	// Start the application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wait for app to exit gracefully
	<-app.Done()
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

// newSQLClient configures and returns a pgxpool connection pool
func newSQLClient() (*pgxpool.Pool, error) {
	dbHost := env.MustGetString("DB_HOST")
	dbPort := env.GetString("DB_PORT", "5432")
	dbname := env.MustGetString("DB_NAME")
	dbUser := env.MustGetString("DB_USER")
	dbPassword := env.MustGetString("DB_PASSWORD")
	maxConnections := env.GetInt("DB_MAX_POOL_CONNECTIONS", 25)

	return postgres.NewPostgresClient(dbHost, dbPort, dbname, dbUser, dbPassword, maxConnections)
}

// newRedisClient é opcional: sem REDIS_HOSTS o read-through é desligado
// e as leituras de nó vão direto ao banco.
func newRedisClient() *redis.RedisClient {
	redisHosts := env.GetString("REDIS_HOSTS", "")
	if redisHosts == "" {
		return nil
	}

	redisPoolSize := env.GetInt("REDIS_POOL_SIZE", 50)
	redisDefaultTTLSeconds := env.GetInt("REDIS_DEFAULT_TTL_SECONDS", 120)
	redisDefaultTTL := time.Duration(redisDefaultTTLSeconds) * time.Second

	return redis.NewRedisClient(redisHosts, redisPoolSize, redisDefaultTTL)
}

func newChangeFeedBroker() *changefeed.Broker {
	bufferSize := env.GetInt("CHANGEFEED_BUFFER_SIZE", 1024)
	return changefeed.NewBroker(bufferSize)
}

func newNodeRepository(pool *pgxpool.Pool, broker *changefeed.Broker) *repositories.NodeRepository {
	return repositories.NewNodeRepository(pool, broker)
}

func newCachedNodeRepository(
	nodeRepository *repositories.NodeRepository,
	redisClient *redis.RedisClient,
	broker *changefeed.Broker,
) *repositories.CachedNodeRepository {
	return repositories.NewCachedNodeRepository(nodeRepository, redisClient, broker)
}

func newRelationshipRepository(pool *pgxpool.Pool, broker *changefeed.Broker) *repositories.RelationshipRepository {
	return repositories.NewRelationshipRepository(pool, broker)
}

func newContextActivityRepository(pool *pgxpool.Pool) *repositories.ContextActivityRepository {
	return repositories.NewContextActivityRepository(pool)
}

func newGraphService(
	cachedNodeRepository *repositories.CachedNodeRepository,
	relationshipRepository *repositories.RelationshipRepository,
) *graph.GraphService {
	return graph.NewGraphService(cachedNodeRepository, relationshipRepository)
}

func newMatchingService(
	nodeRepository *repositories.NodeRepository,
	relationshipRepository *repositories.RelationshipRepository,
) *matching.MatchingService {
	return matching.NewMatchingService(nodeRepository, relationshipRepository)
}

func newServer(
	logger *slog.Logger,
	nodeRepository *repositories.NodeRepository,
	relationshipRepository *repositories.RelationshipRepository,
	graphService *graph.GraphService,
	matchingService *matching.MatchingService,
) *http.Server {
	port := env.GetInt("SERVER_PORT", 8888)

	return http.NewServer(logger, port, nodeRepository, relationshipRepository, graphService, matchingService)
}

func runMigrations(lc fx.Lifecycle, pool *pgxpool.Pool) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return postgres.RunMigrations(ctx, pool)
		},
	})
}

// attachChangeFeedConsumers liga o pós-commit do change feed. Com
// KAFKA_BROKERS configurado os eventos saem para o tópico e o worker
// roda no binário dedicado; sem Kafka, o worker de consistência roda
// in-process no mesmo feed.
func attachChangeFeedConsumers(
	lc fx.Lifecycle,
	logger *slog.Logger,
	broker *changefeed.Broker,
	nodeRepository *repositories.NodeRepository,
	contextActivityRepository *repositories.ContextActivityRepository,
) error {
	brokers := env.GetString("KAFKA_BROKERS", "")
	if brokers == "" {
		worker := consistency.NewWorker(logger, nodeRepository, contextActivityRepository)
		worker.AttachTo(broker)
		logger.Info("Consistency worker attached in-process")
	} else {
		groupID := env.GetString("KAFKA_GROUP_ID", "gamegraph-api")
		batchSize := env.GetInt("KAFKA_BATCH_SIZE", 100)

		kafkaClient, err := kafka.NewKafkaClient(brokers, groupID, batchSize)
		if err != nil {
			return err
		}

		topic := env.MustGetString("KAFKA_GRAPH_CHANGES_TOPIC")
		publisher := events.NewDomainEventPublisher(logger, kafkaClient, topic)
		publisher.AttachTo(broker)
		logger.Info("Domain event publisher attached", "topic", topic)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return kafkaClient.Close()
			},
		})
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			broker.Close()
			return nil
		},
	})

	return nil
}

// registerServerHooks registers lifecycle hooks for the HTTP server
func registerServerHooks(lc fx.Lifecycle, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Start server in a separate goroutine
			go func() {
				if err := srv.Start(); err != nil && err != nethttp.ErrServerClosed {
					log.Fatalf("Server failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Create timeout context for graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			log.Println("Shutting down server...")
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Server forced to shutdown: %v", err)
				return err
			}
			log.Println("Server exited gracefully")
			return nil
		},
	})
}
