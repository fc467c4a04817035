package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
	"gamegraph/src/infra/changefeed"
	"gamegraph/src/infra/redis"
)

// CachedNodeRepository é o read-through Redis para os caminhos de
// leitura em massa (graph/matching). Escritas não passam por aqui; a
// invalidação vem do change feed. Serve leituras eventualmente
// consistentes por definição.
type CachedNodeRepository struct {
	nodeRepository *NodeRepository
	redisClient    *redis.RedisClient
}

func NewCachedNodeRepository(
	nodeRepository *NodeRepository,
	redisClient *redis.RedisClient,
	broker *changefeed.Broker,
) *CachedNodeRepository {
	repo := &CachedNodeRepository{
		nodeRepository: nodeRepository,
		redisClient:    redisClient,
	}

	if broker != nil && redisClient != nil {
		// Invalidação dirigida pelo mesmo stream das subscriptions.
		broker.Subscribe(func(event domain.ChangeEvent) {
			if event.Kind != domain.ChangeKindNode {
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := redisClient.InvalidateKeys(ctx, []string{nodeCacheKey(event.EntityID)}); err != nil {
				log.Printf("CachedNodeRepository - failed to invalidate %s: %v", event.EntityID, err)
			}
		})
	}

	return repo
}

func nodeCacheKey(id string) string {
	return fmt.Sprintf("gamegraph:node:%s", id)
}

func (r *CachedNodeRepository) Get(ctx context.Context, id string) (*entities.Node, error) {
	if node, found := r.getFromCache(ctx, id); found {
		return node, nil
	}

	node, err := r.nodeRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	r.setInCacheAsync(map[string]entities.Node{node.ID: *node})

	return node, nil
}

// GetBatch resolve o que puder do cache e delega o restante ao
// repositório (que aplica o chunking de backend por conta própria).
func (r *CachedNodeRepository) GetBatch(ctx context.Context, ids []string) (map[string]entities.Node, error) {
	result := make(map[string]entities.Node, len(ids))
	var missing []string

	for _, id := range ids {
		if node, found := r.getFromCache(ctx, id); found {
			result[id] = *node
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := r.nodeRepository.GetBatch(ctx, missing)
	if err != nil {
		return nil, err
	}

	for id, node := range fetched {
		result[id] = node
	}
	r.setInCacheAsync(fetched)

	return result, nil
}

func (r *CachedNodeRepository) getFromCache(ctx context.Context, id string) (*entities.Node, bool) {
	if r.redisClient == nil {
		return nil, false
	}

	raw, found, err := r.redisClient.GetKey(ctx, nodeCacheKey(id))
	if err != nil {
		// Erro de cache não derruba a leitura: segue para o Postgres.
		log.Printf("CachedNodeRepository - cache read error for %s: %v", id, err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var node entities.Node
	if err := json.Unmarshal([]byte(raw), &node); err != nil {
		log.Printf("CachedNodeRepository - corrupt cache entry for %s: %v", id, err)
		return nil, false
	}

	return &node, true
}

func (r *CachedNodeRepository) setInCacheAsync(nodes map[string]entities.Node) {
	if r.redisClient == nil || len(nodes) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		keyValues := make(map[string]string, len(nodes))
		for id, node := range nodes {
			raw, err := json.Marshal(node)
			if err != nil {
				continue
			}
			keyValues[nodeCacheKey(id)] = string(raw)
		}

		if err := r.redisClient.SetMultiple(ctx, keyValues); err != nil {
			log.Printf("CachedNodeRepository - cache write error: %v", err)
		}
	}()
}
