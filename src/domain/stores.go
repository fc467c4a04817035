package domain

import (
	"context"

	"gamegraph/src/domain/entities"
)

// UnsubscribeFunc libera uma subscription de mudanças.
type UnsubscribeFunc func()

// NodeStore é o contrato do adapter de armazenamento para nós. É a única
// fronteira com o banco de documentos: nenhum colaborador externo fala
// com o backend diretamente.
type NodeStore interface {
	Create(ctx context.Context, node entities.Node) (*entities.Node, error)
	Get(ctx context.Context, id string) (*entities.Node, error)
	// Update faz merge raso dos atributos parciais; nunca substitui o
	// mapa inteiro. Chaves "_meta:" são rejeitadas (worker-only).
	Update(ctx context.Context, id string, attributes map[string]any) (*entities.Node, error)
	Delete(ctx context.Context, id string) error

	Query(ctx context.Context, filters NodeFilters, options QueryOptions) (*Page[entities.Node], error)
	// GetBatch busca por ids em chunks de até 10 (limite de predicado
	// "valor em conjunto" do backend). Ids inexistentes ficam ausentes
	// do mapa, sem erro.
	GetBatch(ctx context.Context, ids []string) (map[string]entities.Node, error)
	CreateBatch(ctx context.Context, nodes []entities.Node) BatchResult
	DeleteBatch(ctx context.Context, ids []string) BatchResult

	Subscribe(id string, cb func(*entities.Node)) UnsubscribeFunc
	SubscribeQuery(filters NodeFilters, cb func([]entities.Node)) UnsubscribeFunc

	// AdjustMetaCounter incrementa atomicamente (single-document) um
	// contador "_meta:". Chamado somente pelo consistency worker.
	AdjustMetaCounter(ctx context.Context, id string, key string, delta int64) error
}

// RelationshipStore é o contrato do adapter de armazenamento para
// relacionamentos.
type RelationshipStore interface {
	Create(ctx context.Context, rel entities.Relationship) (*entities.Relationship, error)
	// CreateIfAbsent implementa a semântica create-if-absent usada por
	// call sites com id determinístico; created=false quando o id já
	// existe.
	CreateIfAbsent(ctx context.Context, rel entities.Relationship) (*entities.Relationship, bool, error)
	Get(ctx context.Context, id string) (*entities.Relationship, error)
	Update(ctx context.Context, id string, attributes map[string]any) (*entities.Relationship, error)
	Delete(ctx context.Context, id string) error

	Query(ctx context.Context, filters RelationshipFilters, options QueryOptions) (*Page[entities.Relationship], error)
	GetBatch(ctx context.Context, ids []string) (map[string]entities.Relationship, error)
	// GetBySourceIDs busca relacionamentos pelos nós de origem, com o
	// mesmo chunking de 10 ids por chamada. Usado pelo traversal.
	GetBySourceIDs(ctx context.Context, sourceIDs []string, types []string) ([]entities.Relationship, error)
	GetByTargetIDs(ctx context.Context, targetIDs []string, types []string) ([]entities.Relationship, error)
	CreateBatch(ctx context.Context, rels []entities.Relationship) BatchResult
	DeleteBatch(ctx context.Context, ids []string) BatchResult

	Subscribe(id string, cb func(*entities.Relationship)) UnsubscribeFunc
	SubscribeQuery(filters RelationshipFilters, cb func([]entities.Relationship)) UnsubscribeFunc
}
