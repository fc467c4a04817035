package graph

import (
	"context"
	"errors"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
)

// ErrInvalidTraversal indica parâmetros de traversal fora dos limites
// aceitos (depth ou direção).
var ErrInvalidTraversal = errors.New("invalid traversal parameters")

// Direção de navegação no grafo.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// Profundidade máxima aceita pelo traversal. Traversal sem limite é
// não-objetivo: o caller controla custo via depth e conjunto de tipos.
const maxTraversalDepth = 8

// NodeReader é o subconjunto de leitura de nós que o serviço precisa.
// Tanto o NodeRepository quanto o CachedNodeRepository satisfazem.
type NodeReader interface {
	Get(ctx context.Context, id string) (*entities.Node, error)
	GetBatch(ctx context.Context, ids []string) (map[string]entities.Node, error)
}

// RelationshipReader é o subconjunto de leitura de relacionamentos.
type RelationshipReader interface {
	Query(ctx context.Context, filters domain.RelationshipFilters, options domain.QueryOptions) (*domain.Page[entities.Relationship], error)
	GetBySourceIDs(ctx context.Context, sourceIDs []string, types []string) ([]entities.Relationship, error)
	GetByTargetIDs(ctx context.Context, targetIDs []string, types []string) ([]entities.Relationship, error)
}

// GraphService resolve vizinhanças e traversals limitados em
// profundidade sobre chamadas batched do store adapter. Não depende do
// client cache: os caminhos de leitura em massa falam direto com o
// adapter (ou com o read-through Redis).
type GraphService struct {
	nodes         NodeReader
	relationships RelationshipReader
}

func NewGraphService(nodes NodeReader, relationships RelationshipReader) *GraphService {
	return &GraphService{
		nodes:         nodes,
		relationships: relationships,
	}
}
