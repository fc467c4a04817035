package matching

import (
	"context"
	"errors"
	"time"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
)

var (
	// ErrResourceUnavailable indica que a checagem de fulfillment falhou
	// no momento do commit.
	ErrResourceUnavailable = errors.New("resource cannot fulfill need")

	// ErrAlreadyCommitted indica que o relacionamento determinístico de
	// commitment já existia: um caller concorrente venceu a corrida.
	ErrAlreadyCommitted = errors.New("resource already committed to this need")
)

// Atributo do relacionamento "needs" que indica o tipo de necessidade; é
// intersectado com a lista de capabilities do resource do lado do
// cliente (o backend não consulta contenção em arrays).
const needTypeAttribute = "need_type"

// Teto duro de candidatos por contexto. Teto de escala explícito e
// aceito, não uma solução geral.
const resourcePageCap = 500

// Tipos de relacionamento que tornam um resource indisponível enquanto
// ativos.
var commitmentTypes = []string{
	entities.RelationshipTypeCommittedTo,
	entities.RelationshipTypeReserved,
}

type NodeReader interface {
	Get(ctx context.Context, id string) (*entities.Node, error)
	Query(ctx context.Context, filters domain.NodeFilters, options domain.QueryOptions) (*domain.Page[entities.Node], error)
}

type RelationshipAccessor interface {
	Get(ctx context.Context, id string) (*entities.Relationship, error)
	Query(ctx context.Context, filters domain.RelationshipFilters, options domain.QueryOptions) (*domain.Page[entities.Relationship], error)
	GetBySourceIDs(ctx context.Context, sourceIDs []string, types []string) ([]entities.Relationship, error)
	CreateIfAbsent(ctx context.Context, rel entities.Relationship) (*entities.Relationship, bool, error)
}

// MatchingService descobre resources para as necessidades de uma
// activity e conduz o workflow de commitment. Sem ranking ou score:
// devolver todos os resources qualificados é o contrato completo.
type MatchingService struct {
	nodes         NodeReader
	relationships RelationshipAccessor
	now           func() time.Time
}

func NewMatchingService(nodes NodeReader, relationships RelationshipAccessor) *MatchingService {
	return &MatchingService{
		nodes:         nodes,
		relationships: relationships,
		now:           time.Now,
	}
}

// NeedMatch é o resultado por necessidade: o relacionamento "needs" e
// todos os resources qualificados e livres.
type NeedMatch struct {
	Need               entities.Relationship `json:"need"`
	AvailableResources []entities.Node       `json:"available_resources"`
}

// FulfillmentCheck é o resultado de CanResourceFulfillNeed. É só uma
// checagem: nada impede o estado de mudar logo depois.
type FulfillmentCheck struct {
	CanFulfill bool   `json:"can_fulfill"`
	Reason     string `json:"reason,omitempty"`
}

func needType(need entities.Relationship) string {
	if raw, ok := need.Attributes[needTypeAttribute]; ok {
		if value, ok := raw.(string); ok {
			return value
		}
	}
	return ""
}

// hasActiveCommitment verifica se alguma das arestas está ativa agora
// segundo a regra de validade (limite superior exclusivo).
func (s *MatchingService) hasActiveCommitment(rels []entities.Relationship) bool {
	now := s.now()
	for _, rel := range rels {
		if rel.IsActiveAt(now) {
			return true
		}
	}
	return false
}
