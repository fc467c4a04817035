package graph

import (
	"context"
	"fmt"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
)

// NeighborhoodOptions restringe os tipos de relacionamento carregados em
// cada direção; vazio carrega todos.
type NeighborhoodOptions struct {
	OutgoingTypes []string
	IncomingTypes []string
}

// Neighborhood é um nó com a primeira página de arestas em cada direção.
type Neighborhood struct {
	Node     entities.Node           `json:"node"`
	Outgoing []entities.Relationship `json:"outgoing"`
	Incoming []entities.Relationship `json:"incoming"`
}

// GetNodeWithRelationships faz um fetch do nó mais um fetch paginado de
// saída e um de entrada - primeira página apenas. Quem precisa de tudo
// pagina por conta própria via Query.
func (gs *GraphService) GetNodeWithRelationships(ctx context.Context, nodeID string, options NeighborhoodOptions) (*Neighborhood, error) {
	node, err := gs.nodes.Get(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("GraphService.GetNodeWithRelationships - failed to get node: %w", err)
	}

	outgoing, err := gs.relationships.Query(ctx, domain.RelationshipFilters{
		SourceID: nodeID,
		Types:    options.OutgoingTypes,
	}, domain.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("GraphService.GetNodeWithRelationships - failed to query outgoing: %w", err)
	}

	incoming, err := gs.relationships.Query(ctx, domain.RelationshipFilters{
		TargetID: nodeID,
		Types:    options.IncomingTypes,
	}, domain.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("GraphService.GetNodeWithRelationships - failed to query incoming: %w", err)
	}

	return &Neighborhood{
		Node:     *node,
		Outgoing: outgoing.Items,
		Incoming: incoming.Items,
	}, nil
}
