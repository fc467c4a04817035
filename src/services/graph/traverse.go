package graph

import (
	"context"
	"fmt"

	"gamegraph/src/domain/entities"
)

// Traverse faz uma busca em largura a partir de startID, seguindo os
// tipos de relacionamento informados até depth níveis. Por nível emite
// exatamente um fetch batched de relacionamentos sobre a fronteira
// (chunkeado em 10 source ids por chamada dentro do adapter) e um fetch
// batched dos nós recém-descobertos. O visited set garante que nenhum nó
// é buscado duas vezes no traversal inteiro, mesmo com caminhos
// redundantes.
func (gs *GraphService) Traverse(ctx context.Context, startID string, relationshipTypes []string, depth int, direction string) (map[string]entities.Node, error) {
	if depth <= 0 || depth > maxTraversalDepth {
		return nil, fmt.Errorf("GraphService.Traverse - depth must be between 1 and %d, got %d: %w", maxTraversalDepth, depth, ErrInvalidTraversal)
	}
	if direction != DirectionOutgoing && direction != DirectionIncoming {
		return nil, fmt.Errorf("GraphService.Traverse - unsupported direction %q: %w", direction, ErrInvalidTraversal)
	}

	start, err := gs.nodes.Get(ctx, startID)
	if err != nil {
		return nil, fmt.Errorf("GraphService.Traverse - failed to get start node: %w", err)
	}

	visited := map[string]entities.Node{start.ID: *start}
	frontier := []string{start.ID}

	for level := 0; level < depth && len(frontier) > 0; level++ {
		var rels []entities.Relationship
		if direction == DirectionOutgoing {
			rels, err = gs.relationships.GetBySourceIDs(ctx, frontier, relationshipTypes)
		} else {
			rels, err = gs.relationships.GetByTargetIDs(ctx, frontier, relationshipTypes)
		}
		if err != nil {
			return nil, fmt.Errorf("GraphService.Traverse - failed to fetch level %d relationships: %w", level+1, err)
		}

		// Coleta os endpoints ainda não visitados, sem duplicar ids
		// dentro do próprio nível.
		discovered := make([]string, 0, len(rels))
		seenThisLevel := make(map[string]bool, len(rels))
		for _, rel := range rels {
			nextID := rel.TargetID
			if direction == DirectionIncoming {
				nextID = rel.SourceID
			}
			if _, ok := visited[nextID]; ok || seenThisLevel[nextID] {
				continue
			}
			seenThisLevel[nextID] = true
			discovered = append(discovered, nextID)
		}

		if len(discovered) == 0 {
			break
		}

		nodes, err := gs.nodes.GetBatch(ctx, discovered)
		if err != nil {
			return nil, fmt.Errorf("GraphService.Traverse - failed to fetch level %d nodes: %w", level+1, err)
		}

		// Relacionamentos podem apontar para nós já deletados; esses ids
		// simplesmente não entram no resultado nem na fronteira.
		frontier = frontier[:0]
		for _, id := range discovered {
			if node, ok := nodes[id]; ok {
				visited[id] = node
				frontier = append(frontier, id)
			}
		}
	}

	return visited, nil
}
