package matching

import (
	"context"
	"fmt"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
)

// MatchResourcesForActivity descobre, para cada necessidade da activity,
// os resources do contexto que têm a capability pedida e nenhum
// commitment ativo. O filtro de capability é feito do lado do cliente de
// propósito: o backend não consegue consultar contenção em arrays com
// eficiência.
func (s *MatchingService) MatchResourcesForActivity(ctx context.Context, activityID string, contextScope string) ([]NeedMatch, error) {
	// Necessidades da activity: esperado pequeno (<10), primeira página
	// resolve.
	needsPage, err := s.relationships.Query(ctx, domain.RelationshipFilters{
		SourceID: activityID,
		Type:     entities.RelationshipTypeNeeds,
	}, domain.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("MatchingService.MatchResourcesForActivity - failed to query needs: %w", err)
	}

	if len(needsPage.Items) == 0 {
		return []NeedMatch{}, nil
	}

	// Candidatos: todos os nós resource do contexto, até o teto duro.
	resourcesPage, err := s.nodes.Query(ctx, domain.NodeFilters{
		Context: contextScope,
		Type:    entities.NodeTypeResource,
	}, domain.QueryOptions{PageSize: resourcePageCap})
	if err != nil {
		return nil, fmt.Errorf("MatchingService.MatchResourcesForActivity - failed to query resources: %w", err)
	}

	// Commitments de todos os candidatos num fetch batched (chunkeado
	// pelo adapter).
	resourceIDs := make([]string, 0, len(resourcesPage.Items))
	for _, resource := range resourcesPage.Items {
		resourceIDs = append(resourceIDs, resource.ID)
	}

	commitments, err := s.relationships.GetBySourceIDs(ctx, resourceIDs, commitmentTypes)
	if err != nil {
		return nil, fmt.Errorf("MatchingService.MatchResourcesForActivity - failed to fetch commitments: %w", err)
	}

	commitmentsByResource := make(map[string][]entities.Relationship, len(commitments))
	for _, commitment := range commitments {
		commitmentsByResource[commitment.SourceID] = append(commitmentsByResource[commitment.SourceID], commitment)
	}

	// Resources com pelo menos um commitment ativo saem do pool;
	// commitments expirados/cancelados não contam.
	available := make([]entities.Node, 0, len(resourcesPage.Items))
	for _, resource := range resourcesPage.Items {
		if s.hasActiveCommitment(commitmentsByResource[resource.ID]) {
			continue
		}
		available = append(available, resource)
	}

	matches := make([]NeedMatch, 0, len(needsPage.Items))
	for _, need := range needsPage.Items {
		requiredType := needType(need)

		match := NeedMatch{Need: need, AvailableResources: []entities.Node{}}
		for _, resource := range available {
			if requiredType == "" || resource.HasCapability(requiredType) {
				match.AvailableResources = append(match.AvailableResources, resource)
			}
		}

		matches = append(matches, match)
	}

	return matches, nil
}
