package matching

import (
	"context"
	"fmt"
	"time"

	"gamegraph/src/domain/entities"
)

// CanResourceFulfillNeed checa match de capability E zero commitments
// ativos para o resource. É uma checagem apenas: não reserva nada.
func (s *MatchingService) CanResourceFulfillNeed(ctx context.Context, resourceID string, needID string) (*FulfillmentCheck, error) {
	need, err := s.relationships.Get(ctx, needID)
	if err != nil {
		return nil, fmt.Errorf("MatchingService.CanResourceFulfillNeed - failed to get need: %w", err)
	}

	resource, err := s.nodes.Get(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("MatchingService.CanResourceFulfillNeed - failed to get resource: %w", err)
	}

	if requiredType := needType(*need); requiredType != "" && !resource.HasCapability(requiredType) {
		return &FulfillmentCheck{
			CanFulfill: false,
			Reason:     fmt.Sprintf("resource lacks capability %q", requiredType),
		}, nil
	}

	commitments, err := s.relationships.GetBySourceIDs(ctx, []string{resourceID}, commitmentTypes)
	if err != nil {
		return nil, fmt.Errorf("MatchingService.CanResourceFulfillNeed - failed to fetch commitments: %w", err)
	}

	if s.hasActiveCommitment(commitments) {
		return &FulfillmentCheck{
			CanFulfill: false,
			Reason:     "resource has an active commitment",
		}, nil
	}

	return &FulfillmentCheck{CanFulfill: true}, nil
}

// CommitResourceToNeed reexecuta a checagem imediatamente antes de criar
// o relacionamento committed_to. O check-then-act não é atômico contra
// um segundo caller concorrente; o id determinístico do commitment faz o
// backend decidir: o perdedor da corrida recebe ErrAlreadyCommitted em
// vez de produzir double-booking silencioso.
func (s *MatchingService) CommitResourceToNeed(ctx context.Context, resourceID string, needID string, activityID string, userID string) (*entities.Relationship, error) {
	check, err := s.CanResourceFulfillNeed(ctx, resourceID, needID)
	if err != nil {
		return nil, err
	}
	if !check.CanFulfill {
		return nil, fmt.Errorf("MatchingService.CommitResourceToNeed - %s: %w", check.Reason, ErrResourceUnavailable)
	}

	validFrom := s.now().UTC()
	commitment := entities.Relationship{
		ID:        entities.DeterministicRelationshipID(resourceID, needID, entities.RelationshipTypeCommittedTo),
		SourceID:  resourceID,
		TargetID:  needID,
		Type:      entities.RelationshipTypeCommittedTo,
		CreatedBy: userID,
		Attributes: map[string]any{
			"activity_id": activityID,
		},
		ValidFrom: &validFrom,
	}

	created, wasCreated, err := s.relationships.CreateIfAbsent(ctx, commitment)
	if err != nil {
		return nil, fmt.Errorf("MatchingService.CommitResourceToNeed - failed to create commitment: %w", err)
	}
	if !wasCreated {
		// Um commitment expirado com a mesma forma ocupa o mesmo id
		// determinístico; recriar uma alocação encerrada é um novo
		// relacionamento com id aleatório, decisão do caller.
		if created.IsActiveAt(time.Now()) {
			return nil, fmt.Errorf("MatchingService.CommitResourceToNeed - commitment %s: %w", created.ID, ErrAlreadyCommitted)
		}
		return nil, fmt.Errorf("MatchingService.CommitResourceToNeed - expired commitment %s occupies the deterministic id: %w", created.ID, ErrAlreadyCommitted)
	}

	return created, nil
}
