package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
)

// AsyncValidator é um passo do pipeline assíncrono: checagens de
// existência/disponibilidade que exigem uma ida ao store. Fase separada
// da validação síncrona de propósito; esta camada nunca mistura as duas
// em silêncio.
type AsyncValidator func(ctx context.Context) Result

// RunPipeline executa os passos em sequência acumulando as falhas de
// todos. Erros de infraestrutura interrompem: indisponibilidade de
// backend não é uma violação de validação.
func RunPipeline(ctx context.Context, validators ...AsyncValidator) (Result, error) {
	result := ok()

	for _, validator := range validators {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		partial := validator(ctx)
		if !partial.Valid {
			result.Valid = false
			result.Errors = append(result.Errors, partial.Errors...)
		}
	}

	return result, nil
}

type nodeGetter interface {
	Get(ctx context.Context, id string) (*entities.Node, error)
	Query(ctx context.Context, filters domain.NodeFilters, options domain.QueryOptions) (*domain.Page[entities.Node], error)
}

type relationshipLister interface {
	GetBySourceIDs(ctx context.Context, sourceIDs []string, types []string) ([]entities.Relationship, error)
}

// ContextExists verifica se o contexto tem pelo menos um nó, ou seja, se
// o escopo já foi provisionado.
func ContextExists(nodes nodeGetter, contextScope string) AsyncValidator {
	return func(ctx context.Context) Result {
		page, err := nodes.Query(ctx, domain.NodeFilters{Context: contextScope}, domain.QueryOptions{PageSize: 1})
		if err != nil {
			return fail(fmt.Sprintf("could not verify context %q: %v", contextScope, err))
		}
		if len(page.Items) == 0 {
			return fail(fmt.Sprintf("context %q does not exist", contextScope))
		}
		return ok()
	}
}

// NodeExists verifica a existência de um nó por id.
func NodeExists(nodes nodeGetter, id string) AsyncValidator {
	return func(ctx context.Context) Result {
		if _, err := nodes.Get(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNodeNotFound) {
				return fail(fmt.Sprintf("node %q does not exist", id))
			}
			return fail(fmt.Sprintf("could not verify node %q: %v", id, err))
		}
		return ok()
	}
}

// ResourceAvailable verifica que o resource não tem commitment ativo.
func ResourceAvailable(relationships relationshipLister, resourceID string) AsyncValidator {
	commitmentTypes := []string{entities.RelationshipTypeCommittedTo, entities.RelationshipTypeReserved}

	return func(ctx context.Context) Result {
		rels, err := relationships.GetBySourceIDs(ctx, []string{resourceID}, commitmentTypes)
		if err != nil {
			return fail(fmt.Sprintf("could not verify resource %q: %v", resourceID, err))
		}

		now := time.Now()
		for _, rel := range rels {
			if rel.IsActiveAt(now) {
				return fail(fmt.Sprintf("resource %q has an active commitment", resourceID))
			}
		}
		return ok()
	}
}
