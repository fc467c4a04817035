package validation

import (
	"fmt"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
)

// Schema por tipo de nó: cada tipo é dono de um subconjunto conhecido de
// atributos, validado aqui; o envelope de armazenamento continua
// uniforme (saco aberto).
var nodeSchemas = map[string]map[string]Validator{
	entities.NodeTypeActivity: {
		"title": All(Required("title"), MinLength("title", 3), MaxLength("title", 120)),
		"date":  All(Required("date"), Date("date")),
		"time":  Required("time"),
	},
	entities.NodeTypeResource: {
		"name":          All(Required("name"), MinLength("name", 2), MaxLength("name", 120)),
		"resource_type": Required("resource_type"),
	},
	entities.NodeTypePerson: {
		"name": All(Required("name"), MaxLength("name", 120)),
	},
	entities.NodeTypeGroup: {
		"name": All(Required("name"), MaxLength("name", 120)),
	},
}

var visibilityValidator = OneOf("visibility",
	entities.VisibilityPublic,
	entities.VisibilityPrivate,
	entities.VisibilityGroup,
	entities.VisibilitySelected,
)

// ValidateNode roda o schema do tipo sobre o envelope e os atributos,
// acumulando todas as violações. Fase síncrona apenas: checagens que
// precisam do store vivem no pipeline assíncrono, e o caller invoca as
// duas fases explicitamente quando as duas importam.
func ValidateNode(node entities.Node) Result {
	result := ok()
	accumulate := func(partial Result) {
		if !partial.Valid {
			result.Valid = false
			result.Errors = append(result.Errors, partial.Errors...)
		}
	}

	schema, known := nodeSchemas[node.Type]
	if !known {
		accumulate(fail(fmt.Sprintf("unknown node type: %q", node.Type)))
	}

	if !entities.ValidContext(node.Context) {
		accumulate(fail(`context must have the "domain:scope" format`))
	}

	if node.Visibility != "" {
		accumulate(visibilityValidator(node.Visibility))
	}

	for key := range node.Attributes {
		if entities.IsMetaKey(key) {
			accumulate(fail(fmt.Sprintf("attribute %q is derived and read-only", key)))
		}
	}

	for field, validator := range schema {
		accumulate(validator(node.Attributes[field]))
	}

	return result
}

// ValidateRelationship valida o envelope de uma aresta.
func ValidateRelationship(rel entities.Relationship) Result {
	result := ok()
	accumulate := func(partial Result) {
		if !partial.Valid {
			result.Valid = false
			result.Errors = append(result.Errors, partial.Errors...)
		}
	}

	accumulate(Required("source_id")(rel.SourceID))
	accumulate(Required("target_id")(rel.TargetID))
	accumulate(Required("type")(rel.Type))

	if rel.ValidFrom != nil && rel.ValidUntil != nil && !rel.ValidFrom.Before(*rel.ValidUntil) {
		accumulate(fail("valid_from must be before valid_until"))
	}

	return result
}

// AsError converte um Result reprovado no erro tipado do domínio; nil
// quando válido.
func AsError(result Result) error {
	if result.Valid {
		return nil
	}
	return &domain.ValidationError{Errors: result.Errors}
}
