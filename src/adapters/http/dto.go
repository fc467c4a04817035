package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
	"gamegraph/src/services/graph"
	"gamegraph/src/services/matching"
)

// nodeRequest é o payload de escrita de um nó. O ID é opcional no
// POST (o servidor gera um quando ausente).
type nodeRequest struct {
	ID         string         `json:"id,omitempty"`
	Type       string         `json:"type"`
	Context    string         `json:"context"`
	CreatedBy  string         `json:"created_by"`
	Visibility string         `json:"visibility,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func (r nodeRequest) toEntity() entities.Node {
	return entities.Node{
		ID:         r.ID,
		Type:       r.Type,
		Context:    r.Context,
		CreatedBy:  r.CreatedBy,
		Visibility: r.Visibility,
		Attributes: r.Attributes,
	}
}

// nodePatchRequest carrega apenas o merge de atributos do PATCH.
type nodePatchRequest struct {
	Attributes map[string]any `json:"attributes"`
}

type relationshipRequest struct {
	ID         string         `json:"id,omitempty"`
	SourceID   string         `json:"source_id"`
	TargetID   string         `json:"target_id"`
	Type       string         `json:"type"`
	CreatedBy  string         `json:"created_by"`
	Attributes map[string]any `json:"attributes,omitempty"`
	ValidFrom  *time.Time     `json:"valid_from,omitempty"`
	ValidUntil *time.Time     `json:"valid_until,omitempty"`
}

func (r relationshipRequest) toEntity() entities.Relationship {
	return entities.Relationship{
		ID:         r.ID,
		SourceID:   r.SourceID,
		TargetID:   r.TargetID,
		Type:       r.Type,
		CreatedBy:  r.CreatedBy,
		Attributes: r.Attributes,
		ValidFrom:  r.ValidFrom,
		ValidUntil: r.ValidUntil,
	}
}

type errorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError mapeia os erros de domínio para códigos HTTP.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Errors: validationErr.Errors,
		})
		return
	}

	switch {
	case errors.Is(err, graph.ErrInvalidTraversal):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrRelationshipNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, matching.ErrAlreadyCommitted),
		errors.Is(err, matching.ErrResourceUnavailable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		// Nunca vaza o erro cru do backend para o colaborador.
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: domain.ErrUnavailableServer.Error()})
	}
}
