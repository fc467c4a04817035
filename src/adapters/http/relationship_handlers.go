package http

import (
	"encoding/json"
	"net/http"

	"gamegraph/src/domain"
	"gamegraph/src/validation"
)

// CreateRelationship trata POST /v1/relationships
func (s *Server) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	rel := req.toEntity()
	if err := validation.AsError(validation.ValidateRelationship(rel)); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.relationships.Create(r.Context(), rel)
	if err != nil {
		s.logger.Error("failed to create relationship", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetRelationship trata GET /v1/relationships/{id}
func (s *Server) GetRelationship(w http.ResponseWriter, r *http.Request) {
	rel, err := s.relationships.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rel)
}

// DeleteRelationship trata DELETE /v1/relationships/{id}
func (s *Server) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	if err := s.relationships.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// QueryRelationships trata GET /v1/relationships com filtros por
// endpoint e tipo.
func (s *Server) QueryRelationships(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := domain.RelationshipFilters{
		SourceID:  query.Get("source_id"),
		TargetID:  query.Get("target_id"),
		Type:      query.Get("type"),
		CreatedBy: query.Get("created_by"),
	}
	options := queryOptionsFromRequest(r)

	page, err := s.relationships.Query(r.Context(), filters, options)
	if err != nil {
		s.logger.Error("failed to query relationships", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}
