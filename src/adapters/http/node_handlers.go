package http

import (
	"encoding/json"
	"net/http"

	"gamegraph/src/domain"
	"gamegraph/src/services/graph"
	"gamegraph/src/validation"
)

// CreateNode trata POST /v1/nodes
func (s *Server) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	node := req.toEntity()
	if err := validation.AsError(validation.ValidateNode(node)); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.nodes.Create(r.Context(), node)
	if err != nil {
		s.logger.Error("failed to create node", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetNode trata GET /v1/nodes/{id}
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := s.nodes.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// UpdateNode trata PATCH /v1/nodes/{id}. O corpo carrega só o merge de
// atributos; identidade e timestamps são do servidor.
func (s *Server) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var req nodePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if len(req.Attributes) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "attributes is required"})
		return
	}

	updated, err := s.nodes.Update(r.Context(), r.PathValue("id"), req.Attributes)
	if err != nil {
		s.logger.Error("failed to update node", "node_id", r.PathValue("id"), "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteNode trata DELETE /v1/nodes/{id}
func (s *Server) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := s.nodes.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// QueryNodes trata GET /v1/nodes com filtros e cursor via query string.
func (s *Server) QueryNodes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := domain.NodeFilters{
		Context:    query.Get("context"),
		Type:       query.Get("type"),
		CreatedBy:  query.Get("created_by"),
		Visibility: query.Get("visibility"),
	}
	options := queryOptionsFromRequest(r)

	page, err := s.nodes.Query(r.Context(), filters, options)
	if err != nil {
		s.logger.Error("failed to query nodes", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetNodeGraph trata GET /v1/nodes/{id}/graph. Sem o parâmetro depth
// responde a vizinhança imediata; com depth faz o traversal limitado.
func (s *Server) GetNodeGraph(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")
	query := r.URL.Query()

	if depth := parseIntParam(query.Get("depth"), 0); depth > 0 {
		direction := query.Get("direction")
		if direction == "" {
			direction = graph.DirectionOutgoing
		}

		result, err := s.graphService.Traverse(r.Context(), nodeID, query["relationship_type"], depth, direction)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	neighborhood, err := s.graphService.GetNodeWithRelationships(r.Context(), nodeID, graphOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, neighborhood)
}
