package http

import (
	"encoding/json"
	"net/http"
)

type commitmentRequest struct {
	ResourceID string `json:"resource_id"`
	NeedID     string `json:"need_id"`
	CreatedBy  string `json:"created_by"`
}

// MatchActivity trata GET /v1/activities/{id}/matches. O escopo de
// contexto vem da query string e limita os recursos candidatos.
func (s *Server) MatchActivity(w http.ResponseWriter, r *http.Request) {
	contextScope := r.URL.Query().Get("context")
	if contextScope == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "context query parameter is required"})
		return
	}

	matches, err := s.matchingService.MatchResourcesForActivity(r.Context(), r.PathValue("id"), contextScope)
	if err != nil {
		s.logger.Error("failed to match resources", "activity_id", r.PathValue("id"), "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, matches)
}

// CommitResource trata POST /v1/activities/{id}/commitments. Em caso de
// corrida entre dois commits do mesmo recurso, um dos dois recebe 409.
func (s *Server) CommitResource(w http.ResponseWriter, r *http.Request) {
	var req commitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.ResourceID == "" || req.NeedID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "resource_id and need_id are required"})
		return
	}

	commitment, err := s.matchingService.CommitResourceToNeed(r.Context(), req.ResourceID, req.NeedID, r.PathValue("id"), req.CreatedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, commitment)
}
