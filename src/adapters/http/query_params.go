package http

import (
	"net/http"
	"strconv"

	"gamegraph/src/domain"
	"gamegraph/src/services/graph"
)

func queryOptionsFromRequest(r *http.Request) domain.QueryOptions {
	query := r.URL.Query()

	return domain.QueryOptions{
		PageSize:       parseIntParam(query.Get("page_size"), 0),
		Cursor:         query.Get("cursor"),
		OrderBy:        query.Get("order_by"),
		OrderDirection: query.Get("order_direction"),
	}
}

func graphOptionsFromQuery(r *http.Request) graph.NeighborhoodOptions {
	query := r.URL.Query()

	return graph.NeighborhoodOptions{
		OutgoingTypes: query["outgoing_type"],
		IncomingTypes: query["incoming_type"],
	}
}

func parseIntParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
