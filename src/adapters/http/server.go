package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"gamegraph/src/domain"
	"gamegraph/src/services/graph"
	"gamegraph/src/services/matching"
)

// Server representa o servidor HTTP da API. É a única fronteira que
// colaboradores externos (páginas, tooling de admin, scripts) podem
// chamar: ninguém fala com o banco de documentos diretamente.
type Server struct {
	logger          *slog.Logger
	server          *http.Server
	mux             *http.ServeMux
	port            int
	nodes           domain.NodeStore
	relationships   domain.RelationshipStore
	graphService    *graph.GraphService
	matchingService *matching.MatchingService
}

// NewServer cria uma nova instância do servidor
func NewServer(
	logger *slog.Logger,
	port int,
	nodes domain.NodeStore,
	relationships domain.RelationshipStore,
	graphService *graph.GraphService,
	matchingService *matching.MatchingService,
) *Server {
	server := &Server{
		mux:             http.NewServeMux(),
		port:            port,
		logger:          logger,
		nodes:           nodes,
		relationships:   relationships,
		graphService:    graphService,
		matchingService: matchingService,
	}

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      server.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Nós
	server.mux.HandleFunc("POST /v1/nodes", server.CreateNode)
	server.mux.HandleFunc("GET /v1/nodes", server.QueryNodes)
	server.mux.HandleFunc("GET /v1/nodes/{id}", server.GetNode)
	server.mux.HandleFunc("PATCH /v1/nodes/{id}", server.UpdateNode)
	server.mux.HandleFunc("DELETE /v1/nodes/{id}", server.DeleteNode)
	server.mux.HandleFunc("GET /v1/nodes/{id}/graph", server.GetNodeGraph)

	// Relacionamentos
	server.mux.HandleFunc("POST /v1/relationships", server.CreateRelationship)
	server.mux.HandleFunc("GET /v1/relationships", server.QueryRelationships)
	server.mux.HandleFunc("GET /v1/relationships/{id}", server.GetRelationship)
	server.mux.HandleFunc("DELETE /v1/relationships/{id}", server.DeleteRelationship)

	// Matching
	server.mux.HandleFunc("GET /v1/activities/{id}/matches", server.MatchActivity)
	server.mux.HandleFunc("POST /v1/activities/{id}/commitments", server.CommitResource)

	return server
}

// Start inicia o servidor HTTP
func (s *Server) Start() error {
	s.logger.Info("Server started", "port", s.port)

	return s.server.ListenAndServe()
}

// Shutdown encerra o servidor HTTP de forma graciosa
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
