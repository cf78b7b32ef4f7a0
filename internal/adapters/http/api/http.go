// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	app "github.com/nvara/tally/internal/app"
	"github.com/nvara/tally/internal/domain/model"
	"github.com/nvara/tally/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// GetRanking serves the ranking query interface.
	GetRanking(ctx context.Context, q app.Query) (types.RankingResult, error)

	// Entity returns one entity's scored entry from the latest pass.
	Entity(ctx context.Context, id string) (model.RankedEntity, error)

	// Stats exposes coordinator statistics for monitoring.
	Stats() map[string]interface{}
}

// Publisher is how the external persistence collaborator delivers
// full-collection snapshots into the engine.
type Publisher interface {
	PublishRoster(ctx context.Context, docs []model.Entity) error
	PublishMidterm(ctx context.Context, docs []model.RawSubmission) error
	PublishFinal(ctx context.Context, docs []model.RawSubmission) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	rankingsHandler  *RankingsHandler
	entityHandler    *EntityHandler
	snapshotsHandler *SnapshotsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, pub Publisher, maxPageSize int) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		rankingsHandler:  NewRankingsHandler(deps, maxPageSize),
		entityHandler:    NewEntityHandler(deps),
		snapshotsHandler: NewSnapshotsHandler(pub),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/entities/", MetricsMiddleware(s.entityHandler.HandleGetEntity, "entity"))
	mux.HandleFunc("/snapshots/", MetricsMiddleware(s.snapshotsHandler.HandlePostSnapshot, "snapshots"))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
