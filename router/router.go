// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/dkarimoff/votelive/cliparse"
	"github.com/dkarimoff/votelive/engine"
	"github.com/dkarimoff/votelive/handlers"
	"github.com/dkarimoff/votelive/middleware"
	"github.com/dkarimoff/votelive/ws"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, eng *engine.Engine, hub *ws.Hub) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(db, cfg, eng)
	controlHandler := handlers.NewControlHandler(eng)
	resultsHandler := handlers.NewResultsHandler(eng)
	candidateHandler := handlers.NewCandidateHandler(db)
	wsHandler := ws.NewHandler(hub, eng)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKey, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Event management (admin operations)
	mux.HandleFunc("POST /events", admin(eventHandler.CreateEvent))
	mux.HandleFunc("GET /events", admin(eventHandler.ListEvents))
	mux.HandleFunc("GET /events/{id}", admin(eventHandler.GetEvent))
	mux.HandleFunc("DELETE /events/{id}", admin(eventHandler.DeleteEvent))
	mux.HandleFunc("POST /events/{id}/archive", admin(eventHandler.ArchiveEvent))
	mux.HandleFunc("POST /events/{id}/duplicate", admin(eventHandler.DuplicateEvent))

	// Live-run controls (admin operations)
	mux.HandleFunc("POST /events/{id}/start", admin(controlHandler.StartEvent))
	mux.HandleFunc("POST /events/{id}/stop", admin(controlHandler.StopEvent))
	mux.HandleFunc("POST /events/{id}/reset", admin(controlHandler.ResetEvent))
	mux.HandleFunc("POST /events/{id}/start-timer", admin(controlHandler.StartTimer))
	mux.HandleFunc("POST /events/{id}/next-candidate", admin(controlHandler.NextCandidate))
	mux.HandleFunc("POST /events/{id}/jump/{index}", admin(controlHandler.JumpToCandidate))
	mux.HandleFunc("POST /events/{id}/set-group", admin(controlHandler.SetGroup))
	mux.HandleFunc("POST /events/{id}/unset-group", admin(controlHandler.UnsetGroup))
	mux.HandleFunc("POST /events/{id}/reorder-candidates", admin(controlHandler.ReorderCandidates))

	// Candidate profiles (admin operations)
	mux.HandleFunc("POST /candidates", admin(candidateHandler.CreateCandidate))
	mux.HandleFunc("GET /candidates", admin(candidateHandler.ListCandidates))
	mux.HandleFunc("GET /candidates/{id}", admin(candidateHandler.GetCandidate))
	mux.HandleFunc("PUT /candidates/{id}", admin(candidateHandler.UpdateCandidate))
	mux.HandleFunc("DELETE /candidates/{id}", admin(candidateHandler.DeleteCandidate))

	// Public state and results
	mux.HandleFunc("GET /events/{id}/current-candidate", middleware.WithLogging(controlHandler.CurrentCandidate))
	mux.HandleFunc("GET /events/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /events/by-link/{link}", middleware.WithLogging(eventHandler.GetEventByLink))
	mux.HandleFunc("GET /events/by-link/{link}/results", middleware.WithLogging(resultsHandler.GetResultsByLink))

	// Realtime channels (public; snapshots only, votes are validated
	// server-side)
	mux.HandleFunc("GET /ws/vote/{link}", wsHandler.ServeVote)
	mux.HandleFunc("GET /ws/display/{link}", wsHandler.ServeDisplay)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("votelive API v1"))
	})

	return mux
}
