// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dkarimoff/votelive/auth"
	"github.com/dkarimoff/votelive/cliparse"
	"github.com/dkarimoff/votelive/engine"
	"github.com/dkarimoff/votelive/middleware"
	"github.com/dkarimoff/votelive/models"
)

type EventHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	eng *engine.Engine
}

func NewEventHandler(db *sql.DB, cfg cliparse.Config, eng *engine.Engine) *EventHandler {
	return &EventHandler{db: db, cfg: cfg, eng: eng}
}

// engineError maps a core failure to its HTTP response.
func engineError(w http.ResponseWriter, err error) {
	status := engine.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("internal error", "error", err)
	}
	middleware.ErrorResponse(w, status, engine.ClientMessage(err))
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.CandidateIDs) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate_ids is required")
		return
	}
	durationSec := req.DurationSec
	if durationSec == 0 {
		durationSec = 15
	}
	if durationSec < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "duration_sec must be positive")
		return
	}

	// Every referenced candidate must exist before any row is written.
	for _, cid := range req.CandidateIDs {
		var exists int
		err := h.db.QueryRow(`SELECT COUNT(*) FROM candidate WHERE id = $1`, cid).Scan(&exists)
		if err != nil {
			slog.Error("failed to query candidate", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if exists == 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Candidate %s not found", cid))
			return
		}
	}

	eventID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate event ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}
	link := auth.GenerateLink()
	now := h.eng.NowUTC()

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO event (id, name, link, duration_sec, status, current_index, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
	`, eventID, req.Name, link, durationSec, models.StatusPending, now)
	if err != nil {
		slog.Error("failed to insert event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	for i, cid := range req.CandidateIDs {
		ecID, err := auth.GenerateID(12)
		if err != nil {
			slog.Error("failed to generate slot ID", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
			return
		}
		_, err = tx.Exec(`
			INSERT INTO event_candidate (id, event_id, candidate_id, ord, status)
			VALUES ($1, $2, $3, $4, $5)
		`, ecID, eventID, cid, i, models.CandidatePending)
		if err != nil {
			slog.Error("failed to insert event candidate", "error", err)
			middleware.ErrorResponse(w, http.StatusConflict, "Duplicate candidate in event")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	slog.Info("event created", "event_id", eventID, "link", link, "candidates", len(req.CandidateIDs))

	middleware.JSONResponse(w, http.StatusCreated, models.CreateEventResponse{
		EventID: eventID,
		Link:    link,
	})
}

// ListEvents handles GET /events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT id, name, link, duration_sec, status, start_time, end_time, current_index, created_at
		FROM event ORDER BY created_at DESC
	`)
	if err != nil {
		slog.Error("failed to query events", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var ev models.Event
		if err := rows.Scan(
			&ev.ID, &ev.Name, &ev.Link, &ev.DurationSec, &ev.Status,
			&ev.StartTime, &ev.EndTime, &ev.CurrentIndex, &ev.CreatedAt,
		); err != nil {
			slog.Error("failed to scan event", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		events = append(events, ev)
	}

	middleware.JSONResponse(w, http.StatusOK, events)
}

func (h *EventHandler) eventWithCandidates(w http.ResponseWriter, ev models.Event) {
	candidates, err := h.eng.Candidates(ev.ID)
	if err != nil {
		engineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.EventWithCandidates{
		Event:      ev,
		Candidates: candidates,
	})
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.eng.Event(r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}
	h.eventWithCandidates(w, ev)
}

// GetEventByLink handles GET /events/by-link/{link}
func (h *EventHandler) GetEventByLink(w http.ResponseWriter, r *http.Request) {
	ev, err := h.eng.EventByLink(r.PathValue("link"))
	if err != nil {
		engineError(w, err)
		return
	}
	h.eventWithCandidates(w, ev)
}

// DeleteEvent handles DELETE /events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.eng.Delete(id); err != nil {
		engineError(w, err)
		return
	}
	slog.Info("event deleted", "event_id", id)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Event deleted"})
}

// ArchiveEvent handles POST /events/{id}/archive
func (h *EventHandler) ArchiveEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.eng.Archive(r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}
	slog.Info("event archived", "event_id", ev.ID)
	middleware.JSONResponse(w, http.StatusOK, ev)
}

// DuplicateEvent handles POST /events/{id}/duplicate
func (h *EventHandler) DuplicateEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.eng.Duplicate(r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}
	slog.Info("event duplicated", "event_id", ev.ID, "link", ev.Link)
	middleware.JSONResponse(w, http.StatusCreated, models.DuplicateEventResponse{
		EventID: ev.ID,
		Link:    ev.Link,
	})
}
