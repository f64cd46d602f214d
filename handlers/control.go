// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dkarimoff/votelive/engine"
	"github.com/dkarimoff/votelive/middleware"
	"github.com/dkarimoff/votelive/models"
)

// ControlHandler exposes the live-run admin operations: lifecycle,
// cursor movement, timers, groups and ordering.
type ControlHandler struct {
	eng *engine.Engine
}

func NewControlHandler(eng *engine.Engine) *ControlHandler {
	return &ControlHandler{eng: eng}
}

// StartEvent handles POST /events/{id}/start
func (h *ControlHandler) StartEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.eng.StartEvent(r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}
	slog.Info("event started", "event_id", ev.ID)
	middleware.JSONResponse(w, http.StatusOK, ev)
}

// StopEvent handles POST /events/{id}/stop
func (h *ControlHandler) StopEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.eng.StopEvent(r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}
	slog.Info("event stopped", "event_id", ev.ID)
	middleware.JSONResponse(w, http.StatusOK, ev)
}

// ResetEvent handles POST /events/{id}/reset
func (h *ControlHandler) ResetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.eng.Reset(r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}
	slog.Info("event reset", "event_id", ev.ID)
	middleware.JSONResponse(w, http.StatusOK, ev)
}

// StartTimer handles POST /events/{id}/start-timer
func (h *ControlHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	var req models.StartTimerRequest
	// Body is optional; an empty body means the event's own duration.
	if r.ContentLength > 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	resp, err := h.eng.StartTimer(r.PathValue("id"), req)
	if err != nil {
		engineError(w, err)
		return
	}
	slog.Info("timer started", "event_id", r.PathValue("id"), "duration_sec", resp.DurationSec)
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// NextCandidate handles POST /events/{id}/next-candidate
func (h *ControlHandler) NextCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.AdvanceRequest
	if r.ContentLength > 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}
	// The index the client believes is current. Without it a duplicated
	// click would advance twice.
	if req.FromIndex == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "from_index is required")
		return
	}

	resp, err := h.eng.Advance(r.PathValue("id"), req.FromIndex)
	if err != nil {
		engineError(w, err)
		return
	}
	slog.Info("cursor advanced", "event_id", r.PathValue("id"),
		"index", resp.CurrentIndex, "completed", resp.Completed)
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// JumpToCandidate handles POST /events/{id}/jump/{index}
func (h *ControlHandler) JumpToCandidate(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "index must be a number")
		return
	}

	resp, err := h.eng.JumpTo(r.PathValue("id"), index)
	if err != nil {
		engineError(w, err)
		return
	}
	slog.Info("cursor jumped", "event_id", r.PathValue("id"), "index", index)
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// SetGroup handles POST /events/{id}/set-group
func (h *ControlHandler) SetGroup(w http.ResponseWriter, r *http.Request) {
	var req models.SetGroupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.eng.SetGroup(r.PathValue("id"), req); err != nil {
		engineError(w, err)
		return
	}
	slog.Info("group set", "event_id", r.PathValue("id"),
		"group", req.GroupName, "members", len(req.EventCandidateIDs))
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Group set"})
}

// UnsetGroup handles POST /events/{id}/unset-group
func (h *ControlHandler) UnsetGroup(w http.ResponseWriter, r *http.Request) {
	var req models.UnsetGroupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.eng.UnsetGroup(r.PathValue("id"), req); err != nil {
		engineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Group removed"})
}

// ReorderCandidates handles POST /events/{id}/reorder-candidates
func (h *ControlHandler) ReorderCandidates(w http.ResponseWriter, r *http.Request) {
	var req models.ReorderCandidatesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.eng.Reorder(r.PathValue("id"), req); err != nil {
		engineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Candidates reordered"})
}

// CurrentCandidate handles GET /events/{id}/current-candidate
func (h *ControlHandler) CurrentCandidate(w http.ResponseWriter, r *http.Request) {
	cc, err := h.eng.CurrentCandidateSnapshot(r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, cc)
}
