// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dkarimoff/votelive/auth"
	"github.com/dkarimoff/votelive/middleware"
	"github.com/dkarimoff/votelive/models"
)

// CandidateHandler manages candidate profiles. Profiles are opaque to
// the voting core; only which_position is load-bearing (an event will
// not start while any of its candidates lacks one).
type CandidateHandler struct {
	db *sql.DB
}

func NewCandidateHandler(db *sql.DB) *CandidateHandler {
	return &CandidateHandler{db: db}
}

// CreateCandidate handles POST /candidates
func (h *CandidateHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.FullName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "full_name is required")
		return
	}

	id, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate candidate ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create candidate")
		return
	}

	now := time.Now().UTC()
	_, err = h.db.Exec(`
		INSERT INTO candidate (id, full_name, image, degree, which_position, election_time, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, req.FullName, req.Image, req.Degree, req.WhichPosition, req.ElectionTime, req.Description, now)
	if err != nil {
		slog.Error("failed to insert candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create candidate")
		return
	}

	slog.Info("candidate created", "candidate_id", id, "name", req.FullName)

	middleware.JSONResponse(w, http.StatusCreated, models.Candidate{
		ID:            id,
		FullName:      req.FullName,
		Image:         req.Image,
		Degree:        req.Degree,
		WhichPosition: req.WhichPosition,
		ElectionTime:  req.ElectionTime,
		Description:   req.Description,
		CreatedAt:     now,
	})
}

func scanCandidate(scan func(dest ...any) error) (models.Candidate, error) {
	var c models.Candidate
	var image, degree, position, electionTime, description sql.NullString
	err := scan(&c.ID, &c.FullName, &image, &degree, &position, &electionTime, &description, &c.CreatedAt)
	if err != nil {
		return models.Candidate{}, err
	}
	c.Image = image.String
	c.Degree = degree.String
	c.WhichPosition = position.String
	c.ElectionTime = electionTime.String
	c.Description = description.String
	return c, nil
}

// ListCandidates handles GET /candidates
func (h *CandidateHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT id, full_name, image, degree, which_position, election_time, description, created_at
		FROM candidate ORDER BY created_at DESC
	`)
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows.Scan)
		if err != nil {
			slog.Error("failed to scan candidate", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		candidates = append(candidates, c)
	}

	middleware.JSONResponse(w, http.StatusOK, candidates)
}

// GetCandidate handles GET /candidates/{id}
func (h *CandidateHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := scanCandidate(h.db.QueryRow(`
		SELECT id, full_name, image, degree, which_position, election_time, description, created_at
		FROM candidate WHERE id = $1
	`, r.PathValue("id")).Scan)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}
	if err != nil {
		slog.Error("failed to query candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, c)
}

// UpdateCandidate handles PUT /candidates/{id}. Absent fields keep
// their current value; present fields overwrite, including with "".
func (h *CandidateHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req models.UpdateCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	current, err := scanCandidate(h.db.QueryRow(`
		SELECT id, full_name, image, degree, which_position, election_time, description, created_at
		FROM candidate WHERE id = $1
	`, id).Scan)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}
	if err != nil {
		slog.Error("failed to query candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if req.Image != nil {
		current.Image = *req.Image
	}
	if req.Degree != nil {
		current.Degree = *req.Degree
	}
	if req.WhichPosition != nil {
		current.WhichPosition = *req.WhichPosition
	}
	if req.ElectionTime != nil {
		current.ElectionTime = *req.ElectionTime
	}
	if req.Description != nil {
		current.Description = *req.Description
	}

	_, err = h.db.Exec(`
		UPDATE candidate SET image = $1, degree = $2, which_position = $3, election_time = $4, description = $5
		WHERE id = $6
	`, current.Image, current.Degree, current.WhichPosition, current.ElectionTime, current.Description, id)
	if err != nil {
		slog.Error("failed to update candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update candidate")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, current)
}

// DeleteCandidate handles DELETE /candidates/{id}. A profile still
// referenced by an event cannot be removed; delete the event first.
func (h *CandidateHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var referenced int
	if err := h.db.QueryRow(`
		SELECT COUNT(*) FROM event_candidate WHERE candidate_id = $1
	`, id).Scan(&referenced); err != nil {
		slog.Error("failed to query candidate references", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if referenced > 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Candidate is used by an event")
		return
	}

	res, err := h.db.Exec(`DELETE FROM candidate WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete candidate")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	slog.Info("candidate deleted", "candidate_id", id)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Candidate deleted"})
}
