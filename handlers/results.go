// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/dkarimoff/votelive/engine"
	"github.com/dkarimoff/votelive/middleware"
)

type ResultsHandler struct {
	eng *engine.Engine
}

func NewResultsHandler(eng *engine.Engine) *ResultsHandler {
	return &ResultsHandler{eng: eng}
}

// GetResults handles GET /events/{id}/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	res, err := h.eng.Results(r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

// GetResultsByLink handles GET /events/by-link/{link}/results
func (h *ResultsHandler) GetResultsByLink(w http.ResponseWriter, r *http.Request) {
	res, err := h.eng.ResultsByLink(r.PathValue("link"))
	if err != nil {
		engineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}
