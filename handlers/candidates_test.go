// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dkarimoff/votelive/engine"
	"github.com/dkarimoff/votelive/models"
	"github.com/dkarimoff/votelive/router"
	"github.com/dkarimoff/votelive/testutil"
	"github.com/dkarimoff/votelive/ws"
)

func TestCandidateCRUD(t *testing.T) {
	mux, _ := newTestRouter(t)

	// Create
	rec := testutil.MakeRequest(t, mux, "POST", "/candidates", models.CreateCandidateRequest{
		FullName:      "Alice Smith",
		Degree:        "PhD",
		WhichPosition: "President",
	}, testutil.AdminHeaders())
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created models.Candidate
	testutil.DecodeJSON(t, rec, &created)
	if created.ID == "" || created.FullName != "Alice Smith" {
		t.Fatalf("Bad create response: %+v", created)
	}

	// Get
	rec = testutil.MakeRequest(t, mux, "GET", "/candidates/"+created.ID, nil, testutil.AdminHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("Get: expected 200, got %d", rec.Code)
	}
	var got models.Candidate
	testutil.DecodeJSON(t, rec, &got)
	if got.Degree != "PhD" || got.WhichPosition != "President" {
		t.Errorf("Bad get response: %+v", got)
	}

	// Update: only the fields present change
	newDegree := "MSc"
	rec = testutil.MakeRequest(t, mux, "PUT", "/candidates/"+created.ID,
		models.UpdateCandidateRequest{Degree: &newDegree}, testutil.AdminHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("Update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	testutil.DecodeJSON(t, rec, &got)
	if got.Degree != "MSc" {
		t.Errorf("Expected updated degree MSc, got %s", got.Degree)
	}
	if got.WhichPosition != "President" {
		t.Errorf("Position should be untouched, got %s", got.WhichPosition)
	}

	// List
	rec = testutil.MakeRequest(t, mux, "GET", "/candidates", nil, testutil.AdminHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("List: expected 200, got %d", rec.Code)
	}
	var list []models.Candidate
	testutil.DecodeJSON(t, rec, &list)
	if len(list) != 1 {
		t.Errorf("Expected 1 candidate, got %d", len(list))
	}

	// Delete
	rec = testutil.MakeRequest(t, mux, "DELETE", "/candidates/"+created.ID, nil, testutil.AdminHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("Delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = testutil.MakeRequest(t, mux, "GET", "/candidates/"+created.ID, nil, testutil.AdminHeaders())
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateCandidateValidation(t *testing.T) {
	mux, _ := newTestRouter(t)

	rec := testutil.MakeRequest(t, mux, "POST", "/candidates",
		models.CreateCandidateRequest{Degree: "PhD"}, testutil.AdminHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without full_name, got %d", rec.Code)
	}
}

func TestDeleteCandidateInUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	eng := engine.New(db, cfg, nil)
	mux := router.NewRouter(db, cfg, eng, ws.NewHub())

	alice := testutil.CreateTestCandidate(t, db, "Alice", "Board")
	testutil.CreateTestEvent(t, db, models.StatusPending, 15, alice)

	rec := testutil.MakeRequest(t, mux, "DELETE", "/candidates/"+alice, nil, testutil.AdminHeaders())
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for referenced candidate, got %d: %s", rec.Code, rec.Body.String())
	}
}
