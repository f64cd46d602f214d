// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dkarimoff/votelive/auth"
	"github.com/dkarimoff/votelive/cliparse"
	dbschema "github.com/dkarimoff/votelive/db"
	"github.com/dkarimoff/votelive/models"
)

// TestAdminKey is the admin secret used by test configs and requests
const TestAdminKey = "test-admin-key"

// SetupTestDB creates a fresh in-memory SQLite database with the full
// schema. The pool is pinned to one connection: an in-memory SQLite
// database exists per connection, so a second one would see no tables.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := dbschema.CreateSchema(db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         8000,
		DatabaseURL:  ":memory:",
		DatabaseType: "sqlite",
		AdminKey:     TestAdminKey,
		VoterSalt:    "test-voter-salt",
	}
}

// CreateTestCandidate inserts a candidate profile and returns its ID
func CreateTestCandidate(t *testing.T, db *sql.DB, fullName, position string) string {
	t.Helper()

	id, err := auth.GenerateID(12)
	if err != nil {
		t.Fatalf("Failed to generate candidate ID: %v", err)
	}
	_, err = db.Exec(`
		INSERT INTO candidate (id, full_name, which_position, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, fullName, position, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to insert candidate: %v", err)
	}
	return id
}

// CreateTestEvent inserts an event with the given status and candidate
// slots, returning the event ID and its link.
func CreateTestEvent(t *testing.T, db *sql.DB, status string, durationSec int, candidateIDs ...string) (eventID, link string) {
	t.Helper()

	eventID, err := auth.GenerateID(16)
	if err != nil {
		t.Fatalf("Failed to generate event ID: %v", err)
	}
	link = auth.GenerateLink()

	now := time.Now().UTC()
	var startTime any
	if status != models.StatusPending {
		startTime = now
	}
	_, err = db.Exec(`
		INSERT INTO event (id, name, link, duration_sec, status, start_time, current_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
	`, eventID, "Test Event", link, durationSec, status, startTime, now)
	if err != nil {
		t.Fatalf("Failed to insert event: %v", err)
	}

	for i, cid := range candidateIDs {
		AddTestSlot(t, db, eventID, cid, i)
	}
	return eventID, link
}

// AddTestSlot inserts one event_candidate row and returns its ID
func AddTestSlot(t *testing.T, db *sql.DB, eventID, candidateID string, ord int) string {
	t.Helper()

	id, err := auth.GenerateID(12)
	if err != nil {
		t.Fatalf("Failed to generate slot ID: %v", err)
	}
	_, err = db.Exec(`
		INSERT INTO event_candidate (id, event_id, candidate_id, ord, status)
		VALUES ($1, $2, $3, $4, $5)
	`, id, eventID, candidateID, ord, models.CandidatePending)
	if err != nil {
		t.Fatalf("Failed to insert event candidate: %v", err)
	}
	return id
}

// SetTestGroup applies a group label to the given slots directly
func SetTestGroup(t *testing.T, db *sql.DB, label string, slotIDs ...string) {
	t.Helper()

	for _, id := range slotIDs {
		if _, err := db.Exec(`UPDATE event_candidate SET group_label = $1 WHERE id = $2`, label, id); err != nil {
			t.Fatalf("Failed to set group: %v", err)
		}
	}
}

// CountVotes returns the number of vote rows for a candidate in an event
func CountVotes(t *testing.T, db *sql.DB, eventID, candidateID string) int {
	t.Helper()

	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM vote WHERE event_id = $1 AND candidate_id = $2
	`, eventID, candidateID).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// MakeRequest performs an HTTP request against a handler and returns
// the recorder. Body may be nil or any JSON-marshalable value.
func MakeRequest(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// AdminHeaders returns the header map for admin requests
func AdminHeaders() map[string]string {
	return map[string]string{"X-Admin-Key": TestAdminKey}
}

// DecodeJSON unmarshals a recorder body into v
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}
