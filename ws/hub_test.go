// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dkarimoff/votelive/engine"
	"github.com/dkarimoff/votelive/models"
	"github.com/dkarimoff/votelive/testutil"
)

// setupWSServer builds a live test server exposing both realtime
// endpoints over a fresh database.
func setupWSServer(t *testing.T) (*httptest.Server, *sql.DB, *engine.Engine) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { db.Close() })

	hub := NewHub()
	eng := engine.New(db, testutil.GetTestConfig(), hub)
	handler := NewHandler(hub, eng)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/vote/{link}", handler.ServeVote)
	mux.HandleFunc("GET /ws/display/{link}", handler.ServeDisplay)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, db, eng
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readFrame reads one frame and returns its decoded JSON object.
func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to decode frame %q: %v", data, err)
	}
	return msg
}

func TestVoterChannelSnapshotOnConnect(t *testing.T) {
	srv, db, eng := setupWSServer(t)

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	eventID, link := testutil.CreateTestEvent(t, db, models.StatusActive, 60, alice)
	if _, err := eng.StartTimer(eventID, models.StartTimerRequest{}); err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}

	conn := dial(t, srv, "/ws/vote/"+link)

	first := readFrame(t, conn)
	if first["type"] != models.MsgCurrentCandidate {
		t.Fatalf("Expected current_candidate first, got %v", first["type"])
	}
	second := readFrame(t, conn)
	if second["type"] != models.MsgTallyUpdate {
		t.Fatalf("Expected tally_update second, got %v", second["type"])
	}
}

func TestVoteOverWebsocket(t *testing.T) {
	srv, db, eng := setupWSServer(t)

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	eventID, link := testutil.CreateTestEvent(t, db, models.StatusActive, 60, alice)
	if _, err := eng.StartTimer(eventID, models.StartTimerRequest{}); err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}

	conn := dial(t, srv, "/ws/vote/"+link)
	readFrame(t, conn) // current_candidate
	readFrame(t, conn) // tally_update

	cmd := models.VoteCommand{
		Type:        models.MsgCastVote,
		VoteType:    models.VoteYes,
		CandidateID: alice,
		Nonce:       "nonce-1",
		DeviceID:    "device-1",
	}
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("Failed to send vote: %v", err)
	}

	// Broadcasts may interleave with the receipt; scan until the
	// receipt arrives.
	var confirmed map[string]any
	for i := 0; i < 5; i++ {
		msg := readFrame(t, conn)
		if msg["type"] == models.MsgVoteConfirmed {
			confirmed = msg
			break
		}
	}
	if confirmed == nil {
		t.Fatal("Never received vote_confirmed")
	}
	if confirmed["vote_type"] != models.VoteYes || confirmed["candidate_id"] != alice {
		t.Errorf("Bad receipt: %v", confirmed)
	}

	if n := testutil.CountVotes(t, db, eventID, alice); n != 1 {
		t.Errorf("Expected 1 stored vote, got %d", n)
	}

	// The same device voting again gets an error frame
	cmd.Nonce = "nonce-2"
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("Failed to send second vote: %v", err)
	}
	var errFrame map[string]any
	for i := 0; i < 5; i++ {
		msg := readFrame(t, conn)
		if msg["type"] == models.MsgError {
			errFrame = msg
			break
		}
	}
	if errFrame == nil {
		t.Fatal("Never received error frame for duplicate vote")
	}
	if msg, _ := errFrame["message"].(string); msg == "" {
		t.Error("Error frame should carry a message")
	}
}

func TestUnknownCommandRejected(t *testing.T) {
	srv, db, eng := setupWSServer(t)

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	eventID, link := testutil.CreateTestEvent(t, db, models.StatusActive, 60, alice)
	if _, err := eng.StartTimer(eventID, models.StartTimerRequest{}); err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}

	conn := dial(t, srv, "/ws/vote/"+link)
	readFrame(t, conn)
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus"}`)); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}
	msg := readFrame(t, conn)
	if msg["type"] != models.MsgError {
		t.Errorf("Expected error frame, got %v", msg["type"])
	}
}

func TestDisplayChannel(t *testing.T) {
	srv, db, eng := setupWSServer(t)

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	eventID, link := testutil.CreateTestEvent(t, db, models.StatusActive, 60, alice)

	conn := dial(t, srv, "/ws/display/"+link)

	// Snapshot on connect
	msg := readFrame(t, conn)
	if msg["type"] != models.MsgDisplayUpdate {
		t.Fatalf("Expected display_update, got %v", msg["type"])
	}
	if msg["event_status"] != models.StatusActive {
		t.Errorf("Expected active status, got %v", msg["event_status"])
	}

	// A server-side mutation pushes a fresh snapshot
	if _, err := eng.StartTimer(eventID, models.StartTimerRequest{}); err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}
	msg = readFrame(t, conn)
	if msg["type"] != models.MsgDisplayUpdate {
		t.Fatalf("Expected broadcast display_update, got %v", msg["type"])
	}
	if running, _ := msg["timer_running"].(bool); !running {
		t.Error("Expected running timer in broadcast")
	}

	// An explicit refresh request gets a snapshot too
	if err := conn.WriteMessage(websocket.TextMessage, []byte("update")); err != nil {
		t.Fatalf("Failed to send update request: %v", err)
	}
	msg = readFrame(t, conn)
	if msg["type"] != models.MsgDisplayUpdate {
		t.Errorf("Expected display_update on refresh, got %v", msg["type"])
	}
}

func TestVoteChannelUnknownLink(t *testing.T) {
	srv, _, _ := setupWSServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/vote/nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Expected dial to fail for unknown link")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 handshake response, got %+v", resp)
	}
}

func TestHubEmptyBroadcast(t *testing.T) {
	hub := NewHub()

	if hub.VoterCount("abc") != 0 || hub.DisplayCount("abc") != 0 {
		t.Error("Fresh hub should have no subscribers")
	}
	// Broadcasting to an empty hub must not panic or block
	hub.BroadcastVoter("abc", models.Envelope{Type: models.MsgTallyUpdate})
	hub.BroadcastDisplay("abc", models.DisplayUpdate{Type: models.MsgDisplayUpdate})
}

func TestHubSubscriberCounts(t *testing.T) {
	srv, db, _ := setupWSServer(t)

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	_, link := testutil.CreateTestEvent(t, db, models.StatusActive, 60, alice)

	c1 := dial(t, srv, "/ws/display/"+link)
	c2 := dial(t, srv, "/ws/display/"+link)
	readFrame(t, c1)
	readFrame(t, c2)

	// Both displays see the same broadcast stream; send a refresh from
	// one and confirm the other stays subscribed by refreshing it too.
	for _, conn := range []*websocket.Conn{c1, c2} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("update")); err != nil {
			t.Fatalf("Failed to send update: %v", err)
		}
		msg := readFrame(t, conn)
		if msg["type"] != models.MsgDisplayUpdate {
			t.Errorf("Expected display_update, got %v", msg["type"])
		}
	}
}
