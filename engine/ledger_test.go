// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/dkarimoff/votelive/models"
	"github.com/dkarimoff/votelive/testutil"
)

func voter(n string) models.VoterIdentity {
	return models.VoterIdentity{Nonce: n, DeviceID: "device-" + n, IP: "10.0.0.1"}
}

// startVoting brings an event to the state where ballots are accepted:
// active with the current candidate's timer running.
func startVoting(t *testing.T, eng *Engine, eventID string) {
	t.Helper()
	if _, err := eng.StartTimer(eventID, models.StartTimerRequest{}); err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}
}

func TestCastVote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	eng := New(db, testutil.GetTestConfig(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return now }

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	eventID, _ := testutil.CreateTestEvent(t, db, models.StatusActive, 15, alice)
	startVoting(t, eng, eventID)

	receipt, err := eng.CastVote(eventID, voter("n1"), models.VoteYes, alice)
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if receipt.VoteType != models.VoteYes || receipt.CandidateID != alice {
		t.Errorf("Wrong receipt: %+v", receipt)
	}
	if len(receipt.AutoVotedCandidates) != 0 {
		t.Errorf("Ungrouped vote should not auto-vote, got %v", receipt.AutoVotedCandidates)
	}

	tally, err := eng.Tally(eventID, alice)
	if err != nil {
		t.Fatalf("Tally failed: %v", err)
	}
	if tally.Yes != 1 || tally.Total != 1 {
		t.Errorf("Expected 1 yes vote, got %+v", tally)
	}
}

func TestCastVoteDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	eng := New(db, testutil.GetTestConfig(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return now }

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	eventID, _ := testutil.CreateTestEvent(t, db, models.StatusActive, 15, alice)
	startVoting(t, eng, eventID)

	if _, err := eng.CastVote(eventID, voter("n1"), models.VoteYes, alice); err != nil {
		t.Fatalf("First vote failed: %v", err)
	}

	// Same identity again, even with a different choice and nonce
	_, err := eng.CastVote(eventID, voter("n1"), models.VoteNo, alice)
	if !errors.Is(err, ErrDuplicateVote) {
		t.Errorf("Expected ErrDuplicateVote, got %v", err)
	}

	// The tally is unchanged
	tally, err := eng.Tally(eventID, alice)
	if err != nil {
		t.Fatalf("Tally failed: %v", err)
	}
	if tally.Yes != 1 || tally.No != 0 || tally.Total != 1 {
		t.Errorf("Duplicate attempt changed the tally: %+v", tally)
	}

	// A different voter is fine
	other := models.VoterIdentity{Nonce: "n2", DeviceID: "device-n2", IP: "10.0.0.2"}
	if _, err := eng.CastVote(eventID, other, models.VoteNo, alice); err != nil {
		t.Fatalf("Second voter failed: %v", err)
	}
}

func TestCastVoteWindowClosed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	eng := New(db, testutil.GetTestConfig(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return now }

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	eventID, _ := testutil.CreateTestEvent(t, db, models.StatusActive, 15, alice)

	// Timer never started
	_, err := eng.CastVote(eventID, voter("n1"), models.VoteYes, alice)
	if !errors.Is(err, ErrVotingClosed) {
		t.Errorf("Expected ErrVotingClosed before timer start, got %v", err)
	}

	startVoting(t, eng, eventID)

	// 15 second window: a vote at +16s must be rejected
	now = now.Add(16 * time.Second)
	_, err = eng.CastVote(eventID, voter("n1"), models.VoteYes, alice)
	if !errors.Is(err, ErrVotingClosed) {
		t.Errorf("Expected ErrVotingClosed after expiry, got %v", err)
	}

	if n := testutil.CountVotes(t, db, eventID, alice); n != 0 {
		t.Errorf("Expected no votes recorded, got %d", n)
	}
}

func TestCastVoteEventNotActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	eng := New(db, testutil.GetTestConfig(), nil)

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")

	tests := []struct {
		name   string
		status string
	}{
		{"pending event", models.StatusPending},
		{"finished event", models.StatusFinished},
		{"archived event", models.StatusArchived},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eventID, _ := testutil.CreateTestEvent(t, db, tt.status, 15, alice)
			_, err := eng.CastVote(eventID, voter("n-"+tt.status), models.VoteYes, alice)
			if !errors.Is(err, ErrVotingClosed) {
				t.Errorf("Expected ErrVotingClosed, got %v", err)
			}
		})
	}
}

func TestCastVoteInvalidType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	eng := New(db, testutil.GetTestConfig(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return now }

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	eventID, _ := testutil.CreateTestEvent(t, db, models.StatusActive, 15, alice)
	startVoting(t, eng, eventID)

	_, err := eng.CastVote(eventID, voter("n1"), "maybe", alice)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestCastVoteWrongCandidate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	eng := New(db, testutil.GetTestConfig(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return now }

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	bob := testutil.CreateTestCandidate(t, db, "Bob", "Treasurer")
	eventID, _ := testutil.CreateTestEvent(t, db, models.StatusActive, 15, alice, bob)
	startVoting(t, eng, eventID)

	// Cursor is on Alice; Bob is ungrouped and not votable yet
	_, err := eng.CastVote(eventID, voter("n1"), models.VoteYes, bob)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for non-current candidate, got %v", err)
	}
}

func TestGroupFanOutYes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	eng := New(db, testutil.GetTestConfig(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return now }

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	bob := testutil.CreateTestCandidate(t, db, "Bob", "President")
	carol := testutil.CreateTestCandidate(t, db, "Carol", "President")

	eventID, _ := testutil.CreateTestEvent(t, db, models.StatusActive, 15)
	s1 := testutil.AddTestSlot(t, db, eventID, alice, 0)
	s2 := testutil.AddTestSlot(t, db, eventID, bob, 1)
	s3 := testutil.AddTestSlot(t, db, eventID, carol, 2)
	testutil.SetTestGroup(t, db, "President", s1, s2, s3)

	startVoting(t, eng, eventID)

	// Yes for Bob must atomically record no for Alice and Carol
	receipt, err := eng.CastVote(eventID, voter("n1"), models.VoteYes, bob)
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if len(receipt.AutoVotedCandidates) != 2 {
		t.Errorf("Expected 2 auto-voted candidates, got %v", receipt.AutoVotedCandidates)
	}

	for _, check := range []struct {
		candidateID string
		want        models.VoteResults
	}{
		{bob, models.VoteResults{Yes: 1, Total: 1}},
		{alice, models.VoteResults{No: 1, Total: 1}},
		{carol, models.VoteResults{No: 1, Total: 1}},
	} {
		tally, err := eng.Tally(eventID, check.candidateID)
		if err != nil {
			t.Fatalf("Tally failed: %v", err)
		}
		if tally != check.want {
			t.Errorf("Candidate %s: expected %+v, got %+v", check.candidateID, check.want, tally)
		}
	}
}

func TestGroupFanOutNeutral(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	eng := New(db, testutil.GetTestConfig(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return now }

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	bob := testutil.CreateTestCandidate(t, db, "Bob", "President")

	eventID, _ := testutil.CreateTestEvent(t, db, models.StatusActive, 15)
	s1 := testutil.AddTestSlot(t, db, eventID, alice, 0)
	s2 := testutil.AddTestSlot(t, db, eventID, bob, 1)
	testutil.SetTestGroup(t, db, "President", s1, s2)

	startVoting(t, eng, eventID)

	if _, err := eng.CastVote(eventID, voter("n1"), models.VoteNeutral, alice); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	for _, cid := range []string{alice, bob} {
		tally, err := eng.Tally(eventID, cid)
		if err != nil {
			t.Fatalf("Tally failed: %v", err)
		}
		if tally.Neutral != 1 || tally.Total != 1 {
			t.Errorf("Candidate %s: expected 1 neutral, got %+v", cid, tally)
		}
	}
}

func TestGroupFanOutPlainNo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	eng := New(db, testutil.GetTestConfig(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return now }

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	bob := testutil.CreateTestCandidate(t, db, "Bob", "President")

	eventID, _ := testutil.CreateTestEvent(t, db, models.StatusActive, 15)
	s1 := testutil.AddTestSlot(t, db, eventID, alice, 0)
	s2 := testutil.AddTestSlot(t, db, eventID, bob, 1)
	testutil.SetTestGroup(t, db, "President", s1, s2)

	startVoting(t, eng, eventID)

	// A plain no touches only its target
	if _, err := eng.CastVote(eventID, voter("n1"), models.VoteNo, alice); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	if n := testutil.CountVotes(t, db, eventID, alice); n != 1 {
		t.Errorf("Expected 1 vote for Alice, got %d", n)
	}
	if n := testutil.CountVotes(t, db, eventID, bob); n != 0 {
		t.Errorf("Expected 0 votes for Bob, got %d", n)
	}
}

func TestGroupWideDedup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	eng := New(db, testutil.GetTestConfig(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return now }

	alice := testutil.CreateTestCandidate(t, db, "Alice", "President")
	bob := testutil.CreateTestCandidate(t, db, "Bob", "President")

	eventID, _ := testutil.CreateTestEvent(t, db, models.StatusActive, 15)
	s1 := testutil.AddTestSlot(t, db, eventID, alice, 0)
	s2 := testutil.AddTestSlot(t, db, eventID, bob, 1)
	testutil.SetTestGroup(t, db, "President", s1, s2)

	startVoting(t, eng, eventID)

	// A plain no for Alice spends the whole group for this voter
	if _, err := eng.CastVote(eventID, voter("n1"), models.VoteNo, alice); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	_, err := eng.CastVote(eventID, voter("n1"), models.VoteYes, bob)
	if !errors.Is(err, ErrDuplicateVote) {
		t.Errorf("Expected ErrDuplicateVote across the group, got %v", err)
	}
}
