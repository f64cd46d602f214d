// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"fmt"

	"github.com/dkarimoff/votelive/auth"
	"github.com/dkarimoff/votelive/models"
)

func validVoteType(t string) bool {
	switch t {
	case models.VoteYes, models.VoteNo, models.VoteNeutral:
		return true
	}
	return false
}

// CastVote records one ballot for the current candidate or, when the
// current candidate is grouped, any member of its group. The window is
// enforced server-side: the event must be active and the derived timer
// must still be running.
//
// A yes for one group member atomically writes no for the rest; a
// neutral writes neutral for the rest. Either way the whole group is
// spent for this voter, so the duplicate check runs group-wide.
func (e *Engine) CastVote(eventID string, identity models.VoterIdentity, voteType, candidateID string) (*models.VoteConfirmed, error) {
	l := e.lock(eventID)
	l.Lock()
	defer l.Unlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return nil, err
	}
	if ev.Status != models.StatusActive {
		return nil, errClosed("Voting is not open for this event")
	}

	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return nil, err
	}
	if ev.CurrentIndex < 0 || ev.CurrentIndex >= len(ecs) {
		return nil, errClosed("No active candidate to vote for")
	}
	current := ecs[ev.CurrentIndex]

	timer := computeTimer(current.TimerStartedAt, ev.DurationSec, e.Now())
	if !timer.Running {
		return nil, errClosed("Voting time has ended for this candidate")
	}

	if !validVoteType(voteType) {
		return nil, errValidation("Invalid vote type: %s", voteType)
	}

	members := groupMembers(ecs, current)
	var target *models.EventCandidate
	for i := range members {
		if members[i].CandidateID == candidateID {
			target = &members[i]
			break
		}
	}
	if target == nil {
		return nil, errValidation("Candidate is not currently accepting votes")
	}

	voterKey := auth.VoterKey(identity.DeviceID, identity.IP, e.cfg.VoterSalt)

	memberIDs := make([]any, 0, len(members))
	placeholders := ""
	for i, m := range members {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+2)
		memberIDs = append(memberIDs, m.CandidateID)
	}

	var existing int
	args := append([]any{eventID}, memberIDs...)
	args = append(args, voterKey)
	if err := e.db.QueryRow(`
		SELECT COUNT(*) FROM vote
		WHERE event_id = $1 AND candidate_id IN (`+placeholders+`)
		AND voter_key = $`+fmt.Sprintf("%d", len(members)+2),
		args...,
	).Scan(&existing); err != nil {
		return nil, fmt.Errorf("failed to check for existing vote: %w", err)
	}
	if existing > 0 {
		return nil, errDuplicate("You have already voted for this candidate")
	}

	now := e.Now().UTC()

	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := func(ec models.EventCandidate, vt, nonce string) error {
		id, err := auth.GenerateID(16)
		if err != nil {
			return fmt.Errorf("failed to generate vote ID: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO vote (id, event_id, event_candidate_id, candidate_id, voter_key, nonce, vote_type, cast_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, eventID, ec.ID, ec.CandidateID, voterKey, nonce, vt, now)
		return err
	}

	if err := insert(*target, voteType, identity.Nonce); err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}

	var autoVoted []string
	if len(members) > 1 {
		var siblingType string
		switch voteType {
		case models.VoteYes:
			siblingType = models.VoteNo
		case models.VoteNeutral:
			siblingType = models.VoteNeutral
		}
		if siblingType != "" {
			for _, m := range members {
				if m.CandidateID == target.CandidateID {
					continue
				}
				if err := insert(m, siblingType, identity.Nonce+":auto:"+m.CandidateID); err != nil {
					return nil, fmt.Errorf("failed to record group vote: %w", err)
				}
				autoVoted = append(autoVoted, m.CandidateID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	e.broadcastState(ev, ecs)

	return &models.VoteConfirmed{
		Type:                models.MsgVoteConfirmed,
		VoteType:            voteType,
		CandidateID:         candidateID,
		WhichPosition:       target.Candidate.WhichPosition,
		AutoVotedCandidates: autoVoted,
	}, nil
}
