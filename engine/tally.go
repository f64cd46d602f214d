// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/dkarimoff/votelive/models"
)

// round1 rounds to one decimal place, the precision results are
// reported at.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// candidateTally counts one candidate's ballots in a single pass.
func (e *Engine) candidateTally(eventID, candidateID string) (models.VoteResults, error) {
	var r models.VoteResults
	err := e.db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN vote_type = 'yes' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN vote_type = 'no' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN vote_type = 'neutral' THEN 1 ELSE 0 END), 0)
		FROM vote WHERE event_id = $1 AND candidate_id = $2
	`, eventID, candidateID).Scan(&r.Yes, &r.No, &r.Neutral)
	if err != nil {
		return models.VoteResults{}, fmt.Errorf("failed to tally votes: %w", err)
	}
	r.Total = r.Yes + r.No + r.Neutral
	return r, nil
}

// turnout counts distinct voters across a set of candidates. For a
// group this is the number of people who voted on the group at all,
// regardless of which member they picked.
func (e *Engine) turnout(eventID string, candidateIDs []string) (int, error) {
	if len(candidateIDs) == 0 {
		return 0, nil
	}
	args := []any{eventID}
	placeholders := ""
	for i, id := range candidateIDs {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	var n int
	err := e.db.QueryRow(`
		SELECT COUNT(DISTINCT voter_key) FROM vote
		WHERE event_id = $1 AND candidate_id IN (`+placeholders+`)
	`, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count turnout: %w", err)
	}
	return n, nil
}

// Tally returns the live counts for one candidate of an event.
func (e *Engine) Tally(eventID, candidateID string) (models.VoteResults, error) {
	l := e.lock(eventID)
	l.RLock()
	defer l.RUnlock()

	return e.candidateTally(eventID, candidateID)
}

// eventResults builds the full results table: one row per candidate
// slot, ranked by yes votes descending with sequence order breaking
// ties. A candidate passes on a strict yes majority of their own total.
// Callers hold at least the event's read lock.
func (e *Engine) eventResults(ev models.Event, ecs []models.EventCandidate) (*models.EventResults, error) {
	results := make([]models.CandidateResult, 0, len(ecs))
	for _, ec := range ecs {
		tally, err := e.candidateTally(ev.ID, ec.CandidateID)
		if err != nil {
			return nil, err
		}

		members := groupMembers(ecs, ec)
		memberIDs := make([]string, 0, len(members))
		for _, m := range members {
			memberIDs = append(memberIDs, m.CandidateID)
		}
		turnout, err := e.turnout(ev.ID, memberIDs)
		if err != nil {
			return nil, err
		}

		r := models.CandidateResult{
			CandidateID:   ec.CandidateID,
			FullName:      ec.Candidate.FullName,
			Image:         ec.Candidate.Image,
			WhichPosition: ec.Candidate.WhichPosition,
			ElectionTime:  ec.Candidate.ElectionTime,
			Description:   ec.Candidate.Description,
			YesVotes:      tally.Yes,
			NoVotes:       tally.No,
			NeutralVotes:  tally.Neutral,
			TotalVotes:    tally.Total,
			Turnout:       turnout,
		}
		if tally.Total > 0 {
			r.YesPercent = round1(float64(tally.Yes) * 100 / float64(tally.Total))
			r.NoPercent = round1(float64(tally.No) * 100 / float64(tally.Total))
			r.NeutralPercent = round1(float64(tally.Neutral) * 100 / float64(tally.Total))
		}
		r.Passed = r.YesPercent > 50
		r.Votes = r.YesVotes
		r.Percent = r.YesPercent
		results = append(results, r)
	}

	// Slots arrive in sequence order; a stable sort keeps that order
	// among equal yes counts.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].YesVotes > results[j].YesVotes
	})
	for i := range results {
		results[i].Rank = i + 1
	}

	totalVoters, err := e.turnoutEventWide(ev.ID)
	if err != nil {
		return nil, err
	}

	return &models.EventResults{
		EventID:    ev.ID,
		EventName:  ev.Name,
		Status:     ev.Status,
		TotalVotes: totalVoters,
		Results:    results,
	}, nil
}

func (e *Engine) turnoutEventWide(eventID string) (int, error) {
	var n int
	err := e.db.QueryRow(`
		SELECT COUNT(DISTINCT voter_key) FROM vote WHERE event_id = $1
	`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count voters: %w", err)
	}
	return n, nil
}

// Results returns the ranked results table for an event.
func (e *Engine) Results(eventID string) (*models.EventResults, error) {
	l := e.lock(eventID)
	l.RLock()
	defer l.RUnlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return nil, err
	}
	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return nil, err
	}
	return e.eventResults(ev, ecs)
}

// ResultsByLink resolves a share link and returns the same table.
func (e *Engine) ResultsByLink(link string) (*models.EventResults, error) {
	ev, err := e.EventByLink(link)
	if err != nil {
		return nil, err
	}
	return e.Results(ev.ID)
}
