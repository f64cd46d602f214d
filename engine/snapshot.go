// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"github.com/dkarimoff/votelive/models"
)

func candidatePayload(c *models.Candidate) models.CandidatePayload {
	return models.CandidatePayload{
		ID:            c.ID,
		FullName:      c.FullName,
		Image:         c.Image,
		WhichPosition: c.WhichPosition,
		Degree:        c.Degree,
	}
}

// relatedCandidates lists the group the current slot votes with,
// including the slot itself. Empty for an ungrouped slot.
func relatedCandidates(ecs []models.EventCandidate, ec models.EventCandidate) []models.CandidatePayload {
	if ec.GroupLabel == nil {
		return nil
	}
	members := groupMembers(ecs, ec)
	payloads := make([]models.CandidatePayload, 0, len(members))
	for _, m := range members {
		payloads = append(payloads, candidatePayload(m.Candidate))
	}
	return payloads
}

// currentCandidate builds the voter-channel view of the cursor. Timer
// fields are derived from the stored start mark at call time; two
// snapshots of the same state taken a second apart disagree only in
// remaining_ms and running.
func (e *Engine) currentCandidate(ev models.Event, ecs []models.EventCandidate) models.CurrentCandidate {
	cc := models.CurrentCandidate{
		Index: ev.CurrentIndex,
		Total: len(ecs),
		Timer: models.TimerInfo{DurationSec: ev.DurationSec},
	}
	if ev.Status != models.StatusActive || ev.CurrentIndex < 0 || ev.CurrentIndex >= len(ecs) {
		return cc
	}

	ec := ecs[ev.CurrentIndex]
	payload := candidatePayload(ec.Candidate)
	cc.Candidate = &payload
	ecID := ec.ID
	cc.EventCandidateID = &ecID
	cc.Timer = computeTimer(ec.TimerStartedAt, ev.DurationSec, e.Now())
	cc.RelatedCandidates = relatedCandidates(ecs, ec)
	return cc
}

// displayUpdate builds the canonical display-channel snapshot: cursor,
// derived timer, live tallies, and final results once the event is
// over.
func (e *Engine) displayUpdate(ev models.Event, ecs []models.EventCandidate) (models.DisplayUpdate, error) {
	du := models.DisplayUpdate{
		Type:        models.MsgDisplayUpdate,
		EventStatus: ev.Status,
		Timer:       models.TimerInfo{DurationSec: ev.DurationSec},
	}

	completed := ev.Status == models.StatusFinished || ev.Status == models.StatusArchived ||
		ev.CurrentIndex >= len(ecs)
	du.EventCompleted = completed

	if completed {
		res, err := e.eventResults(ev, ecs)
		if err != nil {
			return models.DisplayUpdate{}, err
		}
		du.FinalResults = res.Results
		du.TotalVotes = res.TotalVotes
		return du, nil
	}

	if ev.Status != models.StatusActive || ev.CurrentIndex < 0 {
		return du, nil
	}

	ec := ecs[ev.CurrentIndex]
	payload := candidatePayload(ec.Candidate)
	du.Candidate = &payload
	du.CurrentCandidate = &payload
	du.Timer = computeTimer(ec.TimerStartedAt, ev.DurationSec, e.Now())
	du.RemainingMS = du.Timer.RemainingMS
	du.TimerRunning = du.Timer.Running
	du.RelatedCandidates = relatedCandidates(ecs, ec)

	tally, err := e.candidateTally(ev.ID, ec.CandidateID)
	if err != nil {
		return models.DisplayUpdate{}, err
	}
	du.VoteResults = tally

	if ec.GroupLabel != nil {
		for _, m := range groupMembers(ecs, ec) {
			mt, err := e.candidateTally(ev.ID, m.CandidateID)
			if err != nil {
				return models.DisplayUpdate{}, err
			}
			du.GroupResults = append(du.GroupResults, models.GroupResult{
				Candidate: candidatePayload(m.Candidate),
				Votes:     mt,
			})
		}
	}

	return du, nil
}

// CurrentCandidateSnapshot is the read-locked snapshot used by the
// HTTP polling endpoint and on websocket connect.
func (e *Engine) CurrentCandidateSnapshot(eventID string) (models.CurrentCandidate, error) {
	l := e.lock(eventID)
	l.RLock()
	defer l.RUnlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return models.CurrentCandidate{}, err
	}
	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return models.CurrentCandidate{}, err
	}
	return e.currentCandidate(ev, ecs), nil
}

// DisplaySnapshot is the read-locked display payload sent to a display
// client on connect or explicit refresh.
func (e *Engine) DisplaySnapshot(eventID string) (models.DisplayUpdate, error) {
	l := e.lock(eventID)
	l.RLock()
	defer l.RUnlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return models.DisplayUpdate{}, err
	}
	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return models.DisplayUpdate{}, err
	}
	return e.displayUpdate(ev, ecs)
}
