// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"fmt"
	"strings"

	"github.com/dkarimoff/votelive/auth"
	"github.com/dkarimoff/votelive/models"
)

// StartEvent transitions a pending event to active with the cursor on
// candidate 0. The first candidate's timer is NOT started; that is a
// separate admin action.
func (e *Engine) StartEvent(eventID string) (models.Event, error) {
	l := e.lock(eventID)
	l.Lock()
	defer l.Unlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return models.Event{}, err
	}
	if ev.Status != models.StatusPending {
		return models.Event{}, errConflict("Event is already %s", ev.Status)
	}

	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return models.Event{}, err
	}
	if len(ecs) == 0 {
		return models.Event{}, errValidation("Event has no candidates")
	}

	var missingPosition []string
	for _, ec := range ecs {
		if strings.TrimSpace(ec.Candidate.WhichPosition) == "" {
			missingPosition = append(missingPosition, ec.Candidate.FullName)
		}
	}
	if len(missingPosition) > 0 {
		return models.Event{}, errValidation(
			"All candidates must have a position before starting. Missing for: %s",
			strings.Join(missingPosition, ", "))
	}

	now := e.Now().UTC()
	if _, err := e.db.Exec(`
		UPDATE event SET status = $1, start_time = $2, current_index = 0 WHERE id = $3
	`, models.StatusActive, now, eventID); err != nil {
		return models.Event{}, fmt.Errorf("failed to start event: %w", err)
	}

	ev.Status = models.StatusActive
	ev.StartTime = &now
	ev.CurrentIndex = 0

	e.broadcastState(ev, ecs)
	return ev, nil
}

// StopEvent finishes an active event without running out the sequence.
func (e *Engine) StopEvent(eventID string) (models.Event, error) {
	l := e.lock(eventID)
	l.Lock()
	defer l.Unlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return models.Event{}, err
	}
	if ev.Status != models.StatusActive {
		return models.Event{}, errConflict("Event is not active")
	}

	now := e.Now().UTC()
	if _, err := e.db.Exec(`
		UPDATE event SET status = $1, end_time = $2 WHERE id = $3
	`, models.StatusFinished, now, eventID); err != nil {
		return models.Event{}, fmt.Errorf("failed to stop event: %w", err)
	}

	ev.Status = models.StatusFinished
	ev.EndTime = &now

	e.reloadAndBroadcast(eventID)
	return ev, nil
}

// Advance marks the current candidate (or its whole group) completed
// and moves the cursor one step forward. When the cursor reaches the
// end, the event finishes and the current candidate becomes null.
//
// fromIndex, when non-nil, must match the live cursor; a mismatch means
// a duplicated admin click and is rejected instead of double-advancing.
func (e *Engine) Advance(eventID string, fromIndex *int) (*models.AdvanceResponse, error) {
	l := e.lock(eventID)
	l.Lock()
	defer l.Unlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return nil, err
	}
	if ev.Status != models.StatusActive {
		return nil, errConflict("Cannot advance: event is %s", ev.Status)
	}

	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return nil, err
	}
	total := len(ecs)
	if total == 0 {
		return nil, errValidation("No candidates available for this event")
	}

	if fromIndex != nil && *fromIndex != ev.CurrentIndex {
		return nil, errConflict("Event already advanced past index %d", *fromIndex)
	}

	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	complete := func(id string) error {
		_, err := tx.Exec(`
			UPDATE event_candidate SET status = $1 WHERE id = $2
		`, models.CandidateCompleted, id)
		return err
	}

	// A group is one sequence step: completing any member completes all
	// of them, and the cursor skips the rest of the group.
	var currentGroup *string
	if ev.CurrentIndex < total {
		current := ecs[ev.CurrentIndex]
		currentGroup = current.GroupLabel
		for _, member := range groupMembers(ecs, current) {
			if err := complete(member.ID); err != nil {
				return nil, fmt.Errorf("failed to complete candidate: %w", err)
			}
		}
	}

	next := ev.CurrentIndex + 1
	for next < total && currentGroup != nil &&
		ecs[next].GroupLabel != nil && *ecs[next].GroupLabel == *currentGroup {
		next++
	}

	if next >= total {
		now := e.Now().UTC()
		if _, err := tx.Exec(`
			UPDATE event SET status = $1, end_time = $2, current_index = $3 WHERE id = $4
		`, models.StatusFinished, now, total, eventID); err != nil {
			return nil, fmt.Errorf("failed to finish event: %w", err)
		}
	} else {
		// Fresh TimerState for the new current candidate: not started.
		if _, err := tx.Exec(`
			UPDATE event_candidate SET status = $1, timer_started_at = NULL WHERE id = $2
		`, models.CandidatePending, ecs[next].ID); err != nil {
			return nil, fmt.Errorf("failed to reset next candidate: %w", err)
		}
		if _, err := tx.Exec(`
			UPDATE event SET current_index = $1 WHERE id = $2
		`, next, eventID); err != nil {
			return nil, fmt.Errorf("failed to advance cursor: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if e.hub != nil {
		e.hub.BroadcastDisplay(ev.Link, models.CandidateChanged{
			Type:  models.MsgCandidateChanged,
			Index: next,
			Total: total,
		})
	}
	e.reloadAndBroadcast(eventID)

	return &models.AdvanceResponse{
		CurrentIndex: next,
		Total:        total,
		Completed:    next >= total,
	}, nil
}

// JumpTo is the admin override to revisit an arbitrary index while the
// event is active. Only the jumped-to slot changes: its timer is
// cleared and it becomes current; other completed/pending markers stay.
func (e *Engine) JumpTo(eventID string, index int) (*models.AdvanceResponse, error) {
	l := e.lock(eventID)
	l.Lock()
	defer l.Unlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return nil, err
	}
	if ev.Status != models.StatusActive {
		return nil, errConflict("Cannot jump: event is %s", ev.Status)
	}

	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ecs) {
		return nil, errValidation("Candidate index %d out of range", index)
	}

	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE event_candidate SET status = $1, timer_started_at = NULL WHERE id = $2
	`, models.CandidatePending, ecs[index].ID); err != nil {
		return nil, fmt.Errorf("failed to reset candidate: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE event SET current_index = $1 WHERE id = $2
	`, index, eventID); err != nil {
		return nil, fmt.Errorf("failed to move cursor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if e.hub != nil {
		e.hub.BroadcastDisplay(ev.Link, models.CandidateChanged{
			Type:  models.MsgCandidateChanged,
			Index: index,
			Total: len(ecs),
		})
	}
	e.reloadAndBroadcast(eventID)

	return &models.AdvanceResponse{
		CurrentIndex: index,
		Total:        len(ecs),
		Completed:    false,
	}, nil
}

// Reset returns an active or finished event to pending: all votes are
// deleted, every slot goes back to pending with no timer, and the
// cursor returns to 0.
func (e *Engine) Reset(eventID string) (models.Event, error) {
	l := e.lock(eventID)
	l.Lock()
	defer l.Unlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return models.Event{}, err
	}
	if ev.Status != models.StatusActive && ev.Status != models.StatusFinished {
		return models.Event{}, errConflict("Only an active or finished event can be reset")
	}

	tx, err := e.db.Begin()
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM vote WHERE event_id = $1`, eventID); err != nil {
		return models.Event{}, fmt.Errorf("failed to clear votes: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE event_candidate SET status = $1, timer_started_at = NULL WHERE event_id = $2
	`, models.CandidatePending, eventID); err != nil {
		return models.Event{}, fmt.Errorf("failed to reset candidates: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE event SET status = $1, start_time = NULL, end_time = NULL, current_index = 0 WHERE id = $2
	`, models.StatusPending, eventID); err != nil {
		return models.Event{}, fmt.Errorf("failed to reset event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Event{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	e.reloadAndBroadcast(eventID)
	return e.getEvent(eventID)
}

// Archive freezes a non-active event. Archived events are read-only for
// voters and excluded from every mutating admin operation except delete.
func (e *Engine) Archive(eventID string) (models.Event, error) {
	l := e.lock(eventID)
	l.Lock()
	defer l.Unlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return models.Event{}, err
	}
	if ev.Status == models.StatusActive {
		return models.Event{}, errConflict("Stop the event before archiving")
	}
	if ev.Status == models.StatusArchived {
		return models.Event{}, errConflict("Event is already archived")
	}

	now := e.Now().UTC()
	endTime := ev.EndTime
	if endTime == nil {
		endTime = &now
	}
	if _, err := e.db.Exec(`
		UPDATE event SET status = $1, end_time = $2 WHERE id = $3
	`, models.StatusArchived, endTime, eventID); err != nil {
		return models.Event{}, fmt.Errorf("failed to archive event: %w", err)
	}

	ev.Status = models.StatusArchived
	ev.EndTime = endTime
	return ev, nil
}

// Delete removes an event and all of its dependent rows.
func (e *Engine) Delete(eventID string) error {
	l := e.lock(eventID)
	l.Lock()
	defer l.Unlock()

	if _, err := e.getEvent(eventID); err != nil {
		return err
	}

	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Explicit deletes instead of relying on FK cascades, which SQLite
	// keeps disabled by default.
	for _, q := range []string{
		`DELETE FROM vote WHERE event_id = $1`,
		`DELETE FROM event_candidate WHERE event_id = $1`,
		`DELETE FROM event WHERE id = $1`,
	} {
		if _, err := tx.Exec(q, eventID); err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
	}

	return tx.Commit()
}

// Duplicate copies an event into a fresh pending one: same name,
// duration, candidate order and groups; new link, no votes.
func (e *Engine) Duplicate(eventID string) (models.Event, error) {
	l := e.lock(eventID)
	l.RLock()
	defer l.RUnlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return models.Event{}, err
	}
	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return models.Event{}, err
	}

	newID, err := auth.GenerateID(16)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to generate event ID: %w", err)
	}
	link := auth.GenerateLink()
	now := e.Now().UTC()

	tx, err := e.db.Begin()
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO event (id, name, link, duration_sec, status, current_index, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
	`, newID, ev.Name, link, ev.DurationSec, models.StatusPending, now); err != nil {
		return models.Event{}, fmt.Errorf("failed to duplicate event: %w", err)
	}

	for _, ec := range ecs {
		ecID, err := auth.GenerateID(12)
		if err != nil {
			return models.Event{}, fmt.Errorf("failed to generate slot ID: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO event_candidate (id, event_id, candidate_id, ord, status, group_label)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, ecID, newID, ec.CandidateID, ec.Order, models.CandidatePending, ec.GroupLabel); err != nil {
			return models.Event{}, fmt.Errorf("failed to duplicate candidate slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Event{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return models.Event{
		ID:          newID,
		Name:        ev.Name,
		Link:        link,
		DurationSec: ev.DurationSec,
		Status:      models.StatusPending,
		CreatedAt:   now,
	}, nil
}
