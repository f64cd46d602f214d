// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"fmt"
	"time"

	"github.com/dkarimoff/votelive/models"
)

// computeTimer derives the full timer state from the stored start
// timestamp and the duration. remaining_ms and running are never
// stored: the end timestamp is the only authoritative value once the
// timer starts, and every read recomputes against now. Expiry needs no
// background callback this way, and the state is reproducible from
// (started_at, duration_sec, now) alone.
func computeTimer(startedAt *time.Time, durationSec int, now time.Time) models.TimerInfo {
	info := models.TimerInfo{DurationSec: durationSec}
	if startedAt == nil {
		return info
	}

	t := *startedAt
	endsAt := t.Add(time.Duration(durationSec) * time.Second)
	ts := endsAt.UnixMilli()

	info.StartedAt = &t
	info.EndsAt = &endsAt
	info.EndsAtTS = &ts

	if remaining := endsAt.Sub(now); remaining > 0 {
		info.Running = true
		info.RemainingMS = remaining.Milliseconds()
	}
	return info
}

// StartTimer opens the voting window for the current candidate.
// The timer state machine is NotStarted → Running → Expired; starting
// is only legal from NotStarted. A running timer cannot be restarted
// and an expired one cannot be rewound - the admin must advance.
func (e *Engine) StartTimer(eventID string, req models.StartTimerRequest) (*models.StartTimerResponse, error) {
	l := e.lock(eventID)
	l.Lock()
	defer l.Unlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return nil, err
	}
	if ev.Status != models.StatusActive {
		return nil, errConflict("Event must be active to start the timer")
	}

	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return nil, err
	}
	if len(ecs) == 0 {
		return nil, errValidation("Event has no candidates")
	}
	if ev.CurrentIndex >= len(ecs) {
		return nil, errConflict("All candidates have already completed voting")
	}

	current := ecs[ev.CurrentIndex]
	now := e.Now().UTC()

	durationSec := ev.DurationSec
	if req.DurationSec > 0 {
		durationSec = req.DurationSec
	}
	if durationSec <= 0 {
		return nil, errValidation("Duration must be positive")
	}

	if current.TimerStartedAt != nil {
		// The old window is judged by the stored duration; a request's
		// override must not reopen an expired timer.
		if computeTimer(current.TimerStartedAt, ev.DurationSec, now).Running {
			return nil, errConflict("Timer is already running for this candidate")
		}
		return nil, errConflict("Voting has already ended for this candidate; advance to the next one")
	}

	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE event_candidate SET timer_started_at = $1 WHERE id = $2
	`, now, current.ID); err != nil {
		return nil, fmt.Errorf("failed to start timer: %w", err)
	}

	// An explicit duration override becomes the event's duration so
	// that derived timer reads and the stored window agree.
	if durationSec != ev.DurationSec {
		if _, err := tx.Exec(`
			UPDATE event SET duration_sec = $1 WHERE id = $2
		`, durationSec, eventID); err != nil {
			return nil, fmt.Errorf("failed to update duration: %w", err)
		}
	}

	// Normalize slot statuses around the cursor.
	for idx, ec := range ecs {
		if idx < ev.CurrentIndex && ec.Status != models.CandidateCompleted {
			if _, err := tx.Exec(`
				UPDATE event_candidate SET status = $1 WHERE id = $2
			`, models.CandidateCompleted, ec.ID); err != nil {
				return nil, fmt.Errorf("failed to normalize candidate status: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	ev.DurationSec = durationSec
	ecs[ev.CurrentIndex].TimerStartedAt = &now

	e.broadcastState(ev, ecs)

	cc := e.currentCandidate(ev, ecs)
	return &models.StartTimerResponse{
		Message:          "Timer started",
		DurationSec:      durationSec,
		CurrentCandidate: &cc,
	}, nil
}
