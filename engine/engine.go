// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dkarimoff/votelive/cliparse"
	"github.com/dkarimoff/votelive/models"
)

// Broadcaster pushes state snapshots to the realtime subscribers of an
// event. Delivery is best-effort per connection; a slow or dead peer
// must never block the caller.
type Broadcaster interface {
	BroadcastVoter(link string, msg any)
	BroadcastDisplay(link string, msg any)
}

// Engine is the event orchestration core: sequencer, timer, vote ledger
// and tally live behind one lock per event id. All mutations of a given
// event serialize on its write lock; snapshot reads share its read lock,
// so a reader always observes a committed cursor+timer+votes state,
// never a torn mix.
type Engine struct {
	db  *sql.DB
	cfg cliparse.Config
	hub Broadcaster

	// Now is the clock for all timer math. Tests substitute it.
	Now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func New(db *sql.DB, cfg cliparse.Config, hub Broadcaster) *Engine {
	return &Engine{
		db:    db,
		cfg:   cfg,
		hub:   hub,
		Now:   time.Now,
		locks: make(map[string]*sync.RWMutex),
	}
}

// lock returns the mutex guarding one event's state. Lock instances are
// never removed; an event id that stops existing just leaves one idle
// mutex behind.
func (e *Engine) lock(eventID string) *sync.RWMutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.locks[eventID]
	if !ok {
		l = &sync.RWMutex{}
		e.locks[eventID] = l
	}
	return l
}

// NowUTC returns the engine clock's current time in UTC, so row
// timestamps written outside the engine agree with timer math inside.
func (e *Engine) NowUTC() time.Time {
	return e.Now().UTC()
}

// Event returns one event under its read lock.
func (e *Engine) Event(eventID string) (models.Event, error) {
	l := e.lock(eventID)
	l.RLock()
	defer l.RUnlock()

	return e.getEvent(eventID)
}

// Candidates returns the ordered candidate slots under the read lock.
func (e *Engine) Candidates(eventID string) ([]models.EventCandidate, error) {
	l := e.lock(eventID)
	l.RLock()
	defer l.RUnlock()

	return e.listCandidates(eventID)
}

// EventByLink resolves a shareable link to its event.
func (e *Engine) EventByLink(link string) (models.Event, error) {
	var ev models.Event
	err := e.db.QueryRow(`
		SELECT id, name, link, duration_sec, status, start_time, end_time, current_index, created_at
		FROM event WHERE link = $1
	`, link).Scan(
		&ev.ID, &ev.Name, &ev.Link, &ev.DurationSec, &ev.Status,
		&ev.StartTime, &ev.EndTime, &ev.CurrentIndex, &ev.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Event{}, errNotFound("Event not found")
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to query event by link: %w", err)
	}
	return ev, nil
}

// getEvent loads one event row. Callers hold the event lock.
func (e *Engine) getEvent(eventID string) (models.Event, error) {
	var ev models.Event
	err := e.db.QueryRow(`
		SELECT id, name, link, duration_sec, status, start_time, end_time, current_index, created_at
		FROM event WHERE id = $1
	`, eventID).Scan(
		&ev.ID, &ev.Name, &ev.Link, &ev.DurationSec, &ev.Status,
		&ev.StartTime, &ev.EndTime, &ev.CurrentIndex, &ev.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Event{}, errNotFound("Event not found")
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to query event: %w", err)
	}
	return ev, nil
}

// listCandidates loads the ordered candidate slots with their profiles.
func (e *Engine) listCandidates(eventID string) ([]models.EventCandidate, error) {
	rows, err := e.db.Query(`
		SELECT ec.id, ec.event_id, ec.candidate_id, ec.ord, ec.status,
		       ec.timer_started_at, ec.group_label,
		       c.full_name, c.image, c.degree, c.which_position, c.election_time, c.description
		FROM event_candidate ec
		JOIN candidate c ON c.id = ec.candidate_id
		WHERE ec.event_id = $1
		ORDER BY ec.ord
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query event candidates: %w", err)
	}
	defer rows.Close()

	var ecs []models.EventCandidate
	for rows.Next() {
		var ec models.EventCandidate
		var startedAt sql.NullTime
		var group, image, degree, position, electionTime, description sql.NullString
		var c models.Candidate

		if err := rows.Scan(
			&ec.ID, &ec.EventID, &ec.CandidateID, &ec.Order, &ec.Status,
			&startedAt, &group,
			&c.FullName, &image, &degree, &position, &electionTime, &description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event candidate: %w", err)
		}

		if startedAt.Valid {
			t := startedAt.Time
			ec.TimerStartedAt = &t
		}
		if group.Valid && group.String != "" {
			g := group.String
			ec.GroupLabel = &g
		}

		c.ID = ec.CandidateID
		c.Image = image.String
		c.Degree = degree.String
		c.WhichPosition = position.String
		c.ElectionTime = electionTime.String
		c.Description = description.String
		ec.Candidate = &c

		ecs = append(ecs, ec)
	}

	return ecs, rows.Err()
}

// groupMembers returns the slots voted on together with ec: its group
// siblings when grouped, otherwise just ec itself.
func groupMembers(ecs []models.EventCandidate, ec models.EventCandidate) []models.EventCandidate {
	if ec.GroupLabel == nil {
		return []models.EventCandidate{ec}
	}
	var members []models.EventCandidate
	for _, other := range ecs {
		if other.GroupLabel != nil && *other.GroupLabel == *ec.GroupLabel {
			members = append(members, other)
		}
	}
	return members
}

// broadcastState pushes the canonical snapshots to both channels.
// Callers hold the event's write lock, so subscribers see snapshots in
// the order the underlying mutations committed.
func (e *Engine) broadcastState(ev models.Event, ecs []models.EventCandidate) {
	if e.hub == nil {
		return
	}
	cc := e.currentCandidate(ev, ecs)
	e.hub.BroadcastVoter(ev.Link, models.Envelope{Type: models.MsgCurrentCandidate, Data: cc})
	if cc.Candidate != nil {
		tally, err := e.candidateTally(ev.ID, cc.Candidate.ID)
		if err == nil {
			e.hub.BroadcastVoter(ev.Link, models.Envelope{Type: models.MsgTallyUpdate, Data: tally})
		}
	}
	du, err := e.displayUpdate(ev, ecs)
	if err == nil {
		e.hub.BroadcastDisplay(ev.Link, du)
	}
}

// reloadAndBroadcast refreshes event state after a committed mutation
// and fans the new snapshots out.
func (e *Engine) reloadAndBroadcast(eventID string) {
	ev, err := e.getEvent(eventID)
	if err != nil {
		return
	}
	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return
	}
	e.broadcastState(ev, ecs)
}
