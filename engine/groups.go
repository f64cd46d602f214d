// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"fmt"
	"strings"

	"github.com/dkarimoff/votelive/models"
)

// SetGroup binds 2-4 candidate slots of an event into a named group
// that votes as a single unit. Reusing an existing label replaces that
// group's membership, and slots already in another group are moved into
// the new one; any group left below the minimum size is dissolved. A
// group therefore always has between GroupMinSize and GroupMaxSize
// members.
func (e *Engine) SetGroup(eventID string, req models.SetGroupRequest) error {
	l := e.lock(eventID)
	l.Lock()
	defer l.Unlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return err
	}
	if ev.Status == models.StatusArchived {
		return errConflict("Event is archived")
	}

	if n := len(req.EventCandidateIDs); n < models.GroupMinSize || n > models.GroupMaxSize {
		return errValidation("A group must have between %d and %d candidates",
			models.GroupMinSize, models.GroupMaxSize)
	}
	label := strings.TrimSpace(req.GroupName)
	if label == "" {
		return errValidation("Group name is required")
	}

	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return err
	}
	byID := make(map[string]bool, len(ecs))
	for _, ec := range ecs {
		byID[ec.ID] = true
	}
	requested := make(map[string]bool, len(req.EventCandidateIDs))
	for _, id := range req.EventCandidateIDs {
		if !byID[id] {
			return errValidation("Candidate slot %s does not belong to this event", id)
		}
		if requested[id] {
			return errValidation("Candidate slot %s listed twice", id)
		}
		requested[id] = true
	}

	// Count what remains of every other group once the requested slots
	// move out and the reused label is cleared.
	remaining := make(map[string]int)
	for _, ec := range ecs {
		if ec.GroupLabel == nil || requested[ec.ID] || *ec.GroupLabel == label {
			continue
		}
		remaining[*ec.GroupLabel]++
	}

	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// A reused label replaces the previous group instead of merging
	// into it; a merge could grow past the maximum size.
	if _, err := tx.Exec(`
		UPDATE event_candidate SET group_label = NULL WHERE event_id = $1 AND group_label = $2
	`, eventID, label); err != nil {
		return fmt.Errorf("failed to clear group label: %w", err)
	}

	for _, id := range req.EventCandidateIDs {
		if _, err := tx.Exec(`
			UPDATE event_candidate SET group_label = $1 WHERE id = $2
		`, label, id); err != nil {
			return fmt.Errorf("failed to set group: %w", err)
		}
	}

	for donor, n := range remaining {
		if n >= models.GroupMinSize {
			continue
		}
		if _, err := tx.Exec(`
			UPDATE event_candidate SET group_label = NULL WHERE event_id = $1 AND group_label = $2
		`, eventID, donor); err != nil {
			return fmt.Errorf("failed to dissolve group: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	e.reloadAndBroadcast(eventID)
	return nil
}

// UnsetGroup removes one slot from its group. If that leaves the group
// below the minimum size, the remaining members are ungrouped too.
func (e *Engine) UnsetGroup(eventID string, req models.UnsetGroupRequest) error {
	l := e.lock(eventID)
	l.Lock()
	defer l.Unlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return err
	}
	if ev.Status == models.StatusArchived {
		return errConflict("Event is archived")
	}

	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return err
	}
	var target *models.EventCandidate
	for i := range ecs {
		if ecs[i].ID == req.EventCandidateID {
			target = &ecs[i]
			break
		}
	}
	if target == nil {
		return errValidation("Candidate slot %s does not belong to this event", req.EventCandidateID)
	}
	if target.GroupLabel == nil {
		return errValidation("Candidate slot is not grouped")
	}

	remove := []string{target.ID}
	if members := groupMembers(ecs, *target); len(members)-1 < models.GroupMinSize {
		remove = remove[:0]
		for _, m := range members {
			remove = append(remove, m.ID)
		}
	}

	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range remove {
		if _, err := tx.Exec(`
			UPDATE event_candidate SET group_label = NULL WHERE id = $1
		`, id); err != nil {
			return fmt.Errorf("failed to unset group: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	e.reloadAndBroadcast(eventID)
	return nil
}

// Reorder replaces the sequence order of a pending event. The request
// must be a full permutation of the event's candidate slots.
func (e *Engine) Reorder(eventID string, req models.ReorderCandidatesRequest) error {
	l := e.lock(eventID)
	l.Lock()
	defer l.Unlock()

	ev, err := e.getEvent(eventID)
	if err != nil {
		return err
	}
	if ev.Status != models.StatusPending {
		return errConflict("Only a pending event can be reordered")
	}

	ecs, err := e.listCandidates(eventID)
	if err != nil {
		return err
	}
	if len(req.CandidateIDs) != len(ecs) {
		return errValidation("Reorder must include all %d candidates", len(ecs))
	}
	slotByCandidate := make(map[string]string, len(ecs))
	for _, ec := range ecs {
		slotByCandidate[ec.CandidateID] = ec.ID
	}
	seen := make(map[string]bool, len(req.CandidateIDs))
	for _, id := range req.CandidateIDs {
		if _, ok := slotByCandidate[id]; !ok {
			return errValidation("Candidate %s does not belong to this event", id)
		}
		if seen[id] {
			return errValidation("Candidate %s listed twice", id)
		}
		seen[id] = true
	}

	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, id := range req.CandidateIDs {
		if _, err := tx.Exec(`
			UPDATE event_candidate SET ord = $1 WHERE id = $2
		`, i, slotByCandidate[id]); err != nil {
			return fmt.Errorf("failed to reorder candidates: %w", err)
		}
	}

	return tx.Commit()
}
