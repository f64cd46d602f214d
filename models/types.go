// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Event status constants
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusFinished = "finished"
	StatusArchived = "archived"
)

// EventCandidate status constants
const (
	CandidatePending   = "pending"
	CandidateCompleted = "completed"
)

// Vote type constants
const (
	VoteYes     = "yes"
	VoteNo      = "no"
	VoteNeutral = "neutral"
)

// Group size limits
const (
	GroupMinSize = 2
	GroupMaxSize = 4
)

// Request types

type CreateEventRequest struct {
	Name         string   `json:"name"`
	CandidateIDs []string `json:"candidate_ids"`
	DurationSec  int      `json:"duration_sec"`
}

type CreateCandidateRequest struct {
	FullName      string `json:"full_name"`
	Image         string `json:"image"`
	Degree        string `json:"degree"`
	WhichPosition string `json:"which_position"`
	ElectionTime  string `json:"election_time"`
	Description   string `json:"description"`
}

type UpdateCandidateRequest struct {
	Image         *string `json:"image"`
	Degree        *string `json:"degree"`
	WhichPosition *string `json:"which_position"`
	ElectionTime  *string `json:"election_time"`
	Description   *string `json:"description"`
}

type StartTimerRequest struct {
	DurationSec int `json:"duration_sec"`
}

// AdvanceRequest carries the index the admin believes is current.
// A stale index means a duplicated click and is rejected, not replayed.
type AdvanceRequest struct {
	FromIndex *int `json:"from_index"`
}

type SetGroupRequest struct {
	EventCandidateIDs []string `json:"event_candidate_ids"`
	GroupName         string   `json:"group_name"`
}

type UnsetGroupRequest struct {
	EventCandidateID string `json:"event_candidate_id"`
}

type ReorderCandidatesRequest struct {
	CandidateIDs []string `json:"candidate_ids"`
}

// Response types

type CreateEventResponse struct {
	EventID string `json:"event_id"`
	Link    string `json:"link"`
}

type DuplicateEventResponse struct {
	EventID string `json:"event_id"`
	Link    string `json:"link"`
}

type AdvanceResponse struct {
	CurrentIndex int  `json:"current_index"`
	Total        int  `json:"total"`
	Completed    bool `json:"completed"`
}

type StartTimerResponse struct {
	Message          string            `json:"message"`
	DurationSec      int               `json:"duration_sec"`
	CurrentCandidate *CurrentCandidate `json:"current_candidate"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Domain types

type Candidate struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Image         string    `json:"image,omitempty"`
	Degree        string    `json:"degree,omitempty"`
	WhichPosition string    `json:"which_position,omitempty"`
	ElectionTime  string    `json:"election_time,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Event struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Link         string     `json:"link"`
	DurationSec  int        `json:"duration_sec"`
	Status       string     `json:"status"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	CurrentIndex int        `json:"current_index"`
	CreatedAt    time.Time  `json:"created_at"`
}

type EventCandidate struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	CandidateID    string     `json:"candidate_id"`
	Order          int        `json:"order"`
	Status         string     `json:"status"`
	TimerStartedAt *time.Time `json:"timer_started_at,omitempty"`
	GroupLabel     *string    `json:"group_label,omitempty"`
	Candidate      *Candidate `json:"candidate,omitempty"`
}

type EventWithCandidates struct {
	Event      Event            `json:"event"`
	Candidates []EventCandidate `json:"candidates"`
}

// VoterIdentity is the client-supplied identity used for vote dedup.
// Nonce and device fingerprint are advisory hints from an untrusted
// client, not cryptographic guarantees.
type VoterIdentity struct {
	Nonce    string
	DeviceID string
	IP       string
}

// Realtime payloads

// TimerInfo is derived state. Only started_at and the duration are
// authoritative; running and remaining_ms are recomputed from the
// server clock on every read.
type TimerInfo struct {
	Running     bool       `json:"running"`
	RemainingMS int64      `json:"remaining_ms"`
	DurationSec int        `json:"duration_sec"`
	StartedAt   *time.Time `json:"started_at"`
	EndsAt      *time.Time `json:"ends_at"`
	EndsAtTS    *int64     `json:"ends_at_ts"`
}

// CandidatePayload is the public view of a candidate sent to clients.
type CandidatePayload struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	Image         string `json:"image,omitempty"`
	WhichPosition string `json:"which_position,omitempty"`
	Degree        string `json:"degree,omitempty"`
}

// CurrentCandidate is the voter-channel snapshot of the cursor.
type CurrentCandidate struct {
	Candidate         *CandidatePayload  `json:"candidate"`
	EventCandidateID  *string            `json:"event_candidate_id"`
	Index             int                `json:"index"`
	Total             int                `json:"total"`
	Timer             TimerInfo          `json:"timer"`
	RelatedCandidates []CandidatePayload `json:"related_candidates"`
}

type VoteResults struct {
	Yes     int `json:"yes"`
	No      int `json:"no"`
	Neutral int `json:"neutral"`
	Total   int `json:"total"`
}

type GroupResult struct {
	Candidate CandidatePayload `json:"candidate"`
	Votes     VoteResults      `json:"votes"`
}

// CandidateResult is one row of the final event results.
type CandidateResult struct {
	Rank           int     `json:"rank"`
	CandidateID    string  `json:"candidate_id"`
	FullName       string  `json:"full_name"`
	Image          string  `json:"image,omitempty"`
	WhichPosition  string  `json:"which_position,omitempty"`
	ElectionTime   string  `json:"election_time,omitempty"`
	Description    string  `json:"description,omitempty"`
	YesVotes       int     `json:"yes_votes"`
	YesPercent     float64 `json:"yes_percent"`
	NoVotes        int     `json:"no_votes"`
	NoPercent      float64 `json:"no_percent"`
	NeutralVotes   int     `json:"neutral_votes"`
	NeutralPercent float64 `json:"neutral_percent"`
	TotalVotes     int     `json:"total_votes"`
	Turnout        int     `json:"turnout"`
	Passed         bool    `json:"passed"`
	// Display aliases used by the results listing
	Votes   int     `json:"votes"`
	Percent float64 `json:"percent"`
}

type EventResults struct {
	EventID    string            `json:"event_id"`
	EventName  string            `json:"event_name"`
	Status     string            `json:"status"`
	TotalVotes int               `json:"total_votes"`
	Results    []CandidateResult `json:"results"`
}

// DisplayUpdate is the display-channel snapshot. One canonical payload
// is built per mutation and pushed to every display subscriber.
type DisplayUpdate struct {
	Type              string             `json:"type"`
	Candidate         *CandidatePayload  `json:"candidate"`
	CurrentCandidate  *CandidatePayload  `json:"current_candidate"`
	RelatedCandidates []CandidatePayload `json:"related_candidates"`
	GroupResults      []GroupResult      `json:"group_results"`
	RemainingMS       int64              `json:"remaining_ms"`
	TimerRunning      bool               `json:"timer_running"`
	Timer             TimerInfo          `json:"timer"`
	VoteResults       VoteResults        `json:"vote_results"`
	EventStatus       string             `json:"event_status"`
	EventCompleted    bool               `json:"event_completed"`
	FinalResults      []CandidateResult  `json:"final_results"`
	TotalVotes        int                `json:"total_votes"`
}
