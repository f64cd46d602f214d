// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// WebSocket message type constants
const (
	MsgCurrentCandidate = "current_candidate"
	MsgTallyUpdate      = "tally_update"
	MsgVoteConfirmed    = "vote_confirmed"
	MsgError            = "error"
	MsgDisplayUpdate    = "display_update"
	MsgCandidateChanged = "candidate_changed"
	MsgCastVote         = "cast_vote"
)

// VoteCommand is the single client→server command on the voter channel.
type VoteCommand struct {
	Type        string `json:"type"`
	VoteType    string `json:"vote_type"`
	CandidateID string `json:"candidate_id"`
	Nonce       string `json:"nonce"`
	DeviceID    string `json:"device_id"`
}

// Envelope wraps snapshot payloads on the voter channel.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// VoteConfirmed is sent to the casting connection only, never broadcast.
type VoteConfirmed struct {
	Type                string   `json:"type"`
	VoteType            string   `json:"vote_type"`
	CandidateID         string   `json:"candidate_id"`
	WhichPosition       string   `json:"which_position,omitempty"`
	AutoVotedCandidates []string `json:"auto_voted_candidates"`
}

// CandidateChanged notifies displays that the cursor moved.
type CandidateChanged struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}
