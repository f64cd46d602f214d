// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, domain, and wire types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateEventRequest: name, candidate_ids, duration_sec
  - CreateCandidateRequest / UpdateCandidateRequest: candidate profile fields
  - StartTimerRequest: optional duration override
  - AdvanceRequest: optional from_index double-click guard
  - SetGroupRequest / UnsetGroupRequest / ReorderCandidatesRequest

# Domain Types

  - Event: voting session metadata and cursor position
  - EventCandidate: a candidate's slot in an event (order, status, group)
  - Candidate: profile data, opaque to the voting core
  - VoterIdentity: client-supplied nonce + device fingerprint + IP

# Realtime Payloads

  - TimerInfo: derived countdown state, recomputed from the server clock
  - CurrentCandidate: voter-channel snapshot
  - DisplayUpdate: display-channel snapshot
  - VoteResults / GroupResult / CandidateResult / EventResults

# WebSocket Messages

Voter channel (server → client): current_candidate, tally_update,
vote_confirmed, error. Client → server: cast_vote.

Display channel (server → client): display_update, candidate_changed.
Client → server: the literal text "update" to request a fresh snapshot.

# Constants

Event status values:

	StatusPending  = "pending"
	StatusActive   = "active"
	StatusFinished = "finished"
	StatusArchived = "archived"

Vote types:

	VoteYes     = "yes"
	VoteNo      = "no"
	VoteNeutral = "neutral"

Group sizes: GroupMinSize (2) to GroupMaxSize (4).
*/
package models
