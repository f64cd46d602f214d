// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The DDL is kept portable between PostgreSQL and SQLite: TEXT ids
// generated in the application, explicit timestamps (no NOW() defaults),
// no database-specific column types.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Candidate profiles (opaque to the voting core)
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    full_name TEXT NOT NULL,
    image TEXT,
    degree TEXT,
    which_position TEXT,
    election_time TEXT,
    description TEXT,
    created_at TIMESTAMP NOT NULL
);

-- Events
CREATE TABLE IF NOT EXISTS event (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    link TEXT NOT NULL UNIQUE,
    duration_sec INTEGER NOT NULL DEFAULT 15,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active', 'finished', 'archived')),
    start_time TIMESTAMP,
    end_time TIMESTAMP,
    current_index INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_event_link ON event(link);
CREATE INDEX IF NOT EXISTS idx_event_status ON event(status);

-- Candidate slots within an event. ord is a contiguous permutation
-- of [0..N) maintained on reorder and removal.
CREATE TABLE IF NOT EXISTS event_candidate (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    ord INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed')),
    timer_started_at TIMESTAMP,
    group_label TEXT,
    UNIQUE (event_id, candidate_id)
);

CREATE INDEX IF NOT EXISTS idx_event_candidate_event ON event_candidate(event_id);

-- Vote ledger. The unique constraint is the at-most-one-vote invariant:
-- one record per (event, candidate, voter identity).
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
    event_candidate_id TEXT NOT NULL REFERENCES event_candidate(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    voter_key TEXT NOT NULL,
    nonce TEXT NOT NULL,
    vote_type TEXT NOT NULL CHECK (vote_type IN ('yes', 'no', 'neutral')),
    cast_at TIMESTAMP NOT NULL,
    UNIQUE (event_id, candidate_id, voter_key)
);

CREATE INDEX IF NOT EXISTS idx_vote_event ON vote(event_id);
CREATE INDEX IF NOT EXISTS idx_vote_event_candidate ON vote(event_id, candidate_id);
`
