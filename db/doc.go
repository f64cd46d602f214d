// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - candidate: Candidate profiles, opaque to the voting core
  - event: Event metadata, lifecycle status, and cursor index
  - event_candidate: Ordered candidate slots with timer and group state
  - vote: The vote ledger, one record per voter identity per candidate

# Relationships

	event 1──* event_candidate
	event 1──* vote
	candidate 1──* event_candidate

The dedup invariant lives in the schema: vote has a unique constraint on
(event_id, candidate_id, voter_key), so a second vote from the same
identity can never be recorded even if the application-level check races.

# Portability

The DDL runs unmodified on PostgreSQL (lib/pq) and SQLite
(modernc.org/sqlite). Timestamps are written by the application; ids are
application-generated hex strings.
*/
package db
