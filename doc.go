// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the VoteLive API server.

VoteLive runs live, timed voting events: an admin steps through a
sequence of candidates on a stage, each candidate gets a short voting
window, and the audience votes yes/no/neutral from their phones while a
projector shows the running tally in real time.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=votelive.db ADMIN_KEY=... VOTER_SALT=... go run .

Or with flags:

	go run . -p 8000 -t postgres -d "postgres://..."

A .env file in the working directory is loaded if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string or SQLite file path
  - ADMIN_KEY (-admin-key): Secret required on admin endpoints
  - VOTER_SALT (-voter-salt): Secret for voter identity hashing

Optional settings:

  - PORT (-p): Server port (default: 8000)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - engine: event lifecycle, sequencing, timers, vote ledger, tallies
  - ws: websocket hub for voter and display channels
  - handlers: HTTP request handlers (events, controls, results, candidates)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, admin auth, JSON helpers
  - models: Request/response and wire types
  - auth: ID/link generation and voter identity hashing
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
