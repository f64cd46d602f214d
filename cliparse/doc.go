// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 8000)
  - DatabaseURL: PostgreSQL connection string or SQLite path (required)
  - DatabaseType: "sqlite" or "postgres" (default: sqlite)
  - AdminKey: Secret required on admin endpoints (required)
  - VoterSalt: Secret for voter identity hashing (required)

# CLI Flags

	-p          Server port
	-d          Database URL
	-t          Database type
	-admin-key  Admin API key
	-voter-salt Voter identity salt

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p
	DATABASE_URL  → -d
	DATABASE_TYPE → -t
	ADMIN_KEY     → -admin-key
	VOTER_SALT    → -voter-salt

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - ADMIN_KEY must be provided
  - VOTER_SALT must be provided
  - DATABASE_TYPE, when set, must be sqlite or postgres

# Example

	// In main.go
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open(cfg.DriverName(), cfg.DatabaseURL)
	// ...
	mux := router.NewRouter(db, cfg, eng, hub)
*/
package cliparse
