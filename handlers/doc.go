// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP endpoints.

Handlers validate and decode requests, then call into the engine for
anything that touches live event state; candidate profile CRUD and
event creation/listing talk to the database directly, since those
never race with a running event. Engine failures map to HTTP statuses
through the engine's error kinds.

Admin-only endpoints are wrapped with middleware.RequireAdmin by the
router rather than checking the key themselves.
*/
package handlers
