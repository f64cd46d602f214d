// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine implements the voting core: event lifecycle, candidate
sequencing, the vote ledger, per-candidate timers and result tallies.

# Concurrency

Every event gets its own RWMutex, created lazily on first use. All
mutations of one event serialize on the write lock; snapshot reads
share the read lock. Exported methods take the lock, unexported helpers
assume it is held. Different events never contend with each other.

# Derived timer state

The database stores only a start mark and a duration. Whether voting is
open, and how much time remains, are recomputed from the engine clock
on every read, so there is no ticker goroutine to drift or leak. The
clock is a plain func field that tests replace.

# Errors

Failures that should reach clients are built from a small set of
sentinel kinds (validation, conflict, duplicate vote, voting closed,
not found). HTTPStatus and ClientMessage map any error from this
package to a response; everything not carrying a sentinel is reported
as an internal error without leaking detail.
*/
package engine
