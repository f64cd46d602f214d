// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ws carries the realtime side of an event: a voter channel for
casting ballots and a display channel for projection screens.

# Fan-out

The Hub keeps one subscriber set per event link and channel kind. Each
connection owns a buffered send queue and a single writer goroutine;
broadcasts never block on a peer. When a queue fills, frames for that
peer are dropped - the next snapshot supersedes anything lost, since
every broadcast is a full snapshot rather than a delta.

# Targeted replies

Vote receipts and rejections are written only to the connection that
issued the command. Broadcast traffic (current candidate, tallies,
display updates) originates in the engine after each committed
mutation.
*/
package ws
