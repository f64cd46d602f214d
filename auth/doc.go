// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and identity derivation utilities.

# Admin Key

Admin requests carry a shared secret in the X-Admin-Key header, compared
in constant time:

	err := auth.ValidateAdminKey(provided, cfg.AdminKey)

There is no per-event key and no login flow; event administration is a
single-operator concern.

# Event Links

Shareable link tokens for events:

	link := auth.GenerateLink()  // 8 characters, e.g. "3f1c9b2a"

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

# Voter Identity

Votes are deduplicated by a key derived from the client-reported device
fingerprint and a salted hash of the connection IP:

	key := auth.VoterKey(deviceID, ip, salt)

The fingerprint is supplied by an untrusted client. This is an advisory
identity, good enough for a room of honest voters, and not a defense
against a voter who deliberately forges fingerprints.
*/
package auth
