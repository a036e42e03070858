// Package session binds each subject to exactly one live refresh token.
//
// The current refresh token is stored under refresh_token:<subjectId> with
// the lifetime of its tier. A presented refresh token is accepted only if
// its signature verifies and it equals the stored value byte for byte, so
// a rotated-out token stops working even though it is still signed and
// unexpired.
//
// Store failures while issuing are logged and tolerated because the tokens
// are self-contained. Store failures while refreshing deny the refresh.
//
// This package does not look up users or check passwords; that belongs to
// the engine.
package session
