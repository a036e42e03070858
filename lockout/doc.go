// Package lockout implements the sliding-window brute-force defense for
// login identifiers.
//
// Two keys live in the shared store per identifier:
//
//	failed_login_attempts:<identifier>  integer, TTL = attempt window, set on 0->1 only
//	account_lockout:<identifier>        RFC 3339 expiry, TTL = lockout duration
//
// The window is anchored to the first failure and is never renewed by later
// ones, so failures spread wider than the window never lock the account.
// The lockout flag carries its own expiry, which is checked against the
// clock on every read; a flag that outlives its embedded expiry is ignored
// and removed.
//
// The tracker fails open. When the store is unreachable every operation
// reports an unlocked identifier with a full attempt budget and logs a
// warning, so a cache outage degrades to "no throttling" rather than
// "nobody can log in".
package lockout
