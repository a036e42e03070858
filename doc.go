// Package schoolauth is the authentication session and account-lockout core
// of the school management system.
//
// It issues and rotates JWT access/refresh pairs backed by an expiring
// key-value store, and tracks failed logins per identifier to lock
// accounts out of brute-force attempts. HTTP handlers, user persistence and
// email delivery live outside; the core talks to them through
// [UserProvider], [PasswordHasher] and [AuditSink].
//
// Engine methods are safe for concurrent use after [Builder.Build].
//
// # Failure posture
//
// Lockout checks fail open: if the store is unreachable, logins proceed
// without throttling. Refresh fails closed: if the stored token cannot be
// read, the refresh is denied. Errors that leave the engine are always
// [autherr.Error] values of kind Authentication, Validation or NotFound.
//
// # Architecture boundaries
//
// The engine is the only component that calls the user provider. The
// session, lockout and jwt packages never import it.
package schoolauth
