// Package internal holds helpers private to the module: reset token
// generation here, audit dispatch under internal/audit, process wiring
// under internal/config and internal/obs.
package internal
