package schoolauth

import (
	"context"
	"errors"

	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/audit"
	"github.com/vidkid7/SchoolManagementSystem-sub009/lockout"
)

// Audit event names. The lockout tracker emits its own counter and lock
// events through the same dispatcher.
const (
	EventLoginSuccess          = "login_success"
	EventLoginFailure          = "login_failure"
	EventLoginBlocked          = "login_blocked"
	EventRefreshSuccess        = "refresh_success"
	EventRefreshFailure        = "refresh_failure"
	EventLogout                = "logout"
	EventPasswordChanged       = "password_changed"
	EventPasswordChangeFailure = "password_change_failure"
	EventPasswordResetRequest  = "password_reset_request"
	EventPasswordReset         = "password_reset"
	EventPasswordResetFailure  = "password_reset_failure"
	EventPasswordRehashed      = "password_rehashed"

	EventFailedAttempt   = lockout.EventFailedAttempt
	EventAccountLocked   = lockout.EventAccountLocked
	EventLockoutReset    = lockout.EventLockoutReset
	EventUnlockedByAdmin = lockout.EventUnlockedByAdmin
)

// auditCode is the machine-readable Error field of an audit event.
func auditCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAccountLocked), errors.Is(err, ErrAccountLockedPersisted):
		return "account_locked"
	case errors.Is(err, ErrAccountInactive):
		return "account_inactive"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrPasswordMismatch):
		return "password_mismatch"
	case errors.Is(err, ErrPasswordReuse):
		return "password_reuse"
	case errors.Is(err, ErrPasswordPolicy):
		return "password_policy"
	case errors.Is(err, ErrPasswordResetInvalid):
		return "reset_token_invalid"
	case errors.Is(err, ErrProviderUnavailable):
		return "backend_unavailable"
	case errors.Is(err, ErrSessionInvalidation):
		return "session_invalidation_failed"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrAuthentication):
		return "unauthorized"
	default:
		return "internal_error"
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	event string,
	outcome audit.Outcome,
	identifier string,
	subjectID int64,
	err error,
	detailsBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var details map[string]string
	if detailsBuilder != nil {
		details = detailsBuilder()
	}
	if ua := audit.UserAgent(ctx); ua != "" {
		if details == nil {
			details = make(map[string]string, 1)
		}
		details["user_agent"] = ua
	}

	e.audit.Emit(ctx, audit.Event{
		Timestamp:  e.now().UTC(),
		Event:      event,
		SubjectID:  subjectID,
		Identifier: identifier,
		Outcome:    outcome,
		IP:         audit.ClientIP(ctx),
		Error:      auditCode(err),
		Details:    details,
	})
}
