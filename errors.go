package schoolauth

import (
	"errors"

	"github.com/vidkid7/SchoolManagementSystem-sub009/autherr"
	"github.com/vidkid7/SchoolManagementSystem-sub009/session"
)

// Error kinds re-exported for callers that only import the root package.
type (
	// Error is the typed error returned by every Engine operation.
	Error = autherr.Error
	// ErrorKind classifies an Error.
	ErrorKind = autherr.Kind
)

const (
	KindAuthentication = autherr.KindAuthentication
	KindValidation     = autherr.KindValidation
	KindNotFound       = autherr.KindNotFound
)

var (
	// ErrAuthentication matches any authentication failure via errors.Is.
	ErrAuthentication = autherr.ErrAuthentication
	// ErrValidation matches any validation failure via errors.Is.
	ErrValidation = autherr.ErrValidation
	// ErrNotFound matches any not-found failure via errors.Is.
	ErrNotFound = autherr.ErrNotFound
)

// Reasons wrapped inside Error values. Match them with errors.Is when the
// kind alone is not specific enough.
var (
	// ErrUserNotFound must be returned by UserProvider lookups that find nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials covers unknown identifiers and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is the reason for a login refused by the lockout tracker.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountLockedPersisted is the reason for a login refused by the stored lock mirror.
	ErrAccountLockedPersisted = errors.New("account locked (persisted)")
	// ErrAccountInactive is the reason for a login on a non-active account.
	ErrAccountInactive = errors.New("account not active")
	// ErrRefreshFailed wraps unexpected refresh failures.
	ErrRefreshFailed = errors.New("refresh failed")
	// ErrAccessTokenInvalid is the reason for a rejected access token.
	ErrAccessTokenInvalid = errors.New("access token invalid")
	// ErrPasswordMismatch is the reason for a wrong current password on change.
	ErrPasswordMismatch = errors.New("current password mismatch")
	// ErrPasswordReuse is the reason for a new password equal to the current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrPasswordPolicy is the reason for a new password the hasher refused.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordResetInvalid covers unknown, used and expired reset tokens.
	ErrPasswordResetInvalid = errors.New("password reset token invalid")
	// ErrPasswordResetDisabled is returned when the reset flow is turned off.
	ErrPasswordResetDisabled = errors.New("password reset disabled")
	// ErrProviderUnavailable wraps user provider failures other than not-found.
	ErrProviderUnavailable = errors.New("user provider unavailable")
	// ErrSessionInvalidation means stored refresh tokens could not be deleted.
	ErrSessionInvalidation = session.ErrInvalidationFailed
	// ErrLockoutUnavailable is the reason when an admin unlock could not reach the store.
	ErrLockoutUnavailable = errors.New("lockout backend unavailable")
)

const (
	msgInvalidCredentials   = "Invalid credentials"
	msgAccountLocked        = "Account is locked"
	msgAccountInactive      = "Account is not active"
	msgRefreshFailed        = "Failed to refresh access token"
	msgInvalidAccessToken   = "Invalid access token"
	msgExpiredAccessToken   = "Access token expired"
	msgUserNotFound         = "User not found"
	msgCurrentPasswordWrong = "Current password is incorrect"
	msgPasswordReuse        = "New password must be different from current password"
	msgPasswordPolicy       = "New password does not meet the password policy"
	msgResetInvalid         = "Invalid or expired password reset token"
	msgResetDisabled        = "Password reset is disabled"
	msgServiceUnavailable   = "Authentication service unavailable"
	msgUnlockFailed         = "Failed to unlock account"
	msgSessionInvalidation  = "Failed to revoke existing sessions"
)
