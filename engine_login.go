package schoolauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/vidkid7/SchoolManagementSystem-sub009/autherr"
	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/audit"
)

const msgCredentialsRequired = "Identifier and password are required"

// lockedError builds the tracker-driven lockout message. It is distinct
// from the persisted-mirror message "Account is locked".
func lockedError(status LockoutStatus) error {
	minutes := status.MinutesRemaining()
	if minutes < 1 {
		minutes = 1
	}
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	msg := fmt.Sprintf("Account is temporarily locked due to too many failed login attempts. Try again in %d %s.", minutes, unit)
	return autherr.Locked(msg, minutes, ErrAccountLocked)
}

func invalidCredentials() error {
	return autherr.Authentication(msgInvalidCredentials, ErrInvalidCredentials)
}

// Login authenticates identifier (username, or email when it contains "@")
// and issues a token pair. The lockout tracker is consulted before any
// user lookup or password comparison.
func (e *Engine) Login(ctx context.Context, identifier, password string, rememberMe bool) (LoginResult, error) {
	if identifier == "" || password == "" {
		return LoginResult{}, autherr.Validation(msgCredentialsRequired, ErrInvalidCredentials)
	}

	status := e.lockout.CheckLockoutStatus(ctx, identifier)
	if status.IsLocked {
		err := lockedError(status)
		e.metrics.Inc(MetricLoginLocked)
		e.emitAudit(ctx, EventLoginBlocked, audit.OutcomeBlocked, identifier, 0, err, func() map[string]string {
			return map[string]string{"seconds_remaining": strconv.Itoa(status.LockoutTimeRemaining)}
		})
		return LoginResult{}, err
	}

	user, err := e.findUser(ctx, func() (UserRecord, error) {
		return e.userProvider.FindUserByIdentifier(ctx, identifier)
	})
	if errors.Is(err, ErrUserNotFound) {
		// Counted like a wrong password so unknown identifiers are not observable.
		e.lockout.RecordFailedAttempt(ctx, identifier, 0)
		return LoginResult{}, e.loginFailed(ctx, identifier, 0, invalidCredentials())
	}
	if err != nil {
		return LoginResult{}, e.loginFailed(ctx, identifier, 0, err)
	}

	if user.AccountLockedUntil != nil && e.now().Before(*user.AccountLockedUntil) {
		minutes := int(user.AccountLockedUntil.Sub(e.now()).Minutes() + 0.999)
		err := autherr.Locked(msgAccountLocked, minutes, ErrAccountLockedPersisted)
		e.metrics.Inc(MetricLoginLocked)
		e.emitAudit(ctx, EventLoginBlocked, audit.OutcomeBlocked, identifier, user.ID, err, nil)
		return LoginResult{}, err
	}

	if user.Status != StatusActive {
		err := autherr.Authentication(msgAccountInactive, ErrAccountInactive)
		e.metrics.Inc(MetricLoginInactive)
		e.emitAudit(ctx, EventLoginFailure, audit.OutcomeFailure, identifier, user.ID, err, func() map[string]string {
			return map[string]string{"status": string(user.Status)}
		})
		return LoginResult{}, err
	}

	ok, verr := e.hasher.Verify(password, user.PasswordHash)
	if verr != nil {
		e.logger.Error("stored password hash unreadable", zap.Int64("subject_id", user.ID), zap.Error(verr))
	}
	if !ok {
		return LoginResult{}, e.passwordMismatch(ctx, identifier, user)
	}

	return e.completeLogin(ctx, identifier, password, user, rememberMe)
}

func (e *Engine) passwordMismatch(ctx context.Context, identifier string, user UserRecord) error {
	status := e.lockout.RecordFailedAttempt(ctx, identifier, user.ID)
	e.mirror("increment_failed_login_attempts", user.ID, e.userProvider.IncrementFailedLoginAttempts(ctx, user.ID))

	if status.IsLocked {
		until := e.now().Add(e.lockout.Configuration().LockoutDuration())
		if status.LockoutExpiresAt != nil {
			until = *status.LockoutExpiresAt
		}
		e.mirror("lock_account_until", user.ID, e.userProvider.LockAccountUntil(ctx, user.ID, until))
		e.metrics.Inc(MetricAccountLocked)
		return e.loginFailed(ctx, identifier, user.ID, lockedError(status))
	}

	return e.loginFailed(ctx, identifier, user.ID, invalidCredentials())
}

func (e *Engine) completeLogin(ctx context.Context, identifier, password string, user UserRecord, rememberMe bool) (LoginResult, error) {
	e.lockout.ResetFailedAttempts(ctx, identifier, user.ID)
	e.mirror("reset_failed_login_attempts", user.ID, e.userProvider.ResetFailedLoginAttempts(ctx, user.ID))

	now := e.now()
	if err := e.userProvider.UpdateLastLogin(ctx, user.ID, now); err != nil {
		e.mirror("update_last_login", user.ID, err)
	} else {
		user.LastLogin = &now
	}
	user.FailedLoginAttempts = 0
	user.AccountLockedUntil = nil

	e.upgradeHash(ctx, password, user)

	pair, err := e.sessions.IssueTokenPair(ctx, user.payload(), rememberMe)
	if err != nil {
		e.logger.Error("token issuance failed", zap.Int64("subject_id", user.ID), zap.Error(err))
		return LoginResult{}, e.loginFailed(ctx, identifier, user.ID, autherr.Authentication(msgServiceUnavailable, err))
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.metrics.Inc(MetricSessionCreated)
	e.emitAudit(ctx, EventLoginSuccess, audit.OutcomeSuccess, identifier, user.ID, nil, func() map[string]string {
		return map[string]string{"remember_me": strconv.FormatBool(rememberMe)}
	})

	return LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.view(),
	}, nil
}

// upgradeHash rewrites a hash produced with older parameters or a legacy
// scheme. Best effort: the login already succeeded.
func (e *Engine) upgradeHash(ctx context.Context, password string, user UserRecord) {
	if !e.config.Password.UpgradeOnLogin {
		return
	}
	r, ok := e.hasher.(rehasher)
	if !ok || !r.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := e.hasher.Hash(password)
	if err != nil {
		e.logger.Warn("password rehash failed", zap.Int64("subject_id", user.ID), zap.Error(err))
		return
	}
	if err := e.userProvider.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		e.mirror("update_password_hash", user.ID, err)
		return
	}
	e.metrics.Inc(MetricPasswordRehashed)
	e.emitAudit(ctx, EventPasswordRehashed, audit.OutcomeSuccess, "", user.ID, nil, nil)
}

func (e *Engine) loginFailed(ctx context.Context, identifier string, subjectID int64, err error) error {
	if errors.Is(err, ErrAccountLocked) {
		e.emitAudit(ctx, EventLoginBlocked, audit.OutcomeBlocked, identifier, subjectID, err, nil)
		return err
	}
	e.metrics.Inc(MetricLoginFailure)
	e.emitAudit(ctx, EventLoginFailure, audit.OutcomeFailure, identifier, subjectID, err, nil)
	return err
}
