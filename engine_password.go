package schoolauth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vidkid7/SchoolManagementSystem-sub009/autherr"
	"github.com/vidkid7/SchoolManagementSystem-sub009/internal"
	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/audit"
	"github.com/vidkid7/SchoolManagementSystem-sub009/password"
)

// ChangePassword replaces the subject's password after verifying the
// current one, then invalidates every session of the subject. When that
// last step fails the new password is already stored and the returned
// error wraps ErrSessionInvalidation.
func (e *Engine) ChangePassword(ctx context.Context, subjectID int64, currentPassword, newPassword string) error {
	user, err := e.findUser(ctx, func() (UserRecord, error) {
		return e.userProvider.FindUserByID(ctx, subjectID)
	})
	if errors.Is(err, ErrUserNotFound) {
		return autherr.NotFound(msgUserNotFound, ErrUserNotFound)
	}
	if err != nil {
		return err
	}

	ok, verr := e.hasher.Verify(currentPassword, user.PasswordHash)
	if verr != nil {
		e.logger.Error("stored password hash unreadable", zap.Int64("subject_id", user.ID), zap.Error(verr))
	}
	if !ok {
		err := autherr.Authentication(msgCurrentPasswordWrong, ErrPasswordMismatch)
		e.metrics.Inc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, EventPasswordChangeFailure, audit.OutcomeFailure, "", user.ID, err, nil)
		return err
	}

	if newPassword == currentPassword {
		err := autherr.Validation(msgPasswordReuse, ErrPasswordReuse)
		e.metrics.Inc(MetricPasswordChangeReuseRejected)
		e.emitAudit(ctx, EventPasswordChangeFailure, audit.OutcomeFailure, "", user.ID, err, nil)
		return err
	}

	if err := e.storePassword(ctx, user.ID, newPassword); err != nil {
		e.emitAudit(ctx, EventPasswordChangeFailure, audit.OutcomeFailure, "", user.ID, err, nil)
		return err
	}

	if err := e.invalidateSessions(user.ID, e.sessions.InvalidateAll(ctx, user.ID)); err != nil {
		e.emitAudit(ctx, EventPasswordChangeFailure, audit.OutcomeFailure, "", user.ID, err, nil)
		return err
	}
	e.metrics.Inc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, EventPasswordChanged, audit.OutcomeSuccess, "", user.ID, nil, nil)
	return nil
}

// storePassword hashes and persists a new password.
func (e *Engine) storePassword(ctx context.Context, subjectID int64, newPassword string) error {
	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooShort) {
			return autherr.Validation(msgPasswordPolicy, errors.Join(ErrPasswordPolicy, err))
		}
		e.logger.Error("password hashing failed", zap.Int64("subject_id", subjectID), zap.Error(err))
		return autherr.Authentication(msgServiceUnavailable, err)
	}
	if err := e.userProvider.UpdatePasswordHash(ctx, subjectID, hash); err != nil {
		e.logger.Error("password update failed", zap.Int64("subject_id", subjectID), zap.Error(err))
		return providerError(err)
	}
	return nil
}

// ForgotPassword stores a single-use reset token for identifier and returns
// the raw token for out-of-band delivery. Unknown or inactive accounts get
// an empty token and no error.
func (e *Engine) ForgotPassword(ctx context.Context, identifier string) (string, error) {
	if !e.config.PasswordReset.Enabled {
		return "", autherr.Validation(msgResetDisabled, ErrPasswordResetDisabled)
	}

	user, err := e.findUser(ctx, func() (UserRecord, error) {
		return e.userProvider.FindUserByIdentifier(ctx, identifier)
	})
	if errors.Is(err, ErrUserNotFound) {
		e.metrics.Inc(MetricPasswordResetRequest)
		e.emitAudit(ctx, EventPasswordResetRequest, audit.OutcomeFailure, identifier, 0, ErrUserNotFound, nil)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	e.metrics.Inc(MetricPasswordResetRequest)
	if user.Status != StatusActive {
		e.emitAudit(ctx, EventPasswordResetRequest, audit.OutcomeFailure, identifier, user.ID, ErrAccountInactive, nil)
		return "", nil
	}

	token, hash, err := internal.NewResetToken(e.config.PasswordReset.TokenBytes)
	if err != nil {
		e.logger.Error("reset token generation failed", zap.Error(err))
		return "", autherr.Authentication(msgServiceUnavailable, err)
	}
	expires := e.now().Add(e.config.PasswordReset.TokenTTL)
	if err := e.userProvider.SetPasswordResetToken(ctx, user.ID, hash, expires); err != nil {
		e.logger.Error("reset token persist failed", zap.Int64("subject_id", user.ID), zap.Error(err))
		return "", providerError(err)
	}

	e.emitAudit(ctx, EventPasswordResetRequest, audit.OutcomeSuccess, identifier, user.ID, nil, func() map[string]string {
		return map[string]string{"expires_at": expires.UTC().Format(time.RFC3339)}
	})
	return token, nil
}

// ResetPassword consumes a reset token, sets the new password, clears any
// lockout on the account and invalidates every session.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword string) error {
	if !e.config.PasswordReset.Enabled {
		return autherr.Validation(msgResetDisabled, ErrPasswordResetDisabled)
	}

	invalid := autherr.Authentication(msgResetInvalid, ErrPasswordResetInvalid)
	if token == "" {
		return e.resetFailed(ctx, 0, invalid)
	}

	hash := internal.HashResetToken(token)
	user, err := e.findUser(ctx, func() (UserRecord, error) {
		return e.userProvider.FindUserByPasswordResetToken(ctx, hash)
	})
	if errors.Is(err, ErrUserNotFound) {
		return e.resetFailed(ctx, 0, invalid)
	}
	if err != nil {
		return err
	}
	if !internal.EqualHash(user.PasswordResetTokenHash, hash) {
		return e.resetFailed(ctx, user.ID, invalid)
	}
	if user.PasswordResetExpires == nil || !e.now().Before(*user.PasswordResetExpires) {
		e.mirror("clear_password_reset_token", user.ID, e.userProvider.ClearPasswordResetToken(ctx, user.ID))
		return e.resetFailed(ctx, user.ID, invalid)
	}

	same, verr := e.hasher.Verify(newPassword, user.PasswordHash)
	if verr != nil {
		e.logger.Error("stored password hash unreadable", zap.Int64("subject_id", user.ID), zap.Error(verr))
	}
	if same {
		return e.resetFailed(ctx, user.ID, autherr.Validation(msgPasswordReuse, ErrPasswordReuse))
	}

	if err := e.storePassword(ctx, user.ID, newPassword); err != nil {
		return e.resetFailed(ctx, user.ID, err)
	}
	e.mirror("clear_password_reset_token", user.ID, e.userProvider.ClearPasswordResetToken(ctx, user.ID))

	for _, id := range lockoutIdentifiers(user) {
		e.lockout.ResetFailedAttempts(ctx, id, user.ID)
	}
	e.mirror("reset_failed_login_attempts", user.ID, e.userProvider.ResetFailedLoginAttempts(ctx, user.ID))

	if err := e.invalidateSessions(user.ID, e.sessions.InvalidateAll(ctx, user.ID)); err != nil {
		return e.resetFailed(ctx, user.ID, err)
	}
	e.metrics.Inc(MetricPasswordResetConfirmSuccess)
	e.emitAudit(ctx, EventPasswordReset, audit.OutcomeSuccess, "", user.ID, nil, nil)
	return nil
}

func (e *Engine) resetFailed(ctx context.Context, subjectID int64, err error) error {
	e.metrics.Inc(MetricPasswordResetConfirmFailure)
	e.emitAudit(ctx, EventPasswordResetFailure, audit.OutcomeFailure, "", subjectID, err, nil)
	return err
}

// lockoutIdentifiers lists the identifiers a user can log in with. The
// tracker keys by the identifier as supplied, so both are cleared.
func lockoutIdentifiers(user UserRecord) []string {
	ids := make([]string, 0, 2)
	if user.Username != "" {
		ids = append(ids, user.Username)
	}
	if user.Email != "" && user.Email != user.Username {
		ids = append(ids, user.Email)
	}
	return ids
}
