package schoolauth

import (
	"context"
	"errors"

	"github.com/vidkid7/SchoolManagementSystem-sub009/autherr"
)

// GetLockoutStatus reports the tracker's view of identifier. A store
// outage reads as unlocked.
func (e *Engine) GetLockoutStatus(ctx context.Context, identifier string) LockoutStatus {
	return e.lockout.CheckLockoutStatus(ctx, identifier)
}

// UnlockAccount clears identifier's counter and lockout flag on behalf of
// adminSubjectID, then clears the persisted mirror when the identifier
// resolves to a user.
func (e *Engine) UnlockAccount(ctx context.Context, identifier string, adminSubjectID int64) error {
	if err := e.lockout.UnlockAccount(ctx, identifier, adminSubjectID); err != nil {
		return autherr.Authentication(msgUnlockFailed, errors.Join(ErrLockoutUnavailable, err))
	}
	e.metrics.Inc(MetricAccountUnlocked)

	user, err := e.userProvider.FindUserByIdentifier(ctx, identifier)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			e.mirror("find_user_for_unlock", 0, err)
		}
		return nil
	}
	e.mirror("reset_failed_login_attempts", user.ID, e.userProvider.ResetFailedLoginAttempts(ctx, user.ID))
	return nil
}
