package schoolauth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vidkid7/SchoolManagementSystem-sub009/autherr"
	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/audit"
	"github.com/vidkid7/SchoolManagementSystem-sub009/jwt"
	"github.com/vidkid7/SchoolManagementSystem-sub009/session"
)

// RefreshAccessToken rotates refreshToken into a new pair of the same tier.
// Every failure is an authentication error; internal faults are wrapped
// under a generic message.
func (e *Engine) RefreshAccessToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	rotation, err := e.sessions.Rotate(ctx, refreshToken)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		if errors.Is(err, session.ErrRefreshReused) {
			e.metrics.Inc(MetricRefreshReuseDetected)
		}
		if !autherr.IsAuthentication(err) {
			err = autherr.Authentication(msgRefreshFailed, errors.Join(ErrRefreshFailed, err))
		}
		e.emitAudit(ctx, EventRefreshFailure, audit.OutcomeFailure, "", 0, err, func() map[string]string {
			return map[string]string{"reason": refreshReason(err)}
		})
		return TokenPair{}, err
	}

	e.metrics.Inc(MetricRefreshSuccess)
	e.emitAudit(ctx, EventRefreshSuccess, audit.OutcomeSuccess, "", rotation.SubjectID, nil, func() map[string]string {
		return map[string]string{"tier": string(rotation.Tier)}
	})
	return rotation.Pair, nil
}

func refreshReason(err error) string {
	switch {
	case errors.Is(err, session.ErrRefreshExpired):
		return "expired"
	case errors.Is(err, session.ErrRefreshNotStored):
		return "not_stored"
	case errors.Is(err, session.ErrRefreshReused):
		return "superseded"
	case errors.Is(err, session.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, session.ErrRefreshInvalid):
		return "invalid"
	default:
		return "internal"
	}
}

// Logout drops the subject's stored refresh token. Access tokens already
// issued stay valid until they expire.
func (e *Engine) Logout(ctx context.Context, subjectID int64) error {
	user, err := e.findUser(ctx, func() (UserRecord, error) {
		return e.userProvider.FindUserByID(ctx, subjectID)
	})
	if errors.Is(err, ErrUserNotFound) {
		return autherr.NotFound(msgUserNotFound, ErrUserNotFound)
	}
	if err != nil {
		return err
	}

	if err := e.invalidateSessions(user.ID, e.sessions.Invalidate(ctx, user.ID)); err != nil {
		e.emitAudit(ctx, EventLogout, audit.OutcomeFailure, "", user.ID, err, nil)
		return err
	}
	e.metrics.Inc(MetricLogout)
	e.emitAudit(ctx, EventLogout, audit.OutcomeSuccess, "", user.ID, nil, nil)
	return nil
}

// invalidateSessions turns a failed session delete into the public error.
// The stored refresh token stays usable until it expires in that case.
func (e *Engine) invalidateSessions(subjectID int64, err error) error {
	if err != nil {
		e.logger.Error("session invalidation failed",
			zap.Int64("subject_id", subjectID),
			zap.Error(err),
		)
		return autherr.Authentication(msgSessionInvalidation, errors.Join(ErrSessionInvalidation, err))
	}
	e.metrics.Inc(MetricSessionInvalidated)
	return nil
}

// ValidateAccessToken verifies an access token and returns its claims. It
// does not consult the store.
func (e *Engine) ValidateAccessToken(ctx context.Context, token string) (*Claims, error) {
	start := time.Now()
	defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()

	claims, err := e.codec.VerifyAccess(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherr.Authentication(msgExpiredAccessToken, errors.Join(ErrAccessTokenInvalid, err))
		}
		return nil, autherr.Authentication(msgInvalidAccessToken, errors.Join(ErrAccessTokenInvalid, err))
	}
	return claims, nil
}
