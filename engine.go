package schoolauth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vidkid7/SchoolManagementSystem-sub009/autherr"
	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/audit"
	"github.com/vidkid7/SchoolManagementSystem-sub009/jwt"
	"github.com/vidkid7/SchoolManagementSystem-sub009/lockout"
	"github.com/vidkid7/SchoolManagementSystem-sub009/session"
)

// Engine sequences lockout checks, credential verification and session
// issuance. It is safe for concurrent use; all mutable state lives in the
// key-value store and the user provider.
type Engine struct {
	config       Config
	userProvider UserProvider
	hasher       PasswordHasher
	codec        *jwt.Manager
	sessions     *session.Manager
	lockout      *lockout.Tracker
	audit        *audit.Dispatcher
	metrics      *Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// Close drains pending audit events. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports audit events lost to a full dispatcher buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the in-process counters; empty when metrics are off.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// LockoutConfiguration returns the numeric lockout policy.
func (e *Engine) LockoutConfiguration() LockoutPolicy {
	return e.lockout.Configuration()
}

// SessionStoreAvailable pings the key-value store. Diagnostics only; no
// engine flow is gated on it.
func (e *Engine) SessionStoreAvailable(ctx context.Context) bool {
	return e.sessions.IsStoreAvailable(ctx)
}

// findUser maps provider failures onto the public error kinds. A missing
// user is returned as ErrUserNotFound so callers can pick their own message.
func (e *Engine) findUser(ctx context.Context, lookup func() (UserRecord, error)) (UserRecord, error) {
	user, err := lookup()
	if err == nil {
		return user, nil
	}
	if errors.Is(err, ErrUserNotFound) {
		return UserRecord{}, ErrUserNotFound
	}
	e.logger.Error("user provider lookup failed", zap.Error(err))
	return UserRecord{}, providerError(err)
}

func providerError(err error) error {
	return autherr.Authentication(msgServiceUnavailable, errors.Join(ErrProviderUnavailable, err))
}

// mirror runs a best-effort write against the persisted lockout mirror.
// Failures are logged and never change the outcome of the flow.
func (e *Engine) mirror(op string, subjectID int64, err error) {
	if err == nil {
		return
	}
	e.logger.Warn("persisted user update failed",
		zap.String("op", op),
		zap.Int64("subject_id", subjectID),
		zap.Error(err),
	)
}
