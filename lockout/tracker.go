package lockout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/audit"
	"github.com/vidkid7/SchoolManagementSystem-sub009/store"
	"go.uber.org/zap"
)

const (
	attemptsKeyPrefix = "failed_login_attempts:"
	lockoutKeyPrefix  = "account_lockout:"
)

// Audit event names emitted by the tracker.
const (
	EventFailedAttempt   = "login_failed_attempt"
	EventAccountLocked   = "account_locked"
	EventLockoutReset    = "lockout_reset"
	EventUnlockedByAdmin = "account_unlocked_by_admin"
)

// ErrUnavailable is returned by UnlockAccount when the store rejected the delete.
var ErrUnavailable = errors.New("lockout backend unavailable")

// AttemptsKey is the store key of an identifier's failure counter.
func AttemptsKey(identifier string) string { return attemptsKeyPrefix + identifier }

// LockoutKey is the store key of an identifier's lockout flag.
func LockoutKey(identifier string) string { return lockoutKeyPrefix + identifier }

// Tracker counts failed logins per identifier and derives the lock state.
// Identifiers are used exactly as supplied, case included.
type Tracker struct {
	store  store.Store
	policy Policy
	sink   audit.Sink
	logger *zap.Logger
	now    func() time.Time
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(t *Tracker) { t.policy = p }
}

// WithAuditSink receives one event per recorded failure, reset and unlock.
func WithAuditSink(sink audit.Sink) Option {
	return func(t *Tracker) {
		if sink != nil {
			t.sink = sink
		}
	}
}

// WithLogger sets the logger used for store degradation warnings.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker builds a tracker over s.
func NewTracker(s store.Store, opts ...Option) (*Tracker, error) {
	if s == nil {
		return nil, errors.New("lockout: store is required")
	}
	t := &Tracker{
		store:  s,
		policy: DefaultPolicy(),
		sink:   audit.NoOpSink{},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.policy.Validate(); err != nil {
		return nil, err
	}
	t.logger = t.logger.Named("lockout")
	return t, nil
}

// Configuration returns the active policy.
func (t *Tracker) Configuration() Policy {
	return t.policy
}

// RecordFailedAttempt counts one failure for identifier. When the count
// reaches the threshold the lockout flag is written and the returned status
// is locked. subjectID is only used for the audit record and may be zero
// when the identifier matched no user.
func (t *Tracker) RecordFailedAttempt(ctx context.Context, identifier string, subjectID int64) Status {
	key := AttemptsKey(identifier)

	count, err := t.store.Incr(ctx, key)
	if err != nil {
		t.degraded("record failed attempt", identifier, err)
		return t.optimistic()
	}

	// Window is anchored to the first failure: TTL only on 0->1.
	if count == 1 {
		if err := t.store.Expire(ctx, key, t.policy.AttemptWindow()); err != nil {
			t.degraded("set attempt window", identifier, err)
		}
	}

	failed := int(count)
	if failed < t.policy.MaxFailedAttempts {
		status := unlockedStatus(t.policy, failed)
		t.emit(ctx, EventFailedAttempt, audit.OutcomeFailure, identifier, subjectID, func() map[string]string {
			return map[string]string{
				"failed_attempts":    strconv.Itoa(status.FailedAttempts),
				"remaining_attempts": strconv.Itoa(status.RemainingAttempts),
			}
		})
		return status
	}

	now := t.now()
	expiresAt := now.Add(t.policy.LockoutDuration()).UTC()
	if err := t.store.Set(ctx, LockoutKey(identifier), expiresAt.Format(time.RFC3339Nano), t.policy.LockoutDuration()); err != nil {
		// The counter already crossed the threshold; report locked even if the flag write failed.
		t.degraded("write lockout flag", identifier, err)
	}

	status := lockedStatus(failed, expiresAt, now)
	t.logger.Warn("account locked",
		zap.String("identifier", identifier),
		zap.Int64("subject_id", subjectID),
		zap.Int("failed_attempts", failed),
		zap.Time("expires_at", expiresAt),
	)
	t.emit(ctx, EventAccountLocked, audit.OutcomeBlocked, identifier, subjectID, func() map[string]string {
		return map[string]string{
			"failed_attempts": strconv.Itoa(failed),
			"expires_at":      expiresAt.Format(time.RFC3339),
		}
	})
	return status
}

// CheckLockoutStatus is read-only. The flag's embedded expiry is compared
// with the clock even while the key itself survives.
func (t *Tracker) CheckLockoutStatus(ctx context.Context, identifier string) Status {
	raw, err := t.store.Get(ctx, LockoutKey(identifier))
	switch {
	case err == nil:
		now := t.now()
		expiresAt, perr := time.Parse(time.RFC3339Nano, raw)
		if perr != nil {
			// Unreadable flag: honor it for a full lockout period.
			t.logger.Warn("unparsable lockout flag", zap.String("identifier", identifier), zap.String("value", raw))
			failed, ok := t.attempts(ctx, identifier)
			if !ok {
				failed = t.policy.MaxFailedAttempts
			}
			return lockedStatus(failed, now.Add(t.policy.LockoutDuration()).UTC(), now)
		}
		if now.Before(expiresAt) {
			failed, ok := t.attempts(ctx, identifier)
			if !ok {
				failed = t.policy.MaxFailedAttempts
			}
			return lockedStatus(failed, expiresAt, now)
		}
		// Logically expired flag: report unlocked and leave the row to its TTL.
	case errors.Is(err, store.ErrNotFound):
	default:
		t.degraded("check lockout status", identifier, err)
		return t.optimistic()
	}

	failed, ok := t.attempts(ctx, identifier)
	if !ok {
		return t.optimistic()
	}
	return unlockedStatus(t.policy, failed)
}

// ResetFailedAttempts removes both keys. It never fails; store errors are logged.
func (t *Tracker) ResetFailedAttempts(ctx context.Context, identifier string, subjectID int64) {
	if err := t.store.Del(ctx, AttemptsKey(identifier), LockoutKey(identifier)); err != nil {
		t.degraded("reset failed attempts", identifier, err)
		return
	}
	t.emit(ctx, EventLockoutReset, audit.OutcomeSuccess, identifier, subjectID, nil)
}

// UnlockAccount is the administrative override. It clears both keys and
// records adminSubjectID in a dedicated audit event.
func (t *Tracker) UnlockAccount(ctx context.Context, identifier string, adminSubjectID int64) error {
	err := t.store.Del(ctx, AttemptsKey(identifier), LockoutKey(identifier))

	outcome := audit.OutcomeSuccess
	if err != nil {
		outcome = audit.OutcomeFailure
	}
	t.emit(ctx, EventUnlockedByAdmin, outcome, identifier, 0, func() map[string]string {
		return map[string]string{"admin_id": strconv.FormatInt(adminSubjectID, 10)}
	})

	if err != nil {
		t.logger.Error("admin unlock failed",
			zap.String("identifier", identifier),
			zap.Int64("admin_id", adminSubjectID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	t.logger.Info("account unlocked by admin", zap.String("identifier", identifier), zap.Int64("admin_id", adminSubjectID))
	return nil
}

// attempts reads the counter. ok is false only when the store failed.
func (t *Tracker) attempts(ctx context.Context, identifier string) (int, bool) {
	raw, err := t.store.Get(ctx, AttemptsKey(identifier))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, true
		}
		t.degraded("read failed attempts", identifier, err)
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		t.logger.Warn("unparsable attempt counter", zap.String("identifier", identifier), zap.String("value", raw))
		return 0, true
	}
	return n, true
}

func (t *Tracker) optimistic() Status {
	return unlockedStatus(t.policy, 0)
}

func (t *Tracker) degraded(op, identifier string, err error) {
	t.logger.Warn("lockout store unavailable, failing open",
		zap.String("op", op),
		zap.String("identifier", identifier),
		zap.Error(err),
	)
}

func (t *Tracker) emit(
	ctx context.Context,
	event string,
	outcome audit.Outcome,
	identifier string,
	subjectID int64,
	detailsBuilder func() map[string]string,
) {
	var details map[string]string
	if detailsBuilder != nil {
		details = detailsBuilder()
	}
	t.sink.Emit(ctx, audit.Event{
		Timestamp:  t.now().UTC(),
		Event:      event,
		SubjectID:  subjectID,
		Identifier: identifier,
		Outcome:    outcome,
		IP:         audit.ClientIP(ctx),
		Details:    details,
	})
}
