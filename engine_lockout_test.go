package schoolauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidkid7/SchoolManagementSystem-sub009/lockout"
)

func TestGetLockoutStatusCountsDown(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	status := f.engine.GetLockoutStatus(ctx, "alice")
	assert.False(t, status.IsLocked)
	assert.Equal(t, 5, status.RemainingAttempts)

	_, _ = f.engine.Login(ctx, "alice", "wrong-password", false)
	_, _ = f.engine.Login(ctx, "alice", "wrong-password", false)

	status = f.engine.GetLockoutStatus(ctx, "alice")
	assert.False(t, status.IsLocked)
	assert.Equal(t, 2, status.FailedAttempts)
	assert.Equal(t, 3, status.RemainingAttempts)
}

func TestUnlockAccountClearsTrackerAndMirror(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = f.engine.Login(ctx, "alice", "wrong-password", false)
	}
	require.True(t, f.engine.GetLockoutStatus(ctx, "alice").IsLocked)
	require.NotNil(t, f.users.get(aliceID).AccountLockedUntil)

	require.NoError(t, f.engine.UnlockAccount(ctx, "alice", 1))

	status := f.engine.GetLockoutStatus(ctx, "alice")
	assert.False(t, status.IsLocked)
	assert.Zero(t, status.FailedAttempts)
	assert.False(t, f.mr.Exists(lockout.LockoutKey("alice")))
	assert.Nil(t, f.users.get(aliceID).AccountLockedUntil)
	assert.Zero(t, f.users.get(aliceID).FailedLoginAttempts)

	_, err := f.engine.Login(ctx, "alice", alicePassword, false)
	require.NoError(t, err)

	var found bool
	for _, ev := range f.drainEvents() {
		if ev.Event == EventUnlockedByAdmin {
			found = true
			assert.Equal(t, "1", ev.Details["admin_id"])
			assert.Equal(t, "alice", ev.Identifier)
		}
	}
	assert.True(t, found)
}

func TestUnlockAccountUnknownIdentifier(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.engine.UnlockAccount(context.Background(), "nobody", 1))
	assert.Zero(t, f.users.resetCalls)
}

func TestUnlockAccountStoreDown(t *testing.T) {
	f := newEngineFixture(t)
	f.mr.Close()

	err := f.engine.UnlockAccount(context.Background(), "alice", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockoutUnavailable)
	assert.Equal(t, "Failed to unlock account", err.Error())
}

func TestGetLockoutStatusFailsOpen(t *testing.T) {
	f := newEngineFixture(t)
	f.mr.Close()

	status := f.engine.GetLockoutStatus(context.Background(), "alice")
	assert.Equal(t, LockoutStatus{IsLocked: false, FailedAttempts: 0, RemainingAttempts: 5}, status)
}

func TestLockoutConfiguration(t *testing.T) {
	f := newEngineFixture(t)
	assert.Equal(t, LockoutPolicy{MaxFailedAttempts: 5, AttemptWindowSeconds: 900, LockoutDurationSeconds: 900}, f.engine.LockoutConfiguration())
}
