package schoolauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidkid7/SchoolManagementSystem-sub009/autherr"
	"github.com/vidkid7/SchoolManagementSystem-sub009/session"
)

func loginAlice(t *testing.T, f *engineFixture) LoginResult {
	t.Helper()
	res, err := f.engine.Login(context.Background(), "alice", alicePassword, false)
	require.NoError(t, err)
	return res
}

func TestRefreshAccessTokenRotatesAndRejectsReuse(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	res := loginAlice(t, f)

	first, err := f.engine.RefreshAccessToken(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, first.RefreshToken)

	_, err = f.engine.RefreshAccessToken(ctx, res.RefreshToken)
	require.Error(t, err)
	assert.True(t, autherr.IsAuthentication(err))
	assert.Equal(t, "Invalid refresh token", err.Error())

	second, err := f.engine.RefreshAccessToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEqual(t, res.RefreshToken, second.RefreshToken)

	snap := f.engine.MetricsSnapshot()
	assert.Equal(t, uint64(2), snap.Counters[MetricRefreshSuccess])
	assert.Equal(t, uint64(1), snap.Counters[MetricRefreshFailure])
	assert.Equal(t, uint64(1), snap.Counters[MetricRefreshReuseDetected])
}

func TestRefreshSuccessEventCarriesSubject(t *testing.T) {
	f := newEngineFixture(t)
	res := loginAlice(t, f)

	_, err := f.engine.RefreshAccessToken(context.Background(), res.RefreshToken)
	require.NoError(t, err)

	var refreshed []AuditEvent
	for _, ev := range f.drainEvents() {
		if ev.Event == EventRefreshSuccess {
			refreshed = append(refreshed, ev)
		}
	}
	require.Len(t, refreshed, 1)
	assert.Equal(t, aliceID, refreshed[0].SubjectID)
	assert.Equal(t, "standard", refreshed[0].Details["tier"])
}

func TestRefreshAccessTokenRejectsAccessToken(t *testing.T) {
	f := newEngineFixture(t)
	res := loginAlice(t, f)

	_, err := f.engine.RefreshAccessToken(context.Background(), res.AccessToken)
	require.Error(t, err)
	assert.True(t, autherr.IsAuthentication(err))

	_, err = f.engine.RefreshAccessToken(context.Background(), "not-a-token")
	assert.True(t, autherr.IsAuthentication(err))
}

func TestRefreshAccessTokenFailsClosedWhenStoreDown(t *testing.T) {
	f := newEngineFixture(t)
	res := loginAlice(t, f)
	f.mr.Close()

	_, err := f.engine.RefreshAccessToken(context.Background(), res.RefreshToken)
	require.Error(t, err)
	assert.True(t, autherr.IsAuthentication(err))
	assert.ErrorIs(t, err, session.ErrStoreUnavailable)
}

func TestRefreshAfterSecondLoginFails(t *testing.T) {
	f := newEngineFixture(t)
	first := loginAlice(t, f)
	_ = loginAlice(t, f)

	_, err := f.engine.RefreshAccessToken(context.Background(), first.RefreshToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrRefreshReused)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	f := newEngineFixture(t)
	res := loginAlice(t, f)

	require.NoError(t, f.engine.Logout(context.Background(), aliceID))
	assert.False(t, f.mr.Exists(session.Key(aliceID)))

	_, err := f.engine.RefreshAccessToken(context.Background(), res.RefreshToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrRefreshNotStored)

	// Access tokens stay valid until they expire.
	_, err = f.engine.ValidateAccessToken(context.Background(), res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.engine.Logout(context.Background(), aliceID))
}

func TestLogoutUnknownSubject(t *testing.T) {
	f := newEngineFixture(t)

	err := f.engine.Logout(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, autherr.IsNotFound(err))
	assert.Equal(t, "User not found", err.Error())
}

func TestLogoutReportsStoreFailure(t *testing.T) {
	f := newEngineFixture(t)
	loginAlice(t, f)
	f.mr.Close()

	err := f.engine.Logout(context.Background(), aliceID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionInvalidation)
}

func TestValidateAccessToken(t *testing.T) {
	f := newEngineFixture(t)
	res := loginAlice(t, f)
	ctx := context.Background()

	claims, err := f.engine.ValidateAccessToken(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, aliceID, claims.SubjectID)

	_, err = f.engine.ValidateAccessToken(ctx, res.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, "Invalid access token", err.Error())
	assert.ErrorIs(t, err, ErrAccessTokenInvalid)

	f.advance(16 * time.Minute)
	_, err = f.engine.ValidateAccessToken(ctx, res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, "Access token expired", err.Error())

	hist := f.engine.MetricsSnapshot().Histograms[MetricValidateLatency]
	var total uint64
	for _, n := range hist {
		total += n
	}
	assert.Equal(t, uint64(3), total)
}
