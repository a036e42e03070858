package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAccessSecret  = []byte("access-secret-0123456789")
	testRefreshSecret = []byte("refresh-secret-0123456789")
)

func testPayload() Payload {
	return Payload{
		SubjectID:   42,
		Username:    "alice",
		Email:       "alice@school.test",
		Role:        "teacher",
		Permissions: []string{"attendance.write"},
	}
}

func newTestManager(t *testing.T, mutate func(*Config)) *Manager {
	t.Helper()

	cfg := Config{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		Issuer:        "school-auth",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestNewManagerRejectsBadSecrets(t *testing.T) {
	_, err := NewManager(Config{AccessSecret: testAccessSecret, RefreshSecret: testAccessSecret, AccessTTL: time.Minute})
	require.Error(t, err)

	_, err = NewManager(Config{AccessSecret: []byte("short"), RefreshSecret: testRefreshSecret, AccessTTL: time.Minute})
	require.Error(t, err)

	_, err = NewManager(Config{AccessSecret: testAccessSecret, RefreshSecret: testRefreshSecret})
	require.Error(t, err)
}

func TestAccessRoundTrip(t *testing.T) {
	m := newTestManager(t, nil)

	token, err := m.IssueAccess(testPayload())
	require.NoError(t, err)

	claims, err := m.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, testPayload(), claims.Payload())
	assert.Equal(t, TypeAccess, claims.TokenType)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestRefreshTierLifetimes(t *testing.T) {
	m := newTestManager(t, nil)

	cases := []struct {
		tier Tier
		want int64
	}{
		{TierStandard, 604800},
		{TierRememberMe, 2592000},
		{TierExtended, 7776000},
	}
	for _, tc := range cases {
		t.Run(string(tc.tier), func(t *testing.T) {
			token, err := m.IssueRefresh(testPayload(), tc.tier)
			require.NoError(t, err)

			claims, err := m.VerifyRefresh(token)
			require.NoError(t, err)
			lifetime := claims.ExpiresAt.Unix() - claims.IssuedAt.Unix()
			assert.InDelta(t, tc.want, lifetime, 1)
			assert.Equal(t, tc.tier, claims.Tier)
		})
	}
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	m := newTestManager(t, nil)

	access, err := m.IssueAccess(testPayload())
	require.NoError(t, err)
	refresh, err := m.IssueRefresh(testPayload(), TierStandard)
	require.NoError(t, err)

	_, err = m.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = m.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenTypeClaimIsEnforced(t *testing.T) {
	m := newTestManager(t, nil)

	// A refresh-typed payload signed with the access secret must still be rejected.
	claims := Claims{
		SubjectID: 42,
		TokenType: TypeRefresh,
		RegisteredClaims: gjwt.RegisteredClaims{
			Issuer:    "school-auth",
			IssuedAt:  gjwt.NewNumericDate(time.Now()),
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testAccessSecret)
	require.NoError(t, err)

	_, err = m.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestExpiredTokenReportsExpired(t *testing.T) {
	now := time.Now()
	m := newTestManager(t, func(c *Config) { c.Now = func() time.Time { return now } })

	token, err := m.IssueAccess(testPayload())
	require.NoError(t, err)

	now = now.Add(16 * time.Minute)
	_, err = m.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.False(t, errors.Is(err, ErrTokenInvalid))
}

func TestRejectsWrongAlgorithm(t *testing.T) {
	m := newTestManager(t, nil)

	claims := Claims{
		SubjectID: 42,
		TokenType: TypeAccess,
		RegisteredClaims: gjwt.RegisteredClaims{
			Issuer:    "school-auth",
			IssuedAt:  gjwt.NewNumericDate(time.Now()),
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS384, claims).SignedString(testAccessSecret)
	require.NoError(t, err)

	_, err = m.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTamperedSignatureRejected(t *testing.T) {
	m := newTestManager(t, nil)

	token, err := m.IssueAccess(testPayload())
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = m.VerifyAccess(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssuerMismatchRejected(t *testing.T) {
	issuer := newTestManager(t, func(c *Config) { c.Issuer = "other" })
	verifier := newTestManager(t, nil)

	token, err := issuer.IssueAccess(testPayload())
	require.NoError(t, err)
	_, err = verifier.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokensInSameSecondAreDistinct(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	m := newTestManager(t, func(c *Config) { c.Now = func() time.Time { return fixed } })

	a, err := m.IssueRefresh(testPayload(), TierStandard)
	require.NoError(t, err)
	b, err := m.IssueRefresh(testPayload(), TierStandard)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestUnknownTierFallsBackToStandard(t *testing.T) {
	m := newTestManager(t, nil)

	token, err := m.IssueRefresh(testPayload(), Tier("forever"))
	require.NoError(t, err)
	claims, err := m.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, TierStandard, claims.Tier)
}

func TestEmptyTokenInvalid(t *testing.T) {
	m := newTestManager(t, nil)
	_, err := m.VerifyRefresh("")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
