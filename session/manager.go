package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"

	"github.com/vidkid7/SchoolManagementSystem-sub009/autherr"
	"github.com/vidkid7/SchoolManagementSystem-sub009/jwt"
	"github.com/vidkid7/SchoolManagementSystem-sub009/store"
	"go.uber.org/zap"
)

const keyPrefix = "refresh_token:"

var (
	// ErrRefreshInvalid is the reason behind a refresh token that failed verification.
	ErrRefreshInvalid = errors.New("refresh token invalid")
	// ErrRefreshExpired is the reason behind an expired refresh token.
	ErrRefreshExpired = errors.New("refresh token expired")
	// ErrRefreshNotStored means no session exists for the subject.
	ErrRefreshNotStored = errors.New("refresh token not stored")
	// ErrRefreshReused means the token verified but was superseded by a rotation.
	ErrRefreshReused = errors.New("refresh token superseded")
	// ErrStoreUnavailable is the reason when the session store could not be read.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrInvalidationFailed is returned when a stored token could not be deleted.
	ErrInvalidationFailed = errors.New("session invalidation failed")
)

const (
	msgInvalidRefresh = "Invalid refresh token"
	msgExpiredRefresh = "Refresh token expired"
)

// TokenPair is what a login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Key returns the store key holding subjectID's refresh token.
func Key(subjectID int64) string {
	return keyPrefix + strconv.FormatInt(subjectID, 10)
}

// Manager issues, rotates and revokes token pairs.
type Manager struct {
	codec  *jwt.Manager
	store  store.Store
	logger *zap.Logger
}

// NewManager wires the codec and the store. A nil logger discards output.
func NewManager(codec *jwt.Manager, s store.Store, logger *zap.Logger) (*Manager, error) {
	if codec == nil {
		return nil, errors.New("session: token codec is required")
	}
	if s == nil {
		return nil, errors.New("session: store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{codec: codec, store: s, logger: logger.Named("session")}, nil
}

// IssueTokenPair signs both tokens and records the refresh token, using
// the remember-me tier when rememberMe is set.
func (m *Manager) IssueTokenPair(ctx context.Context, p jwt.Payload, rememberMe bool) (TokenPair, error) {
	tier := jwt.TierStandard
	if rememberMe {
		tier = jwt.TierRememberMe
	}
	return m.IssueTokenPairWithTier(ctx, p, tier)
}

// IssueTokenPairWithTier is IssueTokenPair with an explicit tier.
func (m *Manager) IssueTokenPairWithTier(ctx context.Context, p jwt.Payload, tier jwt.Tier) (TokenPair, error) {
	if !tier.Valid() {
		tier = jwt.TierStandard
	}

	access, err := m.codec.IssueAccess(p)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.codec.IssueRefresh(p, tier)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := m.store.Set(ctx, Key(p.SubjectID), refresh, m.codec.RefreshTTL(tier)); err != nil {
		// Tokens stay usable; only server-side revocation is lost for this pair.
		m.logger.Warn("refresh token not persisted",
			zap.Int64("subject_id", p.SubjectID),
			zap.String("tier", string(tier)),
			zap.Error(err),
		)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotation is the outcome of a successful refresh: the new pair plus the
// subject and tier taken from the verified old token.
type Rotation struct {
	Pair      TokenPair
	SubjectID int64
	Tier      jwt.Tier
}

// Refresh exchanges a current refresh token for a new pair of the same
// tier. All failures are autherr authentication errors; a store outage is
// reported as an invalid token.
func (m *Manager) Refresh(ctx context.Context, oldRefreshToken string) (TokenPair, error) {
	r, err := m.Rotate(ctx, oldRefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	return r.Pair, nil
}

// Rotate is Refresh that also reports who the rotated session belongs to.
func (m *Manager) Rotate(ctx context.Context, oldRefreshToken string) (Rotation, error) {
	claims, err := m.codec.VerifyRefresh(oldRefreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Rotation{}, autherr.Authentication(msgExpiredRefresh, ErrRefreshExpired)
		}
		return Rotation{}, autherr.Authentication(msgInvalidRefresh, ErrRefreshInvalid)
	}

	stored, err := m.store.Get(ctx, Key(claims.SubjectID))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Rotation{}, autherr.Authentication(msgInvalidRefresh, ErrRefreshNotStored)
	case err != nil:
		m.logger.Warn("refresh denied, session store unavailable",
			zap.Int64("subject_id", claims.SubjectID),
			zap.Error(err),
		)
		return Rotation{}, autherr.Authentication(msgInvalidRefresh, ErrStoreUnavailable)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(oldRefreshToken)) != 1 {
		m.logger.Warn("superseded refresh token presented", zap.Int64("subject_id", claims.SubjectID))
		return Rotation{}, autherr.Authentication(msgInvalidRefresh, ErrRefreshReused)
	}

	pair, err := m.IssueTokenPairWithTier(ctx, claims.Payload(), claims.Tier)
	if err != nil {
		return Rotation{}, err
	}
	return Rotation{Pair: pair, SubjectID: claims.SubjectID, Tier: claims.Tier}, nil
}

// Invalidate deletes the subject's stored refresh token. Missing tokens are fine.
func (m *Manager) Invalidate(ctx context.Context, subjectID int64) error {
	if err := m.store.Del(ctx, Key(subjectID)); err != nil {
		m.logger.Error("session invalidation failed", zap.Int64("subject_id", subjectID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidationFailed, err)
	}
	return nil
}

// InvalidateAll forces every outstanding session of the subject to
// re-authenticate. With one session per subject it is the same delete as
// Invalidate.
func (m *Manager) InvalidateAll(ctx context.Context, subjectID int64) error {
	return m.Invalidate(ctx, subjectID)
}

// IsStoreAvailable pings the store. It is for diagnostics only.
func (m *Manager) IsStoreAvailable(ctx context.Context) bool {
	return m.store.Ping(ctx) == nil
}
