package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned when a token's exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, malformed tokens and wrong token types.
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenType separates the access and refresh namespaces inside the payload.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// Tier selects a refresh token lifetime.
type Tier string

const (
	// TierStandard is the default login lifetime.
	TierStandard Tier = "standard"
	// TierRememberMe is used when the user ticks "remember me".
	TierRememberMe Tier = "remember_me"
	// TierExtended is reserved for explicitly long-lived sessions.
	TierExtended Tier = "extended"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierStandard, TierRememberMe, TierExtended:
		return true
	}
	return false
}

const minSecretBytes = 16

// Config holds the codec settings. Zero refresh lifetimes take the defaults
// (7, 30 and 90 days).
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte

	AccessTTL            time.Duration
	RefreshTTL           time.Duration
	RememberMeRefreshTTL time.Duration
	ExtendedRefreshTTL   time.Duration

	Issuer   string
	Audience string
	Leeway   time.Duration

	// Now overrides the clock used for iat/exp and verification.
	Now func() time.Time
}

// Payload is the identity embedded in both token kinds.
type Payload struct {
	SubjectID   int64
	Username    string
	Email       string
	Role        string
	Permissions []string
}

// Claims is the signed claim set.
type Claims struct {
	SubjectID   int64     `json:"uid"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions,omitempty"`
	TokenType   TokenType `json:"typ"`
	Tier        Tier      `json:"tier,omitempty"`
	jwt.RegisteredClaims
}

// Payload strips the token metadata off c.
func (c *Claims) Payload() Payload {
	return Payload{
		SubjectID:   c.SubjectID,
		Username:    c.Username,
		Email:       c.Email,
		Role:        c.Role,
		Permissions: append([]string(nil), c.Permissions...),
	}
}

// Manager issues and verifies tokens. It is safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and fills lifetime defaults.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) < minSecretBytes || len(cfg.RefreshSecret) < minSecretBytes {
		return nil, fmt.Errorf("token secrets must be at least %d bytes", minSecretBytes)
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid access TTL configuration")
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.RememberMeRefreshTTL == 0 {
		cfg.RememberMeRefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.ExtendedRefreshTTL == 0 {
		cfg.ExtendedRefreshTTL = 90 * 24 * time.Hour
	}
	if cfg.RefreshTTL < 0 || cfg.RememberMeRefreshTTL < 0 || cfg.ExtendedRefreshTTL < 0 {
		return nil, errors.New("invalid refresh TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{config: cfg}, nil
}

// AccessTTL returns the configured access token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// RefreshTTL returns the lifetime for tier. Unknown tiers map to standard.
func (m *Manager) RefreshTTL(tier Tier) time.Duration {
	switch tier {
	case TierRememberMe:
		return m.config.RememberMeRefreshTTL
	case TierExtended:
		return m.config.ExtendedRefreshTTL
	default:
		return m.config.RefreshTTL
	}
}

// IssueAccess signs an access token for p.
func (m *Manager) IssueAccess(p Payload) (string, error) {
	return m.issue(p, TypeAccess, "", m.config.AccessTTL, m.config.AccessSecret)
}

// IssueRefresh signs a refresh token for p with the lifetime of tier.
func (m *Manager) IssueRefresh(p Payload, tier Tier) (string, error) {
	if !tier.Valid() {
		tier = TierStandard
	}
	return m.issue(p, TypeRefresh, tier, m.RefreshTTL(tier), m.config.RefreshSecret)
}

func (m *Manager) issue(p Payload, typ TokenType, tier Tier, ttl time.Duration, secret []byte) (string, error) {
	now := m.config.Now()
	claims := Claims{
		SubjectID:   p.SubjectID,
		Username:    p.Username,
		Email:       p.Email,
		Role:        p.Role,
		Permissions: p.Permissions,
		TokenType:   typ,
		Tier:        tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.SubjectID, 10),
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// jti keeps tokens signed within the same second distinct.
			ID: uuid.NewString(),
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyAccess checks an access token against the access secret.
func (m *Manager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(token, TypeAccess, m.config.AccessSecret)
}

// VerifyRefresh checks a refresh token against the refresh secret.
func (m *Manager) VerifyRefresh(token string) (*Claims, error) {
	return m.verify(token, TypeRefresh, m.config.RefreshSecret)
}

func (m *Manager) verify(tokenStr string, want TokenType, secret []byte) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrTokenInvalid
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.config.Now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: unexpected token type %q", ErrTokenInvalid, claims.TokenType)
	}
	if claims.SubjectID <= 0 {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}
