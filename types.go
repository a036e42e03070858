package schoolauth

import (
	"context"
	"time"

	"github.com/vidkid7/SchoolManagementSystem-sub009/jwt"
	"github.com/vidkid7/SchoolManagementSystem-sub009/lockout"
	"github.com/vidkid7/SchoolManagementSystem-sub009/session"
)

// UserStatus is the account lifecycle state kept on the user record.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusInactive  UserStatus = "inactive"
	StatusSuspended UserStatus = "suspended"
)

// UserRecord is the persisted account as seen by the engine. Sensitive
// fields never leave the engine; callers receive a [UserView].
type UserRecord struct {
	ID          int64
	Username    string
	Email       string
	Role        string
	Permissions []string
	Status      UserStatus

	PasswordHash string

	// Durable mirror of the lockout state. The tracker stays authoritative
	// for real-time decisions; the engine only writes this and checks the
	// lock as a secondary gate.
	FailedLoginAttempts int
	AccountLockedUntil  *time.Time
	LastLogin           *time.Time

	PasswordResetTokenHash string
	PasswordResetExpires   *time.Time
}

// UserView is the user projection returned from Login, stripped of
// credential and lockout fields.
type UserView struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions,omitempty"`
	Status      UserStatus `json:"status"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

func (u UserRecord) view() UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: append([]string(nil), u.Permissions...),
		Status:      u.Status,
		LastLogin:   u.LastLogin,
	}
}

func (u UserRecord) payload() jwt.Payload {
	return jwt.Payload{
		SubjectID:   u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: append([]string(nil), u.Permissions...),
	}
}

// UserProvider is the persistence collaborator. Lookups that match nothing
// must return an error satisfying errors.Is(err, ErrUserNotFound).
type UserProvider interface {
	// FindUserByIdentifier matches identifier against the email column when
	// it contains "@" and against the username column otherwise.
	FindUserByIdentifier(ctx context.Context, identifier string) (UserRecord, error)
	FindUserByID(ctx context.Context, id int64) (UserRecord, error)

	IncrementFailedLoginAttempts(ctx context.Context, id int64) error
	LockAccountUntil(ctx context.Context, id int64, until time.Time) error
	// ResetFailedLoginAttempts zeroes the mirrored counter and clears AccountLockedUntil.
	ResetFailedLoginAttempts(ctx context.Context, id int64) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error

	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	SetPasswordResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error
	FindUserByPasswordResetToken(ctx context.Context, tokenHash string) (UserRecord, error)
	ClearPasswordResetToken(ctx context.Context, id int64) error
}

// PasswordHasher hashes and verifies passwords. The password package
// provides Argon2id, bcrypt and a multi-format implementation.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// rehasher is implemented by hashers that can flag outdated hashes.
type rehasher interface {
	NeedsRehash(encodedHash string) bool
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         UserView `json:"user"`
}

type (
	// TokenPair is an access/refresh token pair.
	TokenPair = session.TokenPair
	// Claims is a verified access token's claim set.
	Claims = jwt.Claims
	// LockoutStatus describes an identifier's lockout state.
	LockoutStatus = lockout.Status
	// LockoutPolicy is the numeric lockout configuration.
	LockoutPolicy = lockout.Policy
)
