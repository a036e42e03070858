package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	schoolauth "github.com/vidkid7/SchoolManagementSystem-sub009"
)

var _ schoolauth.UserProvider = (*Provider)(nil)

// Provider reads and updates the users table.
type Provider struct {
	db *DB
}

func NewProvider(db *DB) *Provider { return &Provider{db: db} }

const userColumns = `id, username, email, role, permissions, status, password_hash,
       failed_login_attempts, account_locked_until, last_login,
       COALESCE(password_reset_token_hash, ''), password_reset_expires`

const (
	qUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = $1;`
	qUserByEmail    = `SELECT ` + userColumns + ` FROM users WHERE email = $1;`
	qUserByID       = `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	qUserByReset    = `SELECT ` + userColumns + ` FROM users WHERE password_reset_token_hash = $1;`

	qIncrementFailed = `
UPDATE users
SET failed_login_attempts = failed_login_attempts + 1,
    updated_at            = NOW()
WHERE id = $1;`

	qLockUntil = `
UPDATE users
SET account_locked_until = $2,
    updated_at           = NOW()
WHERE id = $1;`

	qResetFailed = `
UPDATE users
SET failed_login_attempts = 0,
    account_locked_until  = NULL,
    updated_at            = NOW()
WHERE id = $1;`

	qLastLogin = `
UPDATE users
SET last_login = $2,
    updated_at = NOW()
WHERE id = $1;`

	qPasswordHash = `
UPDATE users
SET password_hash = $2,
    updated_at    = NOW()
WHERE id = $1;`

	qSetReset = `
UPDATE users
SET password_reset_token_hash = $2,
    password_reset_expires    = $3,
    updated_at                = NOW()
WHERE id = $1;`

	qClearReset = `
UPDATE users
SET password_reset_token_hash = NULL,
    password_reset_expires    = NULL,
    updated_at                = NOW()
WHERE id = $1;`
)

// identifierQuery picks the lookup column: email when identifier holds "@".
func identifierQuery(identifier string) string {
	if strings.Contains(identifier, "@") {
		return qUserByEmail
	}
	return qUserByUsername
}

func (p *Provider) FindUserByIdentifier(ctx context.Context, identifier string) (schoolauth.UserRecord, error) {
	return p.queryUser(ctx, identifierQuery(identifier), identifier)
}

func (p *Provider) FindUserByID(ctx context.Context, id int64) (schoolauth.UserRecord, error) {
	return p.queryUser(ctx, qUserByID, id)
}

func (p *Provider) FindUserByPasswordResetToken(ctx context.Context, tokenHash string) (schoolauth.UserRecord, error) {
	return p.queryUser(ctx, qUserByReset, tokenHash)
}

func (p *Provider) IncrementFailedLoginAttempts(ctx context.Context, id int64) error {
	return p.exec(ctx, "increment failed attempts", qIncrementFailed, id)
}

func (p *Provider) LockAccountUntil(ctx context.Context, id int64, until time.Time) error {
	return p.exec(ctx, "lock account", qLockUntil, id, until)
}

func (p *Provider) ResetFailedLoginAttempts(ctx context.Context, id int64) error {
	return p.exec(ctx, "reset failed attempts", qResetFailed, id)
}

func (p *Provider) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return p.exec(ctx, "update last login", qLastLogin, id, at)
}

func (p *Provider) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return p.exec(ctx, "update password hash", qPasswordHash, id, hash)
}

func (p *Provider) SetPasswordResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	return p.exec(ctx, "set reset token", qSetReset, id, tokenHash, expires)
}

func (p *Provider) ClearPasswordResetToken(ctx context.Context, id int64) error {
	return p.exec(ctx, "clear reset token", qClearReset, id)
}

func (p *Provider) queryUser(ctx context.Context, query string, arg any) (schoolauth.UserRecord, error) {
	ctx, cancel := p.db.withTimeout(ctx)
	defer cancel()

	var u schoolauth.UserRecord
	if err := scanUser(p.db.Pool.QueryRow(ctx, query, arg), &u); err != nil {
		return schoolauth.UserRecord{}, err
	}
	return u, nil
}

func (p *Provider) exec(ctx context.Context, op, query string, args ...any) error {
	ctx, cancel := p.db.withTimeout(ctx)
	defer cancel()

	tag, err := p.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return schoolauth.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row, out *schoolauth.UserRecord) error {
	var status string
	if err := row.Scan(
		&out.ID, &out.Username, &out.Email, &out.Role, &out.Permissions, &status, &out.PasswordHash,
		&out.FailedLoginAttempts, &out.AccountLockedUntil, &out.LastLogin,
		&out.PasswordResetTokenHash, &out.PasswordResetExpires,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schoolauth.ErrUserNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	out.Status = schoolauth.UserStatus(status)
	return nil
}
