package schoolauth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vidkid7/SchoolManagementSystem-sub009/password"
)

var errProviderDown = errors.New("connection refused")

type mockUserProvider struct {
	mu    sync.Mutex
	users map[int64]UserRecord

	findErr   error
	updateErr error

	findByIdentifierCalls int
	findByIDCalls         int
	incrementCalls        int
	lockCalls             int
	resetCalls            int
	updatePasswordCalls   int
	lastLoginCalls        int
}

func newMockUserProvider(users ...UserRecord) *mockUserProvider {
	m := &mockUserProvider{users: make(map[int64]UserRecord, len(users))}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserProvider) get(id int64) UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *mockUserProvider) update(id int64, fn func(*UserRecord)) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(&u)
	m.users[id] = u
	return nil
}

func (m *mockUserProvider) FindUserByIdentifier(_ context.Context, identifier string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByIdentifierCalls++

	if m.findErr != nil {
		return UserRecord{}, m.findErr
	}
	byEmail := strings.Contains(identifier, "@")
	for _, u := range m.users {
		if (byEmail && u.Email == identifier) || (!byEmail && u.Username == identifier) {
			return u, nil
		}
	}
	return UserRecord{}, ErrUserNotFound
}

func (m *mockUserProvider) FindUserByID(_ context.Context, id int64) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByIDCalls++

	if m.findErr != nil {
		return UserRecord{}, m.findErr
	}
	u, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserProvider) IncrementFailedLoginAttempts(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incrementCalls++
	return m.update(id, func(u *UserRecord) { u.FailedLoginAttempts++ })
}

func (m *mockUserProvider) LockAccountUntil(_ context.Context, id int64, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockCalls++
	return m.update(id, func(u *UserRecord) { u.AccountLockedUntil = &until })
}

func (m *mockUserProvider) ResetFailedLoginAttempts(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCalls++
	return m.update(id, func(u *UserRecord) {
		u.FailedLoginAttempts = 0
		u.AccountLockedUntil = nil
	})
}

func (m *mockUserProvider) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLoginCalls++
	return m.update(id, func(u *UserRecord) { u.LastLogin = &at })
}

func (m *mockUserProvider) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatePasswordCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	return m.update(id, func(u *UserRecord) { u.PasswordHash = hash })
}

func (m *mockUserProvider) SetPasswordResetToken(_ context.Context, id int64, tokenHash string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update(id, func(u *UserRecord) {
		u.PasswordResetTokenHash = tokenHash
		u.PasswordResetExpires = &expires
	})
}

func (m *mockUserProvider) FindUserByPasswordResetToken(_ context.Context, tokenHash string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.PasswordResetTokenHash != "" && u.PasswordResetTokenHash == tokenHash {
			return u, nil
		}
	}
	return UserRecord{}, ErrUserNotFound
}

func (m *mockUserProvider) ClearPasswordResetToken(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update(id, func(u *UserRecord) {
		u.PasswordResetTokenHash = ""
		u.PasswordResetExpires = nil
	})
}

// countingHasher records how often the engine compares passwords.
type countingHasher struct {
	*password.Multi
	mu          sync.Mutex
	verifyCalls int
}

func (h *countingHasher) Verify(pw, encodedHash string) (bool, error) {
	h.mu.Lock()
	h.verifyCalls++
	h.mu.Unlock()
	return h.Multi.Verify(pw, encodedHash)
}

func (h *countingHasher) verifies() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifyCalls
}

func fastArgon2Config() password.Config {
	return password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func newCountingHasher(t *testing.T) *countingHasher {
	t.Helper()
	primary, err := password.NewArgon2(fastArgon2Config())
	require.NoError(t, err)
	legacy, err := password.NewBcrypt(4)
	require.NoError(t, err)
	return &countingHasher{Multi: password.NewMulti(primary, legacy)}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("engine-access-secret-0001")
	cfg.JWT.RefreshSecret = []byte("engine-refresh-secret-001")
	cfg.Password.Argon2 = fastArgon2Config()
	cfg.Password.BcryptCost = 4
	cfg.Audit.BufferSize = 256
	cfg.Audit.DropIfFull = false
	return cfg
}

type engineFixture struct {
	mr     *miniredis.Miniredis
	engine *Engine
	users  *mockUserProvider
	hasher *countingHasher
	events *ChannelSink
	clock  *testClock
	logs   *observer.ObservedLogs
}

const (
	alicePassword = "alice-correct-horse"
	aliceID       = int64(11)
)

func newEngineFixture(t *testing.T, mutate ...func(*Config)) *engineFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hasher := newCountingHasher(t)
	hash, err := hasher.Hash(alicePassword)
	require.NoError(t, err)

	users := newMockUserProvider(UserRecord{
		ID:           aliceID,
		Username:     "alice",
		Email:        "alice@school.test",
		Role:         "teacher",
		Permissions:  []string{"attendance:write"},
		Status:       StatusActive,
		PasswordHash: hash,
	})

	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	clock := &testClock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	events := NewChannelSink(1024)
	core, logs := observer.New(zap.DebugLevel)

	engine, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserProvider(users).
		WithPasswordHasher(hasher).
		WithAuditSink(events).
		WithClock(clock.Now).
		WithLogger(zap.New(core)).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	return &engineFixture{mr: mr, engine: engine, users: users, hasher: hasher, events: events, clock: clock, logs: logs}
}

// advance moves both the engine clock and the store's TTL clock.
func (f *engineFixture) advance(d time.Duration) {
	f.clock.mu.Lock()
	f.clock.now = f.clock.now.Add(d)
	f.clock.mu.Unlock()
	f.mr.FastForward(d)
}

// drainEvents closes the engine so every queued event reaches the sink.
func (f *engineFixture) drainEvents() []AuditEvent {
	f.engine.Close()
	var out []AuditEvent
	for {
		select {
		case ev := <-f.events.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventNames(events []AuditEvent) []string {
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Event)
	}
	return names
}
