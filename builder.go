package schoolauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/audit"
	"github.com/vidkid7/SchoolManagementSystem-sub009/jwt"
	"github.com/vidkid7/SchoolManagementSystem-sub009/lockout"
	"github.com/vidkid7/SchoolManagementSystem-sub009/password"
	"github.com/vidkid7/SchoolManagementSystem-sub009/session"
	"github.com/vidkid7/SchoolManagementSystem-sub009/store"
)

// Builder assembles an Engine. Configure it once, call Build once.
type Builder struct {
	config Config
	store  store.Store

	userProvider UserProvider
	hasher       PasswordHasher
	auditSink    AuditSink
	logger       *zap.Logger
	now          func() time.Time

	built bool
}

// New starts a builder with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Build validates it.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the key-value store for sessions and lockout state.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithRedis is WithStore over a go-redis client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	if client != nil {
		b.store = store.NewRedis(client)
	}
	return b
}

// WithUserProvider sets the user persistence collaborator. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithPasswordHasher replaces the hasher derived from Config.Password.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithAuditSink sets where audit events go. Nil discards them.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger. Nil means zap.NewNop.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides time.Now for tokens, lockout expiry and reset tokens.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled overrides Config.Metrics.Enabled.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the components.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("key-value store required")
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	hasher := b.hasher
	if hasher == nil {
		h, err := defaultHasher(cfg.Password)
		if err != nil {
			return nil, err
		}
		hasher = h
	}

	codec, err := jwt.NewManager(jwt.Config{
		AccessSecret:         cfg.JWT.AccessSecret,
		RefreshSecret:        cfg.JWT.RefreshSecret,
		AccessTTL:            cfg.JWT.AccessTTL,
		RefreshTTL:           cfg.JWT.RefreshTTL,
		RememberMeRefreshTTL: cfg.JWT.RememberMeRefreshTTL,
		ExtendedRefreshTTL:   cfg.JWT.ExtendedRefreshTTL,
		Issuer:               cfg.JWT.Issuer,
		Audience:             cfg.JWT.Audience,
		Leeway:               cfg.JWT.Leeway,
		Now:                  now,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	sessions, err := session.NewManager(codec, b.store, logger)
	if err != nil {
		return nil, err
	}

	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Logger:     logger.Named("audit"),
		Now:        now,
	}, b.auditSink)

	var trackerSink audit.Sink = audit.NoOpSink{}
	if dispatcher != nil {
		trackerSink = dispatcher
	}
	tracker, err := lockout.NewTracker(b.store,
		lockout.WithPolicy(cfg.Lockout),
		lockout.WithAuditSink(trackerSink),
		lockout.WithLogger(logger),
		lockout.WithClock(now),
	)
	if err != nil {
		if dispatcher != nil {
			dispatcher.Close()
		}
		return nil, err
	}

	b.built = true

	return &Engine{
		config:       cfg,
		userProvider: b.userProvider,
		hasher:       hasher,
		codec:        codec,
		sessions:     sessions,
		lockout:      tracker,
		audit:        dispatcher,
		metrics:      NewMetrics(cfg.Metrics),
		logger:       logger.Named("engine"),
		now:          now,
	}, nil
}

func defaultHasher(cfg PasswordConfig) (PasswordHasher, error) {
	primary, err := password.NewArgon2(cfg.Argon2)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	if !cfg.AcceptBcrypt {
		return password.NewMulti(primary), nil
	}
	legacy, err := password.NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	return password.NewMulti(primary, legacy), nil
}
