package lockout

import (
	"errors"
	"time"
)

// Policy is the numeric lockout configuration.
type Policy struct {
	MaxFailedAttempts      int `json:"maxFailedAttempts" mapstructure:"max_failed_attempts"`
	AttemptWindowSeconds   int `json:"attemptWindowSeconds" mapstructure:"attempt_window_seconds"`
	LockoutDurationSeconds int `json:"lockoutDurationSeconds" mapstructure:"lockout_duration_seconds"`
}

// DefaultPolicy is five failures within fifteen minutes, locked for fifteen minutes.
func DefaultPolicy() Policy {
	return Policy{
		MaxFailedAttempts:      5,
		AttemptWindowSeconds:   900,
		LockoutDurationSeconds: 900,
	}
}

// Validate rejects non-positive values.
func (p Policy) Validate() error {
	if p.MaxFailedAttempts <= 0 {
		return errors.New("lockout: MaxFailedAttempts must be > 0")
	}
	if p.AttemptWindowSeconds <= 0 {
		return errors.New("lockout: AttemptWindowSeconds must be > 0")
	}
	if p.LockoutDurationSeconds <= 0 {
		return errors.New("lockout: LockoutDurationSeconds must be > 0")
	}
	return nil
}

// AttemptWindow is the counter TTL set on the first failure.
func (p Policy) AttemptWindow() time.Duration {
	return time.Duration(p.AttemptWindowSeconds) * time.Second
}

// LockoutDuration is the lockout flag TTL.
func (p Policy) LockoutDuration() time.Duration {
	return time.Duration(p.LockoutDurationSeconds) * time.Second
}
