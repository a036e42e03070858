package lockout

import "time"

// Status describes an identifier's lockout state.
type Status struct {
	IsLocked          bool       `json:"isLocked"`
	FailedAttempts    int        `json:"failedAttempts"`
	RemainingAttempts int        `json:"remainingAttempts"`
	LockoutExpiresAt  *time.Time `json:"lockoutExpiresAt,omitempty"`
	// LockoutTimeRemaining is in seconds and is zero while unlocked.
	LockoutTimeRemaining int `json:"lockoutTimeRemaining,omitempty"`
}

// MinutesRemaining rounds the lockout time up to whole minutes.
func (s Status) MinutesRemaining() int {
	if !s.IsLocked || s.LockoutTimeRemaining <= 0 {
		return 0
	}
	return (s.LockoutTimeRemaining + 59) / 60
}

func unlockedStatus(p Policy, failed int) Status {
	remaining := p.MaxFailedAttempts - failed
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		FailedAttempts:    failed,
		RemainingAttempts: remaining,
	}
}

func lockedStatus(failed int, expiresAt, now time.Time) Status {
	secs := int(expiresAt.Sub(now).Seconds() + 0.999)
	if secs < 1 {
		secs = 1
	}
	at := expiresAt
	return Status{
		IsLocked:             true,
		FailedAttempts:       failed,
		RemainingAttempts:    0,
		LockoutExpiresAt:     &at,
		LockoutTimeRemaining: secs,
	}
}
