package schoolauth

import (
	"context"

	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/audit"
)

// WithClientIP attaches the caller's IP address to ctx. It is recorded on
// audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return audit.WithClientIP(ctx, ip)
}

// WithUserAgent attaches the caller's user agent to ctx for audit details.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return audit.WithUserAgent(ctx, userAgent)
}
