package middleware

import (
	"context"
	"net/http"
	"net/netip"
	"strings"

	schoolauth "github.com/vidkid7/SchoolManagementSystem-sub009"
)

type claimsContextKey struct{}

// Validator is the part of the engine the guard needs.
type Validator interface {
	ValidateAccessToken(ctx context.Context, token string) (*schoolauth.Claims, error)
}

// ClaimsFromContext returns the claims stored by Guard.
func ClaimsFromContext(ctx context.Context) (*schoolauth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*schoolauth.Claims)
	return claims, ok
}

// GuardOption customizes Guard.
type GuardOption func(*guardConfig)

type guardConfig struct {
	trustedProxies []netip.Prefix
}

// TrustProxies makes Guard read X-Forwarded-For, but only for requests whose
// peer address falls in one of prefixes. Without it the header is ignored
// and the audit IP is always the connection's remote address.
func TrustProxies(prefixes ...netip.Prefix) GuardOption {
	return func(c *guardConfig) {
		c.trustedProxies = append(c.trustedProxies, prefixes...)
	}
}

// Guard rejects requests without a valid access token with 401.
func Guard(v Validator, opts ...GuardOption) func(http.Handler) http.Handler {
	cfg := &guardConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := schoolauth.WithClientIP(r.Context(), cfg.clientIP(r))
			claims, err := v.ValidateAccessToken(ctx, token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run behind Guard. It answers 403 when the token's role
// is not one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

// clientIP walks X-Forwarded-For from the right, skipping trusted hops, so
// a client cannot spoof its address by prepending entries.
func (c *guardConfig) clientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !c.trusted(peer) {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !c.trusted(hop) {
			return hop
		}
	}
	return peer
}

func (c *guardConfig) trusted(ip string) bool {
	if len(c.trustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range c.trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().Unmap().String()
	}
	return strings.Trim(remoteAddr, "[]")
}
