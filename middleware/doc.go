// Package middleware adapts the engine's access token validation to
// net/http.
//
// [Guard] reads the Authorization bearer token, validates it with
// Engine.ValidateAccessToken and stores the claims in the request context.
// X-Forwarded-For is honored only behind proxies listed with [TrustProxies].
// [RequireRole] rejects requests whose claims carry none of the given roles.
// Validation is stateless: no key-value store call is made per request.
package middleware
