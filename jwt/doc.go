// Package jwt signs and verifies the two token kinds used by the
// authentication core: short-lived access tokens and tiered refresh tokens.
//
// Each kind has its own HMAC secret, so leaking the access secret does not
// allow forging refresh tokens. Verification pins HS256, checks the token
// type claim against the namespace being verified and reports failures as
// either [ErrTokenExpired] or [ErrTokenInvalid].
package jwt
