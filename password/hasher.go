package password

import (
	"errors"
	"strings"
)

var (
	// ErrPasswordTooShort is returned by Hash for passwords under the minimum length.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrUnsupportedHash means no configured scheme recognizes the stored hash.
	ErrUnsupportedHash = errors.New("unsupported password hash format")
	// ErrInvalidHash means the stored hash is recognized but malformed.
	ErrInvalidHash = errors.New("invalid password hash")
)

// Hasher turns a password into a storable hash and checks candidates against it.
type Hasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches encodedHash. A mismatch is
	// (false, nil); errors are reserved for unreadable hashes.
	Verify(password, encodedHash string) (bool, error)
}

type scheme interface {
	Hasher
	recognizes(encodedHash string) bool
	needsRehash(encodedHash string) bool
}

// Multi hashes with its primary scheme and verifies any scheme it knows.
type Multi struct {
	primary scheme
	legacy  []scheme
}

// NewMulti returns a hasher producing Argon2id hashes that still accepts bcrypt.
func NewMulti(primary *Argon2, legacy ...*Bcrypt) *Multi {
	m := &Multi{primary: primary}
	for _, l := range legacy {
		if l != nil {
			m.legacy = append(m.legacy, l)
		}
	}
	return m
}

func (m *Multi) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

func (m *Multi) Verify(password, encodedHash string) (bool, error) {
	s, err := m.schemeFor(encodedHash)
	if err != nil {
		return false, err
	}
	return s.Verify(password, encodedHash)
}

// NeedsRehash is true for legacy-format hashes and for primary hashes made
// with weaker parameters than the current configuration.
func (m *Multi) NeedsRehash(encodedHash string) bool {
	if !m.primary.recognizes(encodedHash) {
		return true
	}
	return m.primary.needsRehash(encodedHash)
}

func (m *Multi) schemeFor(encodedHash string) (scheme, error) {
	if m.primary.recognizes(encodedHash) {
		return m.primary, nil
	}
	for _, s := range m.legacy {
		if s.recognizes(encodedHash) {
			return s, nil
		}
	}
	return nil, ErrUnsupportedHash
}

func hasPrefixAny(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
