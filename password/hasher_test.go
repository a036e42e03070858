package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fastArgon2(t *testing.T) *Argon2 {
	t.Helper()
	a, err := NewArgon2(Config{Memory: minMemoryKB, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	return a
}

func fastBcrypt(t *testing.T) *Bcrypt {
	t.Helper()
	b, err := NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)
	return b
}

func TestArgon2HashAndVerify(t *testing.T) {
	a := fastArgon2(t)

	hash, err := a.Hash("Sch00l-Passw0rd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, err := a.Verify("Sch00l-Passw0rd", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Verify("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2SaltsDiffer(t *testing.T) {
	a := fastArgon2(t)
	h1, err := a.Hash("same-password")
	require.NoError(t, err)
	h2, err := a.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestArgon2RejectsShortPassword(t *testing.T) {
	_, err := fastArgon2(t).Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestArgon2MalformedHashes(t *testing.T) {
	a := fastArgon2(t)
	for _, h := range []string{
		"",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1,x=2$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2hvcnQ$a2V5",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
	} {
		_, err := a.Verify("whatever-password", h)
		assert.ErrorIs(t, err, ErrInvalidHash, "hash %q", h)
	}
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.Memory = 1024
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.SaltLength = 8
	assert.Error(t, bad.Validate())

	_, err := NewBcrypt(100)
	assert.Error(t, err)
}

func TestBcryptHashAndVerify(t *testing.T) {
	b := fastBcrypt(t)

	hash, err := b.Hash("legacy-password")
	require.NoError(t, err)

	ok, err := b.Verify("legacy-password", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Verify("nope-nope-nope", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = b.Verify("x", "$2a$broken")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestMultiVerifiesLegacyAndHashesPrimary(t *testing.T) {
	a, b := fastArgon2(t), fastBcrypt(t)
	m := NewMulti(a, b)

	legacy, err := b.Hash("teacher-password")
	require.NoError(t, err)

	ok, err := m.Verify("teacher-password", legacy)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, m.NeedsRehash(legacy))

	fresh, err := m.Hash("teacher-password")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fresh, argon2Prefix))
	assert.False(t, m.NeedsRehash(fresh))

	_, err = m.Verify("teacher-password", "plaintext")
	assert.ErrorIs(t, err, ErrUnsupportedHash)
}

func TestMultiNeedsRehashOnWeakerParams(t *testing.T) {
	weak := fastArgon2(t)
	strong, err := NewArgon2(Config{Memory: 16 * 1024, Time: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)

	hash, err := weak.Hash("parameter-upgrade")
	require.NoError(t, err)

	assert.True(t, NewMulti(strong).NeedsRehash(hash))
	assert.False(t, NewMulti(weak).NeedsRehash(hash))

	ok, err := NewMulti(strong).Verify("parameter-upgrade", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyAcceptsPaddedBase64(t *testing.T) {
	a := fastArgon2(t)
	hash, err := a.Hash("padded-base64-check")
	require.NoError(t, err)

	parts := strings.Split(hash, "$")
	for _, i := range []int{4, 5} {
		for len(parts[i])%4 != 0 {
			parts[i] += "="
		}
	}
	ok, err := a.Verify("padded-base64-check", strings.Join(parts, "$"))
	require.NoError(t, err)
	assert.True(t, ok)
}
