package jwt

import (
	"testing"
	"time"
)

// FuzzVerify feeds arbitrary strings to both verifiers. Nothing may panic,
// and no input may pass as both an access and a refresh token.
func FuzzVerify(f *testing.F) {
	mgr, err := NewManager(Config{
		AccessSecret:  []byte("fuzz-access-secret-000"),
		RefreshSecret: []byte("fuzz-refresh-secret-00"),
		AccessTTL:     5 * time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "fuzz-test",
	})
	if err != nil {
		f.Fatal(err)
	}

	p := Payload{SubjectID: 1, Username: "u", Role: "student"}
	access, err := mgr.IssueAccess(p)
	if err != nil {
		f.Fatal(err)
	}
	refresh, err := mgr.IssueRefresh(p, TierStandard)
	if err != nil {
		f.Fatal(err)
	}

	for _, seed := range []string{
		access,
		refresh,
		"",
		"not.a.jwt",
		"eyJhbGciOiJub25lIn0.eyJ1aWQiOjF9.",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		ac, aerr := mgr.VerifyAccess(input)
		rc, rerr := mgr.VerifyRefresh(input)
		if aerr == nil && ac == nil {
			t.Fatal("VerifyAccess returned nil claims without error")
		}
		if rerr == nil && rc == nil {
			t.Fatal("VerifyRefresh returned nil claims without error")
		}
		if aerr == nil && rerr == nil {
			t.Fatalf("token accepted by both verifiers: %q", input)
		}
	})
}
