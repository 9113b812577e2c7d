package security_test

import (
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/chatcord/internal/security"

	"github.com/golang-jwt/jwt"
)

func newVerifier(t *testing.T, opts ...security.VerifierOption) *security.TokenVerifier {
	t.Helper()
	v, err := security.NewTokenVerifier("test-secret", opts...)
	if err != nil {
		t.Fatalf("NewTokenVerifier: %v", err)
	}
	return v
}

func TestSignAndParse(t *testing.T) {
	v := newVerifier(t, security.WithIssuer("chatcord"))
	tok, err := v.Sign(42)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := v.ParseAndValidate(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, err := security.SubjectAsUserID(claims)
	if err != nil || id != 42 {
		t.Fatalf("subject = %d, %v", id, err)
	}
}

func TestParse_LegacyIDClaim(t *testing.T) {
	// токен в формате старого сервиса: {"id": 7}, без exp
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": 7}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := newVerifier(t).ParseAndValidate(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id, _ := security.SubjectAsUserID(claims); id != 7 {
		t.Fatalf("id = %d, want 7", id)
	}
}

func TestParse_Rejects(t *testing.T) {
	v := newVerifier(t)
	good, _ := v.Sign(1)

	other, _ := security.NewTokenVerifier("another-secret")
	foreign, _ := other.Sign(1)

	past := time.Now().Add(-48 * time.Hour)
	expired, _ := newVerifier(t, security.WithClock(func() time.Time { return past })).Sign(1)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	strict := newVerifier(t, security.WithIssuer("someone-else"))

	cases := []struct {
		name     string
		verifier *security.TokenVerifier
		token    string
		want     error
	}{
		{"empty", v, "", security.ErrInvalidToken},
		{"garbage", v, "not.a.jwt", security.ErrInvalidToken},
		{"wrong secret", v, foreign, security.ErrInvalidToken},
		{"alg none", v, none, security.ErrInvalidToken},
		{"expired", v, expired, security.ErrTokenExpired},
		{"wrong issuer", strict, good, security.ErrInvalidIssuer},
	}
	for _, c := range cases {
		if _, err := c.verifier.ParseAndValidate(c.token); !errors.Is(err, c.want) {
			t.Errorf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}
}

func TestSubjectAsUserID_Invalid(t *testing.T) {
	if _, err := security.SubjectAsUserID(nil); !errors.Is(err, security.ErrInvalidSubject) {
		t.Fatalf("nil claims: %v", err)
	}
	c := &security.AccessClaims{StandardClaims: jwt.StandardClaims{Subject: "abc"}}
	if _, err := security.SubjectAsUserID(c); !errors.Is(err, security.ErrInvalidSubject) {
		t.Fatalf("non-numeric sub: %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		tok string
		ok  bool
	}{
		"Bearer abc":   {"abc", true},
		"bearer  abc ": {"abc", true},
		"Basic abc":    {"", false},
		"Bearer ":      {"", false},
		"":             {"", false},
	}
	for in, want := range cases {
		tok, ok := security.BearerToken(in)
		if tok != want.tok || ok != want.ok {
			t.Errorf("BearerToken(%q) = %q, %v", in, tok, ok)
		}
	}
}

func TestNewTokenVerifier_EmptySecret(t *testing.T) {
	if _, err := security.NewTokenVerifier("  "); err == nil {
		t.Fatal("expected error on empty secret")
	}
}
