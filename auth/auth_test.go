package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestPasswordHashing(t *testing.T) {
	pwd := "super-secret"
	hash, err := HashPassword(pwd)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == pwd {
		t.Fatalf("hash must not equal the password")
	}
	if err := CheckPassword(hash, pwd); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected failure for wrong password")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Issue("64b7f0c2a1b2c3d4e5f60718")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != "64b7f0c2a1b2c3d4e5f60718" {
		t.Fatalf("got user %q", userID)
	}
}

func TestTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	expired := NewTokenIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue("user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	foreign, err := NewTokenIssuer("other-secret", time.Hour).Issue("user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"expired":   expiredToken,
		"foreign":   foreign,
		"alg none":  none,
		"malformed": "not-a-token",
		"empty":     "",
	}
	for name, token := range cases {
		if _, err := issuer.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc.def.ghi", "abc.def.ghi"},
		{"abc.def.ghi", "abc.def.ghi"},
		{"  abc.def.ghi  ", "abc.def.ghi"},
		{"", ""},
		{"Basic a b", ""},
	}
	for i, c := range cases {
		if got := ExtractToken(c.header); got != c.want {
			t.Fatalf("case %d: ExtractToken(%q) = %q, want %q", i, c.header, got, c.want)
		}
	}
}
