package auth

import (
	"errors"
	"testing"
	"time"
)

var testSecret = []byte("test-secret")

func TestIssueAndParseToken(t *testing.T) {
	claims := Claims{
		Sub:  "user-1",
		Name: "Ada",
		JTI:  "jti-1",
		Exp:  time.Now().Add(time.Hour).Unix(),
	}

	token, err := IssueToken(testSecret, claims)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	parsed, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if parsed.Sub != claims.Sub || parsed.Name != claims.Name || parsed.JTI != claims.JTI {
		t.Errorf("claims mismatch: got %+v, want %+v", parsed, claims)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := IssueToken(testSecret, Claims{
		Sub: "user-1",
		JTI: "jti-1",
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	if _, err := ParseToken([]byte("other-secret"), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := IssueToken(testSecret, Claims{
		Sub: "user-1",
		JTI: "jti-1",
		Exp: time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	if _, err := ParseToken(testSecret, token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParseTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "no-dot", "a.b.c", "!!!.###"} {
		if _, err := ParseToken(testSecret, token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ParseToken(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestParseTokenMissingClaims(t *testing.T) {
	token, err := IssueToken(testSecret, Claims{Name: "no sub or jti"})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := ParseToken(testSecret, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Error("same input should hash identically")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("different inputs should hash differently")
	}
	if len(HashToken("abc")) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(HashToken("abc")))
	}
}
