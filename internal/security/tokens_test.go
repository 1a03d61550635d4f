package security

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

var testIdentity = Identity{ID: "u1", Email: "ana@example.com", Role: "manager", Name: "Ana"}

// flipSignatureByte returns token with one byte of its decoded signature inverted.
func flipSignatureByte(t *testing.T, token string) string {
	t.Helper()
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d parts, want 3", len(parts))
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	sig[len(sig)/2] ^= 0xff
	parts[2] = base64.RawURLEncoding.EncodeToString(sig)
	return strings.Join(parts, ".")
}

func TestTokenProvider_IssueAndVerify(t *testing.T) {
	rsaProvider, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	providers := map[string]*TokenProvider{
		"hs256": NewTestHMACTokenProvider(),
		"rs256": rsaProvider,
	}
	for name, p := range providers {
		t.Run(name, func(t *testing.T) {
			token, exp, err := p.Issue(testIdentity)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if token == "" {
				t.Fatal("token empty")
			}
			if exp.Before(time.Now()) {
				t.Fatal("expires at in the past")
			}
			claims, err := p.Verify(token)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if claims.ID != testIdentity.ID || claims.Role != testIdentity.Role {
				t.Errorf("Verify: got id=%q role=%q, want id=%q role=%q", claims.ID, claims.Role, testIdentity.ID, testIdentity.Role)
			}
			if claims.Email != testIdentity.Email || claims.Name != testIdentity.Name {
				t.Errorf("Verify: got email=%q name=%q", claims.Email, claims.Name)
			}
			if !claims.ExpiresAt.Equal(exp.Truncate(time.Second)) {
				t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, exp.Truncate(time.Second))
			}
			if claims.IssuedAt.IsZero() {
				t.Error("IssuedAt is zero")
			}
		})
	}
}

func TestTokenProvider_VerifyExpired(t *testing.T) {
	p := NewTestHMACTokenProvider()
	issued := time.Now().Add(-2 * time.Hour)
	p.now = func() time.Time { return issued }
	token, _, err := p.Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	p.now = time.Now
	if _, err := p.Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify expired: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyFlippedSignature(t *testing.T) {
	p := NewTestHMACTokenProvider()
	token, _, err := p.Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := p.Verify(flipSignatureByte(t, token)); err != ErrInvalidToken {
		t.Errorf("Verify tampered: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyMalformed(t *testing.T) {
	p := NewTestHMACTokenProvider()
	for _, token := range []string{"", "invalid-token", "a.b.c", "eyJhbGciOiJub25lIn0.e30."} {
		if _, err := p.Verify(token); err != ErrInvalidToken {
			t.Errorf("Verify(%q): want ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestTokenProvider_VerifyWrongSecret(t *testing.T) {
	p := NewTestHMACTokenProvider()
	token, _, _ := p.Issue(testIdentity)
	other, err := NewHMACTokenProvider([]byte("another-secret-0123456789abcdef0"), "test-issuer", "test-audience", time.Hour)
	if err != nil {
		t.Fatalf("NewHMACTokenProvider: %v", err)
	}
	if _, err := other.Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify with other secret: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyIssuerAudience(t *testing.T) {
	p := NewTestHMACTokenProvider()
	token, _, _ := p.Issue(testIdentity)

	wrongIss, _ := NewHMACTokenProvider([]byte(TestSecret), "other-issuer", "test-audience", time.Hour)
	if _, err := wrongIss.Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify wrong issuer: want ErrInvalidToken, got %v", err)
	}
	wrongAud, _ := NewHMACTokenProvider([]byte(TestSecret), "test-issuer", "other-audience", time.Hour)
	if _, err := wrongAud.Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify wrong audience: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_AlgorithmMismatch(t *testing.T) {
	rsaProvider, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	hmacToken, _, _ := NewTestHMACTokenProvider().Issue(testIdentity)
	if _, err := rsaProvider.Verify(hmacToken); err != ErrInvalidToken {
		t.Errorf("RSA provider verifying HS256 token: want ErrInvalidToken, got %v", err)
	}
	rsaToken, _, _ := rsaProvider.Issue(testIdentity)
	if _, err := NewTestHMACTokenProvider().Verify(rsaToken); err != ErrInvalidToken {
		t.Errorf("HMAC provider verifying RS256 token: want ErrInvalidToken, got %v", err)
	}
}

func TestNewHMACTokenProvider_EmptySecret(t *testing.T) {
	p, err := NewHMACTokenProvider(nil, "i", "a", time.Hour)
	if err != ErrMissingSecret {
		t.Errorf("NewHMACTokenProvider(nil): want ErrMissingSecret, got %v", err)
	}
	if p != nil {
		t.Error("provider should be nil on error")
	}
}
