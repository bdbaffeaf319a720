package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("u-1", "ada@example.com", RoleAdmin, "sid-1", "secret", time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	claims, err := Parse(tok, "secret")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Sub != "u-1" || claims.Role != RoleAdmin || claims.Sid != "sid-1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejectsWrongSecretAndExpiry(t *testing.T) {
	tok, _ := NewAccessToken("u-1", "", RoleStudent, "sid", "secret", time.Minute)
	if _, err := Parse(tok, "other"); err == nil {
		t.Error("Parse with wrong secret succeeded")
	}
	expired, _ := NewAccessToken("u-1", "", RoleStudent, "sid", "secret", -time.Minute)
	if _, err := Parse(expired, "secret"); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("Parse(expired) error = %v, want ErrTokenExpired", err)
	}
}

func TestParseRejectsMissingSession(t *testing.T) {
	tok, _ := NewAccessToken("u-1", "", RoleStudent, "", "secret", time.Minute)
	if _, err := Parse(tok, "secret"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse without sid error = %v, want ErrInvalidToken", err)
	}
}

func providerToken(t *testing.T, sub, aud string, exp time.Time) string {
	t.Helper()
	claims := ProviderClaims{
		Email: "sam@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Audience:  []string{aud},
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("provider"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestParseProvider(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", providerToken(t, id.String(), "authenticated", time.Now().Add(time.Hour)), false},
		{"wrong audience", providerToken(t, id.String(), "anon", time.Now().Add(time.Hour)), true},
		{"expired", providerToken(t, id.String(), "authenticated", time.Now().Add(-time.Hour)), true},
		{"subject not a uuid", providerToken(t, "42", "authenticated", time.Now().Add(time.Hour)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID, email, err := ParseProvider(tt.token, "provider", "authenticated")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (gotID != id || email != "sam@example.com") {
				t.Errorf("got (%v, %q)", gotID, email)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	if ParseRole("admin") != RoleAdmin || ParseRole("student") != RoleStudent || ParseRole("") != RoleStudent {
		t.Error("ParseRole mapping wrong")
	}
}
