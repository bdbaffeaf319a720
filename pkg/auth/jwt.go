package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	// RoleStation is carried by tokens of scan-station kiosks.
	RoleStation Role = "station"
)

// ParseRole maps a stored role name to a Role; anything unknown is a student.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleStudent
}

const audience = "clubhive-api"

var ErrInvalidToken = errors.New("invalid token")

// Claims of the tokens this backend issues. Sid binds the token to a stored
// session, so ending the session revokes the token.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Sid   string `json:"sid"`
	jwt.RegisteredClaims
}

func NewAccessToken(sub, email string, role Role, sid, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Sub:   sub,
		Email: email,
		Role:  role,
		Sid:   sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{audience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(audience))
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid && claims.Sid != "" {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// ProviderClaims are the fields read from an identity-provider access token.
type ProviderClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseProvider verifies an access token minted by the hosted identity
// provider and returns the user id (a UUID) and email it asserts.
func ParseProvider(tokenString, secret, aud string) (userID uuid.UUID, email string, err error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	tok, err := jwt.ParseWithClaims(tokenString, &ProviderClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return uuid.Nil, "", err
	}
	claims, ok := tok.Claims.(*ProviderClaims)
	if !ok || !tok.Valid {
		return uuid.Nil, "", ErrInvalidToken
	}
	userID, err = uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", ErrInvalidToken
	}
	return userID, claims.Email, nil
}
