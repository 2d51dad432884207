package app

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthService issues and verifies short-lived admin session tokens for
// the dashboard. Credentials are a single configured username/password
// pair; there is no user store.
type AuthService struct {
	username string
	password string
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(username, password, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		username: username,
		password: password,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login checks the credentials and returns a signed session token with
// its expiry instant.
func (a *AuthService) Login(username, password string) (string, time.Time, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userOK || !passOK {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expires := a.now().Add(a.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(a.now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, expires, nil
}

// Verify parses the session token and returns the subject when it is
// valid and unexpired.
func (a *AuthService) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time { return a.now() }))
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid session token")
	}
	return claims.Subject, nil
}
