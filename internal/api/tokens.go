package api

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt"
)

var errTokenInvalid = errors.New("Token is invalid or expired")

// tokenIssuer signs HS256 access/refresh tokens. Access tokens carry a
// generation claim so every outstanding access token can be revoked at once.
type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu           sync.Mutex
	generation   int
	failRefresh  bool
	refreshDelay time.Duration

	refreshCalls atomic.Int64
}

func newTokenIssuer(secret []byte, accessTTL time.Duration) *tokenIssuer {
	return &tokenIssuer{secret: secret, accessTTL: accessTTL, refreshTTL: 24 * time.Hour}
}

func (t *tokenIssuer) issue(userID, kind string, ttl time.Duration) (string, error) {
	t.mu.Lock()
	gen := t.generation
	t.mu.Unlock()

	claims := jwt.MapClaims{
		"user_id":    userID,
		"token_type": kind,
		"gen":        gen,
		"exp":        time.Now().Add(ttl).Unix(),
		"iat":        time.Now().Unix(),
		"jti":        fmt.Sprintf("%d", time.Now().UnixNano()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *tokenIssuer) Pair(userID string) (string, string, error) {
	access, err := t.issue(userID, "access", t.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := t.issue(userID, "refresh", t.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Verify returns the user id of a valid token of kind.
func (t *tokenIssuer) Verify(token, kind string) (string, error) {
	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", errTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || claims["token_type"] != kind {
		return "", errTokenInvalid
	}

	if kind == "access" {
		gen, _ := claims["gen"].(float64)
		t.mu.Lock()
		current := t.generation
		t.mu.Unlock()
		if int(gen) != current {
			return "", errTokenInvalid
		}
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", errTokenInvalid
	}
	return userID, nil
}

// Refresh exchanges a refresh token for a new access token.
func (t *tokenIssuer) Refresh(refresh string) (string, error) {
	t.refreshCalls.Add(1)

	t.mu.Lock()
	fail, delay := t.failRefresh, t.refreshDelay
	t.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		return "", errTokenInvalid
	}

	userID, err := t.Verify(refresh, "refresh")
	if err != nil {
		return "", err
	}
	return t.issue(userID, "access", t.accessTTL)
}
