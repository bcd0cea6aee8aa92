package session

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CSRF tokens are HS256 JWTs signed with the namespace secret: subject is
// the session id, jti is random so every issuance differs. The token itself
// is never persisted; the store keeps only its SHA-256 hash.

func MintCSRF(secret []byte, sessionID string, ttl time.Duration, now time.Time) (string, error) {
	jti := make([]byte, 16)
	if _, err := rand.Read(jti); err != nil {
		return "", fmt.Errorf("session: generate csrf jti: %w", err)
	}
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		ID:        hex.EncodeToString(jti),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func VerifyCSRF(secret []byte, token, sessionID string) error {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		// Ensure HS* (HMAC) only
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %T", t.Method)
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return errors.New("invalid csrf token")
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return errors.New("invalid csrf claims")
	}
	if subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(sessionID)) != 1 {
		return errors.New("csrf token bound to a different session")
	}
	return nil
}

func HashCSRF(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

func MatchCSRFHash(stored []byte, presented string) bool {
	if len(stored) == 0 {
		return false
	}
	sum := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(stored, sum[:]) == 1
}
