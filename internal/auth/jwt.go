package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/settlewise/case-service/internal/model"
)

const defaultTokenTTL = 24 * time.Hour

// Claims are the session claims the portal's sign-in flow puts into a
// bearer token.
type Claims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies session tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTManager builds a manager from the configured secret. Outside
// production an empty secret is replaced with a random per-process one,
// which keeps local development working but invalidates sessions on
// restart.
func NewJWTManager(secret string) *JWTManager {
	if secret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err == nil {
			secret = hex.EncodeToString(b)
		}
	}
	return &JWTManager{secret: []byte(secret), ttl: defaultTokenTTL}
}

// Issue creates a signed token for the given user.
func (m *JWTManager) Issue(u *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: u.Name,
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses a bearer token and returns the actor it identifies.
func (m *JWTManager) Verify(raw string) (Actor, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Actor{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return Actor{}, errors.New("invalid token")
	}
	role := model.Role(claims.Role)
	if role != model.RoleAdmin {
		role = model.RoleUser
	}
	return Actor{ID: claims.Subject, Name: claims.Name, Role: role}, nil
}
