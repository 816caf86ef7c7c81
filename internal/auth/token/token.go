// Package token issues and verifies the bearer tokens the API authenticates
// with. Tokens are stateless HS256 JWTs carrying the user id and role.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
)

// Manager signs and verifies access tokens. It satisfies
// middleware.TokenVerifier.
type Manager struct {
	key []byte
	ttl time.Duration
}

func NewManager(signingKey string, ttl time.Duration) *Manager {
	return &Manager{key: []byte(signingKey), ttl: ttl}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue creates a signed token for the user. Returns the token and its
// expiry.
func (m *Manager) Issue(userID id.UserID, role id.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(m.ttl)
	c := claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "sign token")
	}
	return signed, expiresAt, nil
}

// VerifyToken parses and validates a bearer token and returns the caller it
// represents.
func (m *Manager) VerifyToken(raw string) (id.Caller, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return m.key, nil
	})
	if err != nil {
		return id.Caller{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}

	userID, err := id.ParseUserID(c.Subject)
	if err != nil {
		return id.Caller{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	role, err := id.ParseRole(c.Role)
	if err != nil {
		return id.Caller{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token role")
	}
	return id.Caller{ID: userID, Role: role}, nil
}
