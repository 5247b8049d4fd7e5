package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoExpiry = errors.New("token carries no expiry")

type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Decoder reads claims out of a bearer token. Swap in a verifying decoder to
// check signatures; callers only see Claims.
type Decoder interface {
	Decode(token string) (*Claims, error)
}

// UnverifiedDecoder decodes the payload segment only. The signature is the
// remote service's business.
type UnverifiedDecoder struct{}

func (UnverifiedDecoder) Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// Minter issues the short-lived privileged token used while elevated.
type Minter interface {
	Mint(now time.Time) (string, error)
}

type HMACMinter struct {
	Secret []byte
	TTL    time.Duration
}

func (m HMACMinter) Mint(now time.Time) (string, error) {
	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "system",
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
}
