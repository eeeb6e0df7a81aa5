package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTTL = time.Hour

var (
	ErrMissingSecret    = errors.New("jwt secret is required")
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformedToken   = errors.New("malformed token")
)

type UserClaim struct {
	ID string `json:"id"`
}

// Claims mirrors the payload {user: {id}} plus the registered iat/exp/sub/jti.
type Claims struct {
	User UserClaim `json:"user"`
	jwt.RegisteredClaims
}

type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock swaps the time source, used by tests to move past expiry.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *Manager) Issue(userID string) (Token, error) {
	return m.IssueWithTTL(userID, m.ttl)
}

func (m *Manager) IssueWithTTL(userID string, ttl time.Duration) (Token, error) {
	if ttl <= 0 {
		ttl = m.ttl
	}

	// jwt NumericDate has second precision
	now := m.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	claims := Claims{
		User: UserClaim{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, err
	}

	return Token{Value: raw, IssuedAt: now, ExpiresAt: expiresAt}, nil
}

func (m *Manager) ParseAndValidate(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		return nil, classify(err)
	}

	if !token.Valid {
		return nil, ErrMalformedToken
	}

	if claims.User.ID == "" {
		return nil, ErrMalformedToken
	}

	return claims, nil
}

// Verify returns the user id bound to a valid, unexpired token.
func (m *Manager) Verify(tokenStr string) (string, error) {
	claims, err := m.ParseAndValidate(tokenStr)
	if err != nil {
		return "", err
	}

	return claims.User.ID, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return ErrMalformedToken
	}
}
