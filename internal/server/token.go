package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/golang-jwt/jwt/v4"
)

const defaultTokenTTL = 24 * time.Hour

type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens whose subject is the user id.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. A non-positive ttl selects 24h.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: jwt secret", shared.ErrMissingConfig)
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for user.
func (ti *TokenIssuer) Issue(user *models.User) (string, error) {
	now := ti.now()
	claims := sessionClaims{
		Email: user.Email(),
		Role:  string(user.Role()),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID(),
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses raw and returns the session it carries. Any failure wraps [shared.ErrInvalidToken].
func (ti *TokenIssuer) Verify(raw string) (Session, error) {
	var claims sessionClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	if !token.Valid {
		return Session{}, shared.ErrInvalidToken
	}
	if err := ti.validate(&claims); err != nil {
		return Session{}, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}

	return Session{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// validate checks expiry against the issuer clock so tests can pin time.
func (ti *TokenIssuer) validate(claims *sessionClaims) error {
	if claims.Subject == "" {
		return errors.New("missing subject")
	}
	if claims.ExpiresAt == nil || !ti.now().Before(claims.ExpiresAt.Time) {
		return errors.New("token is expired")
	}
	if ti.issuer != "" && claims.Issuer != ti.issuer {
		return fmt.Errorf("unexpected issuer %q", claims.Issuer)
	}
	return nil
}
