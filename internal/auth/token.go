package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mrlokans/heartcheck/internal/config"
)

// TokenType is the scheme clients put in front of the token in the
// Authorization header.
const TokenType = "bearer"

// Clock returns the current time. Tests pass a fixed clock.
type Clock func() time.Time

// TokenService issues and verifies signed, time-bound access tokens.
// It holds no session state: a token is valid iff its signature matches
// and it has not expired.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    Clock
	parser *jwt.Parser
}

// NewTokenService builds a TokenService from validated auth settings.
// An empty secret or a non-HMAC algorithm is a configuration error; there
// is no fallback secret.
func NewTokenService(cfg config.Auth, now Clock) (*TokenService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: ALGORITHM %q is not an HMAC algorithm", ErrConfiguration, cfg.Algorithm)
	}

	if now == nil {
		now = time.Now
	}

	return &TokenService{
		secret: []byte(cfg.SecretKey),
		method: method,
		ttl:    cfg.TokenTTL,
		now:    now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{method.Alg()}),
			jwt.WithTimeFunc(now),
			jwt.WithExpirationRequired(),
			jwt.WithStrictDecoding(),
		),
	}, nil
}

// TTL returns the default token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue mints a token for subject that expires ttl from now. A ttl <= 0
// produces a token that is already expired.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, ErrMissingSubjectClaim
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// IssueDefault mints a token with the configured lifetime.
func (s *TokenService) IssueDefault(subject string) (string, time.Time, error) {
	return s.Issue(subject, s.ttl)
}

// Verify checks signature and expiry and returns the subject claim. It does
// not check that the subject still exists.
func (s *TokenService) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", classifyTokenError(err)
	}

	if claims.Subject == "" {
		return "", ErrMissingSubjectClaim
	}
	return claims.Subject, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		// Missing exp, undecodable claims, nbf in the future.
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
