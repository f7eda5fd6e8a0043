package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default validity periods used when the configuration leaves them unset.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

var (
	// ErrInvalidToken is returned when a token fails signature or expiry checks.
	ErrInvalidToken = errors.New("token: invalid or expired")
	// ErrTokenRevoked marks a cryptographically valid refresh token that no
	// longer matches the live session entry (logout or rotation).
	ErrTokenRevoked = errors.New("token: revoked or superseded")
)

// TokenConfig bundles the configuration required to build a TokenService.
// Access and refresh tokens are signed with independent secrets.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Clock         func() time.Time
}

// TokenPair represents an access token and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenService mints and validates the signed token pair and coordinates
// refresh-token persistence in the session cache. The cache is the single
// source of truth for refresh liveness.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
	sessions      *SessionCache
}

// NewTokenService constructs a TokenService from configuration and the
// session cache the refresh tokens are persisted in.
func NewTokenService(cfg TokenConfig, sessions *SessionCache) (*TokenService, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("token service: access secret must be provided")
	}
	if cfg.RefreshSecret == "" {
		return nil, errors.New("token service: refresh secret must be provided")
	}
	if sessions == nil {
		return nil, errors.New("token service: session cache is required")
	}

	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		issuer:        cfg.Issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           now,
		sessions:      sessions,
	}, nil
}

// RefreshTTL exposes the refresh token lifetime (also the session entry TTL).
func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// MintPair issues a fresh access/refresh pair for userID and records the
// refresh token as the only live one. The cache write is on the critical
// path: if it fails, the signed pair is discarded, since validation depends
// on cache presence.
func (s *TokenService) MintPair(ctx context.Context, userID string) (TokenPair, error) {
	if userID == "" {
		return TokenPair{}, errors.New("token service: user id is required")
	}

	accessToken, err := s.sign(userID, s.accessSecret, s.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("token service: sign access token: %w", err)
	}

	refreshToken, err := s.sign(userID, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("token service: sign refresh token: %w", err)
	}

	if err := s.sessions.Put(ctx, userID, refreshToken, s.refreshTTL); err != nil {
		return TokenPair{}, fmt.Errorf("token service: persist refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// ValidateAccess verifies an access token's signature and expiry and returns
// the user id carried in the audience claim. Purely stateless.
func (s *TokenService) ValidateAccess(tokenString string) (string, error) {
	return s.parse(tokenString, s.accessSecret)
}

// ValidateRefresh verifies the refresh token's signature and expiry, then
// requires the session entry for its user to hold exactly this token. An
// absent or differing entry means logout or supersession by rotation.
func (s *TokenService) ValidateRefresh(ctx context.Context, tokenString string) (string, error) {
	userID, err := s.parse(tokenString, s.refreshSecret)
	if err != nil {
		return "", err
	}

	stored, found, err := s.sessions.Lookup(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("token service: lookup session: %w", err)
	}
	if !found || stored != tokenString {
		return "", ErrTokenRevoked
	}

	return userID, nil
}

// Revoke deletes the session entry for userID. Idempotent.
func (s *TokenService) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("token service: user id is required")
	}
	return s.sessions.Drop(ctx, userID)
}

func (s *TokenService) sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()

	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{userID},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *TokenService) parse(tokenString string, secret []byte) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims jwt.RegisteredClaims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return "", ErrInvalidToken
	}
	if len(claims.Audience) == 0 || claims.Audience[0] == "" {
		return "", ErrInvalidToken
	}

	return claims.Audience[0], nil
}
