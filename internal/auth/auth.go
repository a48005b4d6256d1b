// Package auth verifies bearer tokens and carries the caller identity.
package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID string
	// PlatformAdmin marks operators allowed to act across all businesses.
	PlatformAdmin bool
}

type principalContextKey struct{}

// WithPrincipal stores the principal on the context.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext returns the principal stored on the context, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	return principal, ok
}

// verifierEnv holds raw env values before post-parse validation.
type verifierEnv struct {
	Issuer    string `env:"PLANNIO_AUTH_ISSUER"`
	Audience  string `env:"PLANNIO_AUTH_AUDIENCE"`
	PublicKey string `env:"PLANNIO_AUTH_PUBLIC_KEY"`
}

// VerifierConfig defines how access tokens are verified.
type VerifierConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// accessClaims is the internal claims type used for JWT parsing.
type accessClaims struct {
	jwt.RegisteredClaims
	PlatformAdmin bool `json:"platform_admin,omitempty"`
}

// LoadVerifierConfigFromEnv reads access token verification configuration.
func LoadVerifierConfigFromEnv(now func() time.Time) (VerifierConfig, error) {
	var raw verifierEnv
	if err := env.Parse(&raw); err != nil {
		return VerifierConfig{}, fmt.Errorf("parse auth env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return VerifierConfig{}, fmt.Errorf("PLANNIO_AUTH_ISSUER is required")
	}
	if audience == "" {
		return VerifierConfig{}, fmt.Errorf("PLANNIO_AUTH_AUDIENCE is required")
	}
	if publicKey == "" {
		return VerifierConfig{}, fmt.Errorf("PLANNIO_AUTH_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return VerifierConfig{}, fmt.Errorf("decode auth public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return VerifierConfig{}, fmt.Errorf("auth public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return VerifierConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// ValidateAccessToken verifies a bearer token and returns the caller identity.
func ValidateAccessToken(token string, cfg VerifierConfig) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, apperrors.New(apperrors.CodeAuthUnauthenticated, "access token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return Principal{}, errors.New("access token verifier is not configured")
	}

	var parsed accessClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Principal{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return Principal{}, apperrors.New(apperrors.CodeAuthTokenInvalid, "access token issuer mismatch")
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return Principal{}, apperrors.New(apperrors.CodeAuthTokenInvalid, "access token audience mismatch")
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Principal{}, apperrors.New(apperrors.CodeAuthTokenInvalid, "access token sub is required")
	}
	if parsed.ExpiresAt == nil {
		return Principal{}, apperrors.New(apperrors.CodeAuthTokenInvalid, "access token exp is required")
	}

	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return Principal{}, apperrors.New(apperrors.CodeAuthTokenExpired, "access token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Principal{}, apperrors.New(apperrors.CodeAuthTokenInvalid, "access token not active yet")
	}

	return Principal{
		UserID:        parsed.Subject,
		PlatformAdmin: parsed.PlatformAdmin,
	}, nil
}

// MintInput describes an access token to issue.
type MintInput struct {
	Issuer        string
	Audience      string
	UserID        string
	PlatformAdmin bool
	TTL           time.Duration
	Now           func() time.Time
}

// MintAccessToken issues a signed access token. Used by the token tool and the
// seeder; the API itself only verifies.
func MintAccessToken(key ed25519.PrivateKey, input MintInput) (string, error) {
	if len(key) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("signing key must be %d bytes", ed25519.PrivateKeySize)
	}
	if strings.TrimSpace(input.UserID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	if input.TTL <= 0 {
		return "", fmt.Errorf("ttl must be greater than zero")
	}
	now := time.Now
	if input.Now != nil {
		now = input.Now
	}
	issuedAt := now().UTC()

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    strings.TrimSpace(input.Issuer),
			Audience:  jwt.ClaimStrings{strings.TrimSpace(input.Audience)},
			Subject:   strings.TrimSpace(input.UserID),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(input.TTL)),
		},
		PlatformAdmin: input.PlatformAdmin,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeAuthTokenInvalid, "access token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeAuthTokenInvalid, "access token alg is invalid")
	}
	return apperrors.New(apperrors.CodeAuthTokenInvalid, "access token is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
