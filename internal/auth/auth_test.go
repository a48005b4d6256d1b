package auth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
)

func testKeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return public, private
}

func fixedNow() time.Time {
	return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
}

func testConfig(key ed25519.PublicKey) VerifierConfig {
	return VerifierConfig{
		Issuer:   "plannio",
		Audience: "plannio-api",
		Key:      key,
		Now:      fixedNow,
	}
}

func mint(t *testing.T, key ed25519.PrivateKey, input MintInput) string {
	t.Helper()
	if input.Issuer == "" {
		input.Issuer = "plannio"
	}
	if input.Audience == "" {
		input.Audience = "plannio-api"
	}
	if input.Now == nil {
		input.Now = fixedNow
	}
	token, err := MintAccessToken(key, input)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestValidateAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	public, private := testKeyPair(t)
	token := mint(t, private, MintInput{UserID: "user-1", PlatformAdmin: true, TTL: time.Hour})

	principal, err := ValidateAccessToken(token, testConfig(public))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if principal.UserID != "user-1" || !principal.PlatformAdmin {
		t.Fatalf("principal = %+v", principal)
	}
}

func TestValidateAccessTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	public, private := testKeyPair(t)
	token := mint(t, private, MintInput{
		UserID: "user-1",
		TTL:    time.Hour,
		Now:    func() time.Time { return fixedNow().Add(-2 * time.Hour) },
	})

	_, err := ValidateAccessToken(token, testConfig(public))
	if apperrors.CodeOf(err) != apperrors.CodeAuthTokenExpired {
		t.Fatalf("err = %v, want token expired", err)
	}
}

func TestValidateAccessTokenRejectsWrongKey(t *testing.T) {
	t.Parallel()

	_, private := testKeyPair(t)
	otherPublic, _ := testKeyPair(t)
	token := mint(t, private, MintInput{UserID: "user-1", TTL: time.Hour})

	_, err := ValidateAccessToken(token, testConfig(otherPublic))
	if apperrors.CodeOf(err) != apperrors.CodeAuthTokenInvalid {
		t.Fatalf("err = %v, want token invalid", err)
	}
}

func TestValidateAccessTokenRejectsIssuerAndAudienceMismatch(t *testing.T) {
	t.Parallel()

	public, private := testKeyPair(t)

	wrongIssuer := mint(t, private, MintInput{Issuer: "someone-else", UserID: "user-1", TTL: time.Hour})
	if _, err := ValidateAccessToken(wrongIssuer, testConfig(public)); apperrors.CodeOf(err) != apperrors.CodeAuthTokenInvalid {
		t.Fatalf("issuer mismatch err = %v, want token invalid", err)
	}

	wrongAudience := mint(t, private, MintInput{Audience: "other-api", UserID: "user-1", TTL: time.Hour})
	if _, err := ValidateAccessToken(wrongAudience, testConfig(public)); apperrors.CodeOf(err) != apperrors.CodeAuthTokenInvalid {
		t.Fatalf("audience mismatch err = %v, want token invalid", err)
	}
}

func TestValidateAccessTokenRequiresToken(t *testing.T) {
	t.Parallel()

	public, _ := testKeyPair(t)
	_, err := ValidateAccessToken("  ", testConfig(public))
	if apperrors.CodeOf(err) != apperrors.CodeAuthUnauthenticated {
		t.Fatalf("err = %v, want unauthenticated", err)
	}
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithPrincipal(context.Background(), Principal{UserID: "user-1"})
	principal, ok := PrincipalFromContext(ctx)
	if !ok || principal.UserID != "user-1" {
		t.Fatalf("principal = %+v, ok = %v", principal, ok)
	}
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Fatal("empty context must not carry a principal")
	}
}
