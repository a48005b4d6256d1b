// Package tokenkey generates access token signing keys and mints
// development tokens.
package tokenkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/plannio/plannio/internal/auth"
)

// Config holds key generation configuration.
type Config struct {
	// MintUser mints a development token for the given user ID when set.
	MintUser string
	// Admin marks the minted token as a platform admin.
	Admin bool
	// Issuer and Audience are stamped into minted tokens.
	Issuer   string
	Audience string
	// TTL bounds the minted token's lifetime.
	TTL time.Duration
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{
		Issuer:   "plannio",
		Audience: "plannio-api",
		TTL:      24 * time.Hour,
	}
	fs.StringVar(&cfg.MintUser, "mint-user", cfg.MintUser, "also mint a development token for this user ID")
	fs.BoolVar(&cfg.Admin, "admin", cfg.Admin, "mark the minted token as platform admin")
	fs.StringVar(&cfg.Issuer, "issuer", cfg.Issuer, "token issuer")
	fs.StringVar(&cfg.Audience, "audience", cfg.Audience, "token audience")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "minted token lifetime")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates a keypair, writes it to out, and optionally mints a token.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	public, private, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}
	fmt.Fprintf(out, "PLANNIO_AUTH_PUBLIC_KEY=%s\n", base64.StdEncoding.EncodeToString(public))
	fmt.Fprintf(out, "PLANNIO_AUTH_PRIVATE_KEY=%s\n", base64.StdEncoding.EncodeToString(private))

	if cfg.MintUser == "" {
		return nil
	}
	token, err := auth.MintAccessToken(private, auth.MintInput{
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		UserID:        cfg.MintUser,
		PlatformAdmin: cfg.Admin,
		TTL:           cfg.TTL,
	})
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}
	_, err = fmt.Fprintf(out, "TOKEN=%s\n", token)
	return err
}
