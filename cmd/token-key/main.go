// Package main generates an access token signing keypair and optionally
// mints a development token.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/plannio/plannio/internal/cmd/tokenkey"
)

func main() {
	cfg, err := tokenkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	if err := tokenkey.Run(cfg, os.Stdout, nil); err != nil {
		log.Fatalf("failed to generate key: %v", err)
	}
}
