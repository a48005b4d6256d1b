package cmd

import (
	"context"
	"flag"
	"testing"
)

func TestParseConfigFromArgs(t *testing.T) {
	type cfg struct {
		DBPath string `env:"PLANNIO_ENTRYPOINT_TEST_DB" envDefault:"data/plannio.db"`
	}

	var c cfg
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&c.DBPath, "db", c.DBPath, "database path")

	if err := ParseConfigFromArgs(&c, fs, []string{"-db", "override.db"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.DBPath != "override.db" {
		t.Fatalf("db path = %q, want flag override", c.DBPath)
	}
}

func TestParseConfigRequiresTarget(t *testing.T) {
	if err := ParseConfig[struct{}](nil); err == nil {
		t.Fatal("expected error for nil config target")
	}
}

func TestRunWithTelemetryRequiresService(t *testing.T) {
	err := RunWithTelemetry(context.Background(), "  ", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for empty service name")
	}
}

func TestRunWithTelemetryExecutesRun(t *testing.T) {
	ran := false
	err := RunWithTelemetry(context.Background(), "test", func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !ran {
		t.Fatal("expected run function to execute")
	}
}
