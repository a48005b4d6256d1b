// Package seed runs the demo-data loader against local stores.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"

	platformcmd "github.com/plannio/plannio/internal/platform/cmd"
	"github.com/plannio/plannio/internal/seed"
)

// Config holds seeder configuration.
type Config struct {
	Seed seed.Config
}

// ParseConfig loads env defaults and parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.Seed.DBPath, "db", cfg.Seed.DBPath, "SQLite database path")
	fs.StringVar(&cfg.Seed.EventsPath, "events", cfg.Seed.EventsPath, "audit event store path")
	if err := platformcmd.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run loads the demo data and writes a summary to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	result, err := seed.Run(ctx, cfg.Seed)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out,
		"seeded %d sectors, %d businesses, %d staff, %d services, %d calendars, %d appointments, %d prospects\n",
		result.Sectors, result.Businesses, result.Staff, result.Services,
		result.Calendars, result.Appointments, result.Prospects)
	return err
}
