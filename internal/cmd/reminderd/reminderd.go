// Package reminderd runs the reminder daemon as a standalone process, for
// deployments that keep housekeeping off the API instances.
package reminderd

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/plannio/plannio/internal/analytics"
	"github.com/plannio/plannio/internal/app/access"
	appbilling "github.com/plannio/plannio/internal/app/billing"
	platformcmd "github.com/plannio/plannio/internal/platform/cmd"
	"github.com/plannio/plannio/internal/reminder"
	bboltstore "github.com/plannio/plannio/internal/storage/bbolt"
	"github.com/plannio/plannio/internal/storage/sqlite"
)

// Config holds reminder daemon configuration.
type Config struct {
	DBPath     string `env:"PLANNIO_DB_PATH" envDefault:"plannio.db"`
	EventsPath string `env:"PLANNIO_EVENTS_PATH" envDefault:"events.db"`
	Reminder   reminder.Config
}

// ParseConfig loads env defaults and parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.EventsPath, "events", cfg.EventsPath, "audit event store path")
	if err := platformcmd.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run ticks the reminder daemon until the context ends.
func Run(ctx context.Context, cfg Config) error {
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	events, err := bboltstore.Open(cfg.EventsPath)
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer events.Close()

	emitter := analytics.NewEmitter(events, nil)
	accessSvc := access.NewService(db, emitter, nil, nil)
	billingSvc := appbilling.NewService(db, db, db, db, db, accessSvc, emitter, nil, nil)

	daemon := reminder.NewDaemon(db, billingSvc, nil, cfg.Reminder, nil)
	if err := daemon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
