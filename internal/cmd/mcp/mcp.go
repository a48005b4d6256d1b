// Package mcp wires the MCP tool server to the application services.
package mcp

import (
	"context"
	"flag"
	"fmt"

	"github.com/plannio/plannio/internal/analytics"
	"github.com/plannio/plannio/internal/app/access"
	appbilling "github.com/plannio/plannio/internal/app/billing"
	"github.com/plannio/plannio/internal/app/directory"
	"github.com/plannio/plannio/internal/app/scheduling"
	"github.com/plannio/plannio/internal/mcpapi"
	platformcmd "github.com/plannio/plannio/internal/platform/cmd"
	bboltstore "github.com/plannio/plannio/internal/storage/bbolt"
	"github.com/plannio/plannio/internal/storage/sqlite"
)

// Config holds MCP server configuration.
type Config struct {
	DBPath     string `env:"PLANNIO_DB_PATH" envDefault:"plannio.db"`
	EventsPath string `env:"PLANNIO_EVENTS_PATH" envDefault:"events.db"`
	MCP        mcpapi.Config
}

// ParseConfig loads env defaults and parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.EventsPath, "events", cfg.EventsPath, "audit event store path")
	fs.StringVar((*string)(&cfg.MCP.Transport), "transport", string(cfg.MCP.Transport), "MCP transport (stdio)")
	if err := platformcmd.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves MCP tools until the context ends.
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
	directorySvc := directory.NewService(db, db, db, db, db, accessSvc, billingSvc, emitter, nil, nil)
	schedulingSvc := scheduling.NewService(db, db, db, db, accessSvc, billingSvc, emitter, nil, nil)

	server := mcpapi.New(mcpapi.Services{
		Directory:  directorySvc,
		Scheduling: schedulingSvc,
	}, cfg.MCP)
	return server.Serve(ctx)
}
