// Package api wires and runs the REST API server together with the
// in-process housekeeping loop.
package api

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plannio/plannio/internal/analytics"
	"github.com/plannio/plannio/internal/app/access"
	appbilling "github.com/plannio/plannio/internal/app/billing"
	"github.com/plannio/plannio/internal/app/crm"
	"github.com/plannio/plannio/internal/app/directory"
	"github.com/plannio/plannio/internal/app/scheduling"
	"github.com/plannio/plannio/internal/auth"
	"github.com/plannio/plannio/internal/httpapi"
	platformcmd "github.com/plannio/plannio/internal/platform/cmd"
	"github.com/plannio/plannio/internal/reminder"
	bboltstore "github.com/plannio/plannio/internal/storage/bbolt"
	"github.com/plannio/plannio/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// Config holds API server configuration.
type Config struct {
	Addr       string `env:"PLANNIO_HTTP_ADDR" envDefault:":8080"`
	DBPath     string `env:"PLANNIO_DB_PATH" envDefault:"plannio.db"`
	EventsPath string `env:"PLANNIO_EVENTS_PATH" envDefault:"events.db"`
	Reminder   reminder.Config
}

// ParseConfig loads env defaults and parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.EventsPath, "events", cfg.EventsPath, "audit event store path")
	if err := platformcmd.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the API server and the housekeeping loop, blocking until the
// context ends or either fails.
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

	verifier, err := auth.LoadVerifierConfigFromEnv(nil)
	if err != nil {
		return err
	}

	emitter := analytics.NewEmitter(events, nil)
	accessSvc := access.NewService(db, emitter, nil, nil)
	billingSvc := appbilling.NewService(db, db, db, db, db, accessSvc, emitter, nil, nil)
	directorySvc := directory.NewService(db, db, db, db, db, accessSvc, billingSvc, emitter, nil, nil)
	schedulingSvc := scheduling.NewService(db, db, db, db, accessSvc, billingSvc, emitter, nil, nil)
	crmSvc := crm.NewService(db, accessSvc, emitter, nil, nil)

	server := httpapi.NewServer(httpapi.Services{
		Access:     accessSvc,
		Billing:    billingSvc,
		Directory:  directorySvc,
		Scheduling: schedulingSvc,
		CRM:        crmSvc,
		Audit:      emitter,
	}, verifier)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	daemon := reminder.NewDaemon(db, billingSvc, nil, cfg.Reminder, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("api: listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := daemon.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return g.Wait()
}
