// Package reminder dispatches reminders for upcoming appointments and runs
// periodic billing housekeeping.
package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	appbilling "github.com/plannio/plannio/internal/app/billing"
	"github.com/plannio/plannio/internal/domain/appointment"
	"github.com/plannio/plannio/internal/storage"
)

// Notifier delivers one reminder to the customer.
type Notifier interface {
	Notify(ctx context.Context, a appointment.Appointment) error
}

// LogNotifier writes reminders to the process log. The default sink until a
// real delivery channel is wired.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, a appointment.Appointment) error {
	log.Printf("reminder: appointment %s for %s starts at %s", a.ID, a.Customer.Name, a.StartTime.Format(time.RFC3339))
	return nil
}

// Config defines the daemon's timing knobs.
type Config struct {
	// PollInterval is the wait between housekeeping ticks.
	PollInterval time.Duration `env:"PLANNIO_REMINDER_POLL_INTERVAL" envDefault:"1m"`
	// LeadWindow is how far ahead of the start time reminders go out.
	LeadWindow time.Duration `env:"PLANNIO_REMINDER_LEAD_WINDOW" envDefault:"24h"`
	// BatchSize caps the reminders processed per tick.
	BatchSize int `env:"PLANNIO_REMINDER_BATCH_SIZE" envDefault:"50"`
	// MaxAttempts bounds delivery retries before a reminder is dropped.
	MaxAttempts int `env:"PLANNIO_REMINDER_MAX_ATTEMPTS" envDefault:"3"`
	// RetryBackoff is the initial wait after a failed tick.
	RetryBackoff time.Duration `env:"PLANNIO_REMINDER_RETRY_BACKOFF" envDefault:"5s"`
	// RetryMaxDelay caps the backoff between failed ticks.
	RetryMaxDelay time.Duration `env:"PLANNIO_REMINDER_RETRY_MAX_DELAY" envDefault:"5m"`
}

// Daemon polls for confirmed appointments entering the lead window and
// dispatches reminders through the notifier.
type Daemon struct {
	appointments storage.AppointmentStore
	billing      *appbilling.Service
	notifier     Notifier
	config       Config
	now          func() time.Time
	// attempts tracks failed deliveries per appointment between ticks.
	attempts map[string]int
}

// NewDaemon creates a reminder daemon. A nil billing service skips renewal
// housekeeping; a nil notifier falls back to the log notifier.
func NewDaemon(appointments storage.AppointmentStore, billingService *appbilling.Service, notifier Notifier, config Config, now func() time.Time) *Daemon {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if config.LeadWindow <= 0 {
		config.LeadWindow = 24 * time.Hour
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 5 * time.Second
	}
	if config.RetryMaxDelay <= 0 {
		config.RetryMaxDelay = 5 * time.Minute
	}
	return &Daemon{
		appointments: appointments,
		billing:      billingService,
		notifier:     notifier,
		config:       config,
		now:          now,
		attempts:     make(map[string]int),
	}
}

// Run ticks until the context is cancelled. Failed ticks back off with a
// doubling delay up to the configured cap.
func (d *Daemon) Run(ctx context.Context) error {
	delay := d.config.PollInterval
	for {
		if err := d.tick(ctx); err != nil {
			log.Printf("reminder: tick: %v", err)
			if delay < d.config.RetryBackoff {
				delay = d.config.RetryBackoff
			} else {
				delay *= 2
			}
			if delay > d.config.RetryMaxDelay {
				delay = d.config.RetryMaxDelay
			}
		} else {
			delay = d.config.PollInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tick runs one housekeeping pass: renew lapsed subscriptions, then dispatch
// due reminders.
func (d *Daemon) tick(ctx context.Context) error {
	if d.billing != nil {
		renewed, err := d.billing.RenewIfDue(ctx)
		if err != nil {
			return fmt.Errorf("renew subscriptions: %w", err)
		}
		if renewed > 0 {
			log.Printf("reminder: renewed %d subscriptions", renewed)
		}
	}

	now := d.now().UTC()
	due, err := d.appointments.ListDueReminders(ctx, now, d.config.LeadWindow, d.config.BatchSize)
	if err != nil {
		return fmt.Errorf("list due reminders: %w", err)
	}

	for _, a := range due {
		if err := d.notifier.Notify(ctx, a); err != nil {
			d.attempts[a.ID]++
			if d.attempts[a.ID] < d.config.MaxAttempts {
				log.Printf("reminder: notify appointment %s (attempt %d): %v", a.ID, d.attempts[a.ID], err)
				continue
			}
			// Out of attempts. Mark it reminded so the poller stops
			// picking it up.
			log.Printf("reminder: dropping appointment %s after %d attempts: %v", a.ID, d.attempts[a.ID], err)
		}
		delete(d.attempts, a.ID)
		remindedAt := now
		a.RemindedAt = &remindedAt
		a.UpdatedAt = now
		if err := d.appointments.UpdateAppointment(ctx, a); err != nil {
			return fmt.Errorf("mark appointment %s reminded: %w", a.ID, err)
		}
	}
	return nil
}
