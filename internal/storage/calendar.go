package storage

import (
	"context"

	"github.com/plannio/plannio/internal/domain/calendar"
)

// CalendarPage stores one page of calendar records.
type CalendarPage struct {
	Calendars     []calendar.Calendar
	NextPageToken string
}

// CalendarStore persists calendar records and their working hours.
type CalendarStore interface {
	CreateCalendar(ctx context.Context, c calendar.Calendar) error
	GetCalendar(ctx context.Context, businessID, id string) (calendar.Calendar, error)
	UpdateCalendar(ctx context.Context, c calendar.Calendar) error
	DeleteCalendar(ctx context.Context, businessID, id string) error
	ListCalendars(ctx context.Context, businessID string, pageSize int, pageToken string) (CalendarPage, error)
	CountCalendars(ctx context.Context, businessID string) (int, error)
}
