// Package calendar defines schedulable resources and their working hours.
package calendar

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
)

// Kind describes what kind of resource a calendar schedules.
type Kind int

const (
	// KindUnspecified represents an invalid calendar kind value.
	KindUnspecified Kind = iota
	// KindStaff schedules one staff member.
	KindStaff
	// KindRoom schedules a physical room or piece of equipment.
	KindRoom
	// KindBusiness schedules the business as a whole.
	KindBusiness
)

var (
	// ErrEmptyName indicates a missing calendar name.
	ErrEmptyName = apperrors.New(apperrors.CodeCalendarNameEmpty, "calendar name is required")
	// ErrInvalidKind indicates a missing or invalid calendar kind.
	ErrInvalidKind = apperrors.New(apperrors.CodeCalendarInvalidKind, "calendar kind is required")
	// ErrStaffRequired indicates a staff calendar without a staff reference.
	ErrStaffRequired = apperrors.New(apperrors.CodeCalendarStaffRequired, "staff calendar requires a staff id")
)

// Calendar represents one schedulable resource owned by a business.
type Calendar struct {
	ID         string
	BusinessID string
	Name       string
	Kind       Kind
	// StaffID is required iff Kind is KindStaff.
	StaffID string
	// Timezone is the IANA timezone working hours are evaluated in.
	Timezone  string
	Active    bool
	Hours     WeekHours
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput describes the metadata needed to create a calendar.
type CreateInput struct {
	BusinessID string
	Name       string
	Kind       Kind
	StaffID    string
	// Timezone inherits the business default when empty.
	Timezone string
	Hours    WeekHours
}

// Create creates a new calendar with a generated ID and timestamps.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Calendar, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateInput(input)
	if err != nil {
		return Calendar{}, err
	}

	calendarID, err := idGenerator()
	if err != nil {
		return Calendar{}, fmt.Errorf("generate calendar id: %w", err)
	}

	createdAt := now().UTC()
	return Calendar{
		ID:         calendarID,
		BusinessID: normalized.BusinessID,
		Name:       normalized.Name,
		Kind:       normalized.Kind,
		StaffID:    normalized.StaffID,
		Timezone:   normalized.Timezone,
		Active:     true,
		Hours:      normalized.Hours,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, nil
}

// NormalizeCreateInput trims and validates calendar input metadata.
func NormalizeCreateInput(input CreateInput) (CreateInput, error) {
	input.BusinessID = strings.TrimSpace(input.BusinessID)
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return CreateInput{}, ErrEmptyName
	}
	if input.Kind == KindUnspecified {
		return CreateInput{}, ErrInvalidKind
	}
	input.StaffID = strings.TrimSpace(input.StaffID)
	if input.Kind == KindStaff && input.StaffID == "" {
		return CreateInput{}, ErrStaffRequired
	}
	if input.Kind != KindStaff {
		input.StaffID = ""
	}
	timezone := strings.TrimSpace(input.Timezone)
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return CreateInput{}, apperrors.WithMetadata(
			apperrors.CodeCalendarInvalidTimezone,
			fmt.Sprintf("invalid timezone: %s", timezone),
			map[string]string{"Timezone": timezone},
		)
	}
	input.Timezone = timezone
	normalizedHours, err := NormalizeWeekHours(input.Hours)
	if err != nil {
		return CreateInput{}, err
	}
	input.Hours = normalizedHours
	return input, nil
}

// KindLabel returns a stable label for a calendar kind.
func KindLabel(kind Kind) string {
	switch kind {
	case KindStaff:
		return "STAFF"
	case KindRoom:
		return "ROOM"
	case KindBusiness:
		return "BUSINESS"
	default:
		return "UNSPECIFIED"
	}
}

// KindFromLabel parses a string label into a Kind.
// It trims whitespace and matches case-insensitively. Both short ("STAFF")
// and prefixed ("CALENDAR_KIND_STAFF") forms are accepted.
func KindFromLabel(value string) (Kind, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return KindUnspecified, fmt.Errorf("calendar kind is required")
	}
	switch strings.ToUpper(trimmed) {
	case "STAFF", "CALENDAR_KIND_STAFF":
		return KindStaff, nil
	case "ROOM", "CALENDAR_KIND_ROOM":
		return KindRoom, nil
	case "BUSINESS", "CALENDAR_KIND_BUSINESS":
		return KindBusiness, nil
	default:
		return KindUnspecified, fmt.Errorf("unknown calendar kind: %s", trimmed)
	}
}
