// Package business defines the tenant aggregate and its lifecycle rules.
package business

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
)

// Status describes the lifecycle of a business tenant.
type Status int

const (
	// StatusUnspecified represents an invalid business status value.
	StatusUnspecified Status = iota
	// StatusActive indicates the business is operating.
	StatusActive
	// StatusSuspended indicates the business is temporarily disabled.
	StatusSuspended
	// StatusArchived indicates the business is permanently closed. Terminal.
	StatusArchived
)

var (
	// ErrEmptyName indicates a missing business name.
	ErrEmptyName = apperrors.New(apperrors.CodeBusinessNameEmpty, "business name is required")
)

// Business represents one tenant: a company owning services, staff, and calendars.
type Business struct {
	ID       string
	Name     string
	SectorID string
	// Locale is the preferred locale for customer-facing messages.
	Locale string
	// Timezone is the IANA timezone name used as the default for calendars.
	Timezone     string
	Status       Status
	ContactEmail string
	ContactPhone string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateInput describes the metadata needed to create a business.
type CreateInput struct {
	Name         string
	SectorID     string
	Locale       string
	Timezone     string
	ContactEmail string
	ContactPhone string
}

// Create creates a new business with a generated ID and timestamps.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Business, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateInput(input)
	if err != nil {
		return Business{}, err
	}

	businessID, err := idGenerator()
	if err != nil {
		return Business{}, fmt.Errorf("generate business id: %w", err)
	}

	createdAt := now().UTC()
	return Business{
		ID:           businessID,
		Name:         normalized.Name,
		SectorID:     normalized.SectorID,
		Locale:       normalized.Locale,
		Timezone:     normalized.Timezone,
		Status:       StatusActive,
		ContactEmail: normalized.ContactEmail,
		ContactPhone: normalized.ContactPhone,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// NormalizeCreateInput trims and validates business input metadata.
func NormalizeCreateInput(input CreateInput) (CreateInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return CreateInput{}, ErrEmptyName
	}
	input.SectorID = strings.TrimSpace(input.SectorID)
	input.Locale = strings.TrimSpace(input.Locale)
	if input.Locale == "" {
		input.Locale = "en-US"
	}
	timezone, err := NormalizeTimezone(input.Timezone)
	if err != nil {
		return CreateInput{}, err
	}
	input.Timezone = timezone
	input.ContactEmail = strings.ToLower(strings.TrimSpace(input.ContactEmail))
	input.ContactPhone = strings.TrimSpace(input.ContactPhone)
	return input, nil
}

// NormalizeTimezone validates an IANA timezone name, defaulting to UTC.
func NormalizeTimezone(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "UTC", nil
	}
	if _, err := time.LoadLocation(trimmed); err != nil {
		return "", apperrors.WithMetadata(
			apperrors.CodeBusinessInvalidTimezone,
			fmt.Sprintf("invalid timezone: %s", trimmed),
			map[string]string{"Timezone": trimmed},
		)
	}
	return trimmed, nil
}

// TransitionStatus applies a status transition and updates timestamps.
func TransitionStatus(b Business, target Status, now func() time.Time) (Business, error) {
	if now == nil {
		now = time.Now
	}
	if !isStatusTransitionAllowed(b.Status, target) {
		fromStatus := StatusLabel(b.Status)
		toStatus := StatusLabel(target)
		return Business{}, apperrors.WithMetadata(
			apperrors.CodeBusinessInvalidStatusTransition,
			fmt.Sprintf("business status transition not allowed: %s -> %s", fromStatus, toStatus),
			map[string]string{"FromStatus": fromStatus, "ToStatus": toStatus},
		)
	}

	updated := b
	updated.Status = target
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

func isStatusTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusActive:
		return to == StatusSuspended || to == StatusArchived
	case StatusSuspended:
		return to == StatusActive || to == StatusArchived
	default:
		return false
	}
}

// StatusLabel returns a stable label for a business status.
func StatusLabel(status Status) string {
	switch status {
	case StatusActive:
		return "ACTIVE"
	case StatusSuspended:
		return "SUSPENDED"
	case StatusArchived:
		return "ARCHIVED"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel parses a string label into a Status.
// It trims whitespace and matches case-insensitively. Both short ("ACTIVE")
// and prefixed ("BUSINESS_STATUS_ACTIVE") forms are accepted.
func StatusFromLabel(value string) (Status, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StatusUnspecified, fmt.Errorf("business status is required")
	}
	switch strings.ToUpper(trimmed) {
	case "ACTIVE", "BUSINESS_STATUS_ACTIVE":
		return StatusActive, nil
	case "SUSPENDED", "BUSINESS_STATUS_SUSPENDED":
		return StatusSuspended, nil
	case "ARCHIVED", "BUSINESS_STATUS_ARCHIVED":
		return StatusArchived, nil
	default:
		return StatusUnspecified, fmt.Errorf("unknown business status: %s", trimmed)
	}
}
