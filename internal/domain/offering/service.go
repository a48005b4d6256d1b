// Package offering defines bookable services offered by a business.
package offering

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
)

const (
	// MinDurationMinutes is the shortest bookable service duration.
	MinDurationMinutes = 5
	// MaxDurationMinutes is the longest bookable service duration.
	MaxDurationMinutes = 480
)

var (
	// ErrEmptyName indicates a missing service name.
	ErrEmptyName = apperrors.New(apperrors.CodeServiceNameEmpty, "service name is required")
	// ErrInvalidPrice indicates a negative service price.
	ErrInvalidPrice = apperrors.New(apperrors.CodeServiceInvalidPrice, "service price must be zero or more")
)

// Service represents one bookable offering of a business.
type Service struct {
	ID              string
	BusinessID      string
	Name            string
	Description     string
	DurationMinutes int
	PriceAmount     decimal.Decimal
	// Currency is the ISO 4217 code for the price.
	Currency  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Duration returns the service duration as a time.Duration.
func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// CreateInput describes the metadata needed to create a service.
type CreateInput struct {
	BusinessID      string
	Name            string
	Description     string
	DurationMinutes int
	PriceAmount     decimal.Decimal
	Currency        string
}

// Create creates a new service with a generated ID and timestamps.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Service, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateInput(input)
	if err != nil {
		return Service{}, err
	}

	serviceID, err := idGenerator()
	if err != nil {
		return Service{}, fmt.Errorf("generate service id: %w", err)
	}

	createdAt := now().UTC()
	return Service{
		ID:              serviceID,
		BusinessID:      normalized.BusinessID,
		Name:            normalized.Name,
		Description:     normalized.Description,
		DurationMinutes: normalized.DurationMinutes,
		PriceAmount:     normalized.PriceAmount,
		Currency:        normalized.Currency,
		Active:          true,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}, nil
}

// NormalizeCreateInput trims and validates service input metadata.
func NormalizeCreateInput(input CreateInput) (CreateInput, error) {
	input.BusinessID = strings.TrimSpace(input.BusinessID)
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return CreateInput{}, ErrEmptyName
	}
	input.Description = strings.TrimSpace(input.Description)
	if input.DurationMinutes < MinDurationMinutes || input.DurationMinutes > MaxDurationMinutes {
		return CreateInput{}, apperrors.WithMetadata(
			apperrors.CodeServiceInvalidDuration,
			fmt.Sprintf("service duration must be between %d and %d minutes", MinDurationMinutes, MaxDurationMinutes),
			map[string]string{
				"Min": fmt.Sprintf("%d", MinDurationMinutes),
				"Max": fmt.Sprintf("%d", MaxDurationMinutes),
			},
		)
	}
	if input.PriceAmount.IsNegative() {
		return CreateInput{}, ErrInvalidPrice
	}
	currency, err := NormalizeCurrency(input.Currency)
	if err != nil {
		return CreateInput{}, err
	}
	input.Currency = currency
	return input, nil
}

// NormalizeCurrency validates an ISO 4217 currency code, defaulting to EUR.
func NormalizeCurrency(value string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return "EUR", nil
	}
	if len(trimmed) != 3 {
		return "", apperrors.WithMetadata(
			apperrors.CodeServiceInvalidCurrency,
			fmt.Sprintf("invalid currency code: %s", trimmed),
			map[string]string{"Currency": trimmed},
		)
	}
	for _, r := range trimmed {
		if r < 'A' || r > 'Z' {
			return "", apperrors.WithMetadata(
				apperrors.CodeServiceInvalidCurrency,
				fmt.Sprintf("invalid currency code: %s", trimmed),
				map[string]string{"Currency": trimmed},
			)
		}
	}
	return trimmed, nil
}
