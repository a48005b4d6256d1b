// Package staff defines staff members employed by a business.
package staff

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
)

var (
	// ErrEmptyDisplayName indicates a missing staff display name.
	ErrEmptyDisplayName = apperrors.New(apperrors.CodeStaffNameEmpty, "staff display name is required")
	// ErrInvalidEmail indicates a malformed staff email address.
	ErrInvalidEmail = apperrors.New(apperrors.CodeStaffInvalidEmail, "staff email is invalid")
)

// Member represents one staff member of a business.
type Member struct {
	ID          string
	BusinessID  string
	DisplayName string
	// Email is normalized to lowercase; unique per business when set.
	Email string
	// RoleLabel is a free-form job title, not an access role.
	RoleLabel string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput describes the metadata needed to create a staff member.
type CreateInput struct {
	BusinessID  string
	DisplayName string
	Email       string
	RoleLabel   string
}

// Create creates a new staff member with a generated ID and timestamps.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Member, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateInput(input)
	if err != nil {
		return Member{}, err
	}

	staffID, err := idGenerator()
	if err != nil {
		return Member{}, fmt.Errorf("generate staff id: %w", err)
	}

	createdAt := now().UTC()
	return Member{
		ID:          staffID,
		BusinessID:  normalized.BusinessID,
		DisplayName: normalized.DisplayName,
		Email:       normalized.Email,
		RoleLabel:   normalized.RoleLabel,
		Active:      true,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// NormalizeCreateInput trims and validates staff input metadata.
func NormalizeCreateInput(input CreateInput) (CreateInput, error) {
	input.BusinessID = strings.TrimSpace(input.BusinessID)
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if input.DisplayName == "" {
		return CreateInput{}, ErrEmptyDisplayName
	}
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return CreateInput{}, err
	}
	input.Email = email
	input.RoleLabel = strings.TrimSpace(input.RoleLabel)
	return input, nil
}

// NormalizeEmail lowercases and validates an optional email address.
func NormalizeEmail(value string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "", nil
	}
	at := strings.Index(trimmed, "@")
	if at <= 0 || at == len(trimmed)-1 || strings.Count(trimmed, "@") != 1 {
		return "", ErrInvalidEmail
	}
	if strings.ContainsAny(trimmed, " \t") {
		return "", ErrInvalidEmail
	}
	return trimmed, nil
}
