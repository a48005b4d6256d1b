// Package prospect defines sales leads and their pipeline rules.
package prospect

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
)

// Stage describes where a prospect sits in the sales pipeline.
type Stage int

const (
	// StageUnspecified represents an invalid pipeline stage value.
	StageUnspecified Stage = iota
	// StageLead is the entry stage for new prospects.
	StageLead
	// StageQualified indicates the prospect matches the offering.
	StageQualified
	// StageProposal indicates a proposal was sent.
	StageProposal
	// StageNegotiation indicates terms are being negotiated.
	StageNegotiation
	// StageClosedWon indicates the prospect became a customer. Terminal.
	StageClosedWon
	// StageClosedLost indicates the prospect was lost. Reopenable to LEAD.
	StageClosedLost
)

var (
	// ErrEmptyName indicates a missing prospect name.
	ErrEmptyName = apperrors.New(apperrors.CodeProspectNameEmpty, "prospect name is required")
	// ErrInvalidEstimatedValue indicates a negative estimated value.
	ErrInvalidEstimatedValue = apperrors.New(apperrors.CodeProspectInvalidValue, "estimated value must be zero or more")
)

// Prospect represents one sales lead tracked by a business.
type Prospect struct {
	ID         string
	BusinessID string
	Name       string
	Email      string
	Phone      string
	// Source is a free-form acquisition channel label.
	Source         string
	Stage          Stage
	EstimatedValue decimal.Decimal
	Notes          string
	// OwnerStaffID optionally assigns the prospect to a staff member.
	OwnerStaffID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}

// CreateInput describes the metadata needed to create a prospect.
type CreateInput struct {
	BusinessID     string
	Name           string
	Email          string
	Phone          string
	Source         string
	EstimatedValue decimal.Decimal
	Notes          string
	OwnerStaffID   string
}

// Create creates a new prospect in the LEAD stage.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Prospect, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Prospect{}, ErrEmptyName
	}
	if input.EstimatedValue.IsNegative() {
		return Prospect{}, ErrInvalidEstimatedValue
	}

	prospectID, err := idGenerator()
	if err != nil {
		return Prospect{}, fmt.Errorf("generate prospect id: %w", err)
	}

	createdAt := now().UTC()
	return Prospect{
		ID:             prospectID,
		BusinessID:     strings.TrimSpace(input.BusinessID),
		Name:           input.Name,
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:          strings.TrimSpace(input.Phone),
		Source:         strings.TrimSpace(input.Source),
		Stage:          StageLead,
		EstimatedValue: input.EstimatedValue,
		Notes:          strings.TrimSpace(input.Notes),
		OwnerStaffID:   strings.TrimSpace(input.OwnerStaffID),
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}, nil
}

// Transition moves a prospect to a new pipeline stage.
//
// Open stages advance forward one step at a time; any open stage may drop
// directly to CLOSED_LOST; CLOSED_LOST may be reopened to LEAD. CLOSED_WON is
// terminal. Closing sets ClosedAt, reopening clears it.
func Transition(p Prospect, target Stage, now func() time.Time) (Prospect, error) {
	if now == nil {
		now = time.Now
	}
	if !isStageTransitionAllowed(p.Stage, target) {
		fromStage := StageLabel(p.Stage)
		toStage := StageLabel(target)
		return Prospect{}, apperrors.WithMetadata(
			apperrors.CodeProspectInvalidStageTransition,
			fmt.Sprintf("prospect stage transition not allowed: %s -> %s", fromStage, toStage),
			map[string]string{"FromStage": fromStage, "ToStage": toStage},
		)
	}

	updatedAt := now().UTC()
	p.Stage = target
	p.UpdatedAt = updatedAt
	switch target {
	case StageClosedWon, StageClosedLost:
		p.ClosedAt = &updatedAt
	case StageLead:
		p.ClosedAt = nil
	}
	return p, nil
}

func isStageTransitionAllowed(from, to Stage) bool {
	switch from {
	case StageLead:
		return to == StageQualified || to == StageClosedLost
	case StageQualified:
		return to == StageProposal || to == StageClosedLost
	case StageProposal:
		return to == StageNegotiation || to == StageClosedLost
	case StageNegotiation:
		return to == StageClosedWon || to == StageClosedLost
	case StageClosedLost:
		return to == StageLead
	default:
		return false
	}
}

// StageLabel returns a stable label for a pipeline stage.
func StageLabel(stage Stage) string {
	switch stage {
	case StageLead:
		return "LEAD"
	case StageQualified:
		return "QUALIFIED"
	case StageProposal:
		return "PROPOSAL"
	case StageNegotiation:
		return "NEGOTIATION"
	case StageClosedWon:
		return "CLOSED_WON"
	case StageClosedLost:
		return "CLOSED_LOST"
	default:
		return "UNSPECIFIED"
	}
}

// StageFromLabel parses a string label into a Stage.
// It trims whitespace and matches case-insensitively. Both short ("LEAD")
// and prefixed ("PROSPECT_STAGE_LEAD") forms are accepted.
func StageFromLabel(value string) (Stage, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StageUnspecified, fmt.Errorf("prospect stage is required")
	}
	switch strings.ToUpper(trimmed) {
	case "LEAD", "PROSPECT_STAGE_LEAD":
		return StageLead, nil
	case "QUALIFIED", "PROSPECT_STAGE_QUALIFIED":
		return StageQualified, nil
	case "PROPOSAL", "PROSPECT_STAGE_PROPOSAL":
		return StageProposal, nil
	case "NEGOTIATION", "PROSPECT_STAGE_NEGOTIATION":
		return StageNegotiation, nil
	case "CLOSED_WON", "PROSPECT_STAGE_CLOSED_WON":
		return StageClosedWon, nil
	case "CLOSED_LOST", "PROSPECT_STAGE_CLOSED_LOST":
		return StageClosedLost, nil
	default:
		return StageUnspecified, fmt.Errorf("unknown prospect stage: %s", trimmed)
	}
}

// Stages lists all pipeline stages in order.
func Stages() []Stage {
	return []Stage{StageLead, StageQualified, StageProposal, StageNegotiation, StageClosedWon, StageClosedLost}
}
