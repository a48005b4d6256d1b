// Package crm tracks sales prospects through the pipeline.
package crm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plannio/plannio/internal/analytics"
	"github.com/plannio/plannio/internal/app/access"
	"github.com/plannio/plannio/internal/auth"
	"github.com/plannio/plannio/internal/domain/prospect"
	"github.com/plannio/plannio/internal/domain/rbac"
	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
	"github.com/plannio/plannio/internal/storage"
)

// Service implements the prospect pipeline use-cases.
type Service struct {
	prospects   storage.ProspectStore
	access      *access.Service
	analytics   *analytics.Emitter
	now         func() time.Time
	idGenerator func() (string, error)
}

// NewService creates a crm service.
func NewService(prospects storage.ProspectStore, accessService *access.Service, emitter *analytics.Emitter, now func() time.Time, idGenerator func() (string, error)) *Service {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return &Service{
		prospects:   prospects,
		access:      accessService,
		analytics:   emitter,
		now:         now,
		idGenerator: idGenerator,
	}
}

// CreateProspectInput describes a prospect creation request.
type CreateProspectInput struct {
	Name           string
	Email          string
	Phone          string
	Source         string
	EstimatedValue decimal.Decimal
	Notes          string
	OwnerStaffID   string
}

// CreateProspect records a new sales lead.
func (s *Service) CreateProspect(ctx context.Context, principal auth.Principal, businessID string, input CreateProspectInput) (prospect.Prospect, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageProspects); err != nil {
		return prospect.Prospect{}, err
	}
	created, err := prospect.Create(prospect.CreateInput{
		BusinessID:     businessID,
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		Source:         input.Source,
		EstimatedValue: input.EstimatedValue,
		Notes:          input.Notes,
		OwnerStaffID:   input.OwnerStaffID,
	}, s.now, s.idGenerator)
	if err != nil {
		return prospect.Prospect{}, err
	}
	if err := s.prospects.CreateProspect(ctx, created); err != nil {
		return prospect.Prospect{}, fmt.Errorf("create prospect: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "prospect.created", created.ID, map[string]string{
		"name": created.Name,
	})
	return created, nil
}

// GetProspect returns one prospect of a business.
func (s *Service) GetProspect(ctx context.Context, principal auth.Principal, businessID, prospectID string) (prospect.Prospect, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermViewProspects); err != nil {
		return prospect.Prospect{}, err
	}
	return s.loadProspect(ctx, businessID, prospectID)
}

// ListProspects returns one page of prospects matching the filter.
func (s *Service) ListProspects(ctx context.Context, principal auth.Principal, businessID string, filter storage.ProspectFilter, pageSize int, pageToken string) (storage.ProspectPage, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermViewProspects); err != nil {
		return storage.ProspectPage{}, err
	}
	return s.prospects.ListProspects(ctx, businessID, filter, pageSize, pageToken)
}

// UpdateProspectInput carries the mutable prospect fields.
type UpdateProspectInput struct {
	Name           string
	Email          string
	Phone          string
	Source         string
	EstimatedValue decimal.Decimal
	Notes          string
	OwnerStaffID   string
}

// UpdateProspect replaces the contact and qualification details of a
// prospect. Stage moves through TransitionProspect.
func (s *Service) UpdateProspect(ctx context.Context, principal auth.Principal, businessID, prospectID string, input UpdateProspectInput) (prospect.Prospect, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageProspects); err != nil {
		return prospect.Prospect{}, err
	}
	current, err := s.loadProspect(ctx, businessID, prospectID)
	if err != nil {
		return prospect.Prospect{}, err
	}

	// Revalidate through the creation rules to keep one set of invariants.
	validated, err := prospect.Create(prospect.CreateInput{
		BusinessID:     businessID,
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		Source:         input.Source,
		EstimatedValue: input.EstimatedValue,
		Notes:          input.Notes,
		OwnerStaffID:   input.OwnerStaffID,
	}, s.now, s.idGenerator)
	if err != nil {
		return prospect.Prospect{}, err
	}

	current.Name = validated.Name
	current.Email = validated.Email
	current.Phone = validated.Phone
	current.Source = validated.Source
	current.EstimatedValue = validated.EstimatedValue
	current.Notes = validated.Notes
	current.OwnerStaffID = validated.OwnerStaffID
	current.UpdatedAt = s.now().UTC()

	if err := s.prospects.UpdateProspect(ctx, current); err != nil {
		return prospect.Prospect{}, fmt.Errorf("update prospect: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "prospect.updated", current.ID, nil)
	return current, nil
}

// TransitionProspect moves a prospect to another pipeline stage.
func (s *Service) TransitionProspect(ctx context.Context, principal auth.Principal, businessID, prospectID string, target prospect.Stage) (prospect.Prospect, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageProspects); err != nil {
		return prospect.Prospect{}, err
	}
	current, err := s.loadProspect(ctx, businessID, prospectID)
	if err != nil {
		return prospect.Prospect{}, err
	}
	moved, err := prospect.Transition(current, target, s.now)
	if err != nil {
		return prospect.Prospect{}, err
	}
	if err := s.prospects.UpdateProspect(ctx, moved); err != nil {
		return prospect.Prospect{}, fmt.Errorf("update prospect: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "prospect.stage_changed", moved.ID, map[string]string{
		"stage": prospect.StageLabel(moved.Stage),
	})
	return moved, nil
}

// DeleteProspect removes a prospect.
func (s *Service) DeleteProspect(ctx context.Context, principal auth.Principal, businessID, prospectID string) error {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageProspects); err != nil {
		return err
	}
	if err := s.prospects.DeleteProspect(ctx, businessID, prospectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "prospect not found")
		}
		return fmt.Errorf("delete prospect: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "prospect.deleted", prospectID, nil)
	return nil
}

// PipelineStatistics returns prospect counts and estimated value totals per
// pipeline stage.
func (s *Service) PipelineStatistics(ctx context.Context, principal auth.Principal, businessID string) (map[prospect.Stage]storage.StageStats, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermViewProspects); err != nil {
		return nil, err
	}
	stats, err := s.prospects.ProspectStatsByStage(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("prospect stats by stage: %w", err)
	}
	return stats, nil
}

func (s *Service) loadProspect(ctx context.Context, businessID, prospectID string) (prospect.Prospect, error) {
	p, err := s.prospects.GetProspect(ctx, businessID, prospectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return prospect.Prospect{}, apperrors.New(apperrors.CodeNotFound, "prospect not found")
		}
		return prospect.Prospect{}, fmt.Errorf("get prospect: %w", err)
	}
	return p, nil
}

func (s *Service) audit(ctx context.Context, businessID, actorID, action, entityID string, metadata map[string]string) {
	err := s.analytics.Emit(ctx, analytics.Event{
		BusinessID: businessID,
		ActorID:    actorID,
		Action:     action,
		Entity:     "prospect",
		EntityID:   entityID,
		Metadata:   metadata,
	})
	if err != nil {
		log.Printf("crm: emit audit event: %v", err)
	}
}
