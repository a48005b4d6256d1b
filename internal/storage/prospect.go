package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/plannio/plannio/internal/domain/prospect"
)

// ProspectFilter narrows prospect listings. Zero fields are ignored.
type ProspectFilter struct {
	Stage        prospect.Stage
	OwnerStaffID string
	// Query matches against the prospect name or email, case-insensitive.
	Query string
}

// ProspectPage stores one page of prospect records.
type ProspectPage struct {
	Prospects     []prospect.Prospect
	NextPageToken string
}

// ProspectStore persists sales prospect records.
type ProspectStore interface {
	CreateProspect(ctx context.Context, p prospect.Prospect) error
	GetProspect(ctx context.Context, businessID, id string) (prospect.Prospect, error)
	UpdateProspect(ctx context.Context, p prospect.Prospect) error
	DeleteProspect(ctx context.Context, businessID, id string) error
	ListProspects(ctx context.Context, businessID string, filter ProspectFilter, pageSize int, pageToken string) (ProspectPage, error)

	// ProspectStatsByStage aggregates prospects per pipeline stage.
	ProspectStatsByStage(ctx context.Context, businessID string) (map[prospect.Stage]StageStats, error)
}

// StageStats aggregates the prospects sitting in one pipeline stage.
type StageStats struct {
	Count          int
	EstimatedValue decimal.Decimal
}
