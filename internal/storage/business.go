package storage

import (
	"context"

	"github.com/plannio/plannio/internal/domain/business"
)

// BusinessFilter narrows business listings.
type BusinessFilter struct {
	// Status filters by lifecycle status when not unspecified.
	Status business.Status
	// SectorID filters by sector when set.
	SectorID string
	// Query matches against the business name, case-insensitive substring.
	Query string
}

// BusinessPage stores one page of business records.
type BusinessPage struct {
	Businesses    []business.Business
	NextPageToken string
}

// BusinessStore persists business tenant records.
type BusinessStore interface {
	CreateBusiness(ctx context.Context, b business.Business) error
	GetBusiness(ctx context.Context, id string) (business.Business, error)
	UpdateBusiness(ctx context.Context, b business.Business) error
	ListBusinesses(ctx context.Context, filter BusinessFilter, pageSize int, pageToken string) (BusinessPage, error)
	CountBusinesses(ctx context.Context, filter BusinessFilter) (int, error)
}

// SectorStore persists business sector records.
type SectorStore interface {
	CreateSector(ctx context.Context, s business.Sector) error
	GetSector(ctx context.Context, id string) (business.Sector, error)
	ListSectors(ctx context.Context) ([]business.Sector, error)
}
