package storage

import (
	"context"

	"github.com/plannio/plannio/internal/domain/offering"
)

// ServicePage stores one page of bookable service records.
type ServicePage struct {
	Services      []offering.Service
	NextPageToken string
}

// ServiceStore persists bookable service records.
type ServiceStore interface {
	CreateService(ctx context.Context, s offering.Service) error
	GetService(ctx context.Context, businessID, id string) (offering.Service, error)
	UpdateService(ctx context.Context, s offering.Service) error
	DeleteService(ctx context.Context, businessID, id string) error
	ListServices(ctx context.Context, businessID string, activeOnly bool, pageSize int, pageToken string) (ServicePage, error)
	CountServices(ctx context.Context, businessID string) (int, error)
}
