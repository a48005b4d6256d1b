package storage

import (
	"context"

	"github.com/plannio/plannio/internal/domain/staff"
)

// StaffPage stores one page of staff records.
type StaffPage struct {
	Members       []staff.Member
	NextPageToken string
}

// StaffStore persists staff member records.
type StaffStore interface {
	CreateStaff(ctx context.Context, m staff.Member) error
	GetStaff(ctx context.Context, businessID, id string) (staff.Member, error)
	UpdateStaff(ctx context.Context, m staff.Member) error
	DeleteStaff(ctx context.Context, businessID, id string) error
	ListStaff(ctx context.Context, businessID string, pageSize int, pageToken string) (StaffPage, error)
	CountStaff(ctx context.Context, businessID string) (int, error)
}
