package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plannio/plannio/internal/auth"
	"github.com/plannio/plannio/internal/domain/rbac"
	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/storage"
)

type fakeAssignmentStore struct {
	assignments map[string]rbac.Assignment
}

func newFakeAssignmentStore() *fakeAssignmentStore {
	return &fakeAssignmentStore{assignments: make(map[string]rbac.Assignment)}
}

func (f *fakeAssignmentStore) CreateAssignment(_ context.Context, a rbac.Assignment) error {
	for _, existing := range f.assignments {
		if existing.ScopeKey() == a.ScopeKey() {
			return storage.ErrAlreadyExists
		}
	}
	f.assignments[a.ID] = a
	return nil
}

func (f *fakeAssignmentStore) GetAssignment(_ context.Context, id string) (rbac.Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return rbac.Assignment{}, storage.ErrNotFound
	}
	return a, nil
}

func (f *fakeAssignmentStore) DeleteAssignment(_ context.Context, id string) error {
	if _, ok := f.assignments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.assignments, id)
	return nil
}

func (f *fakeAssignmentStore) ListAssignmentsByBusiness(_ context.Context, businessID string) ([]rbac.Assignment, error) {
	var out []rbac.Assignment
	for _, a := range f.assignments {
		if a.BusinessID == businessID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentStore) ListAssignmentsByUser(_ context.Context, userID string) ([]rbac.Assignment, error) {
	var out []rbac.Assignment
	for _, a := range f.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentStore) CountAssignmentsByRole(_ context.Context, businessID string) (map[rbac.Role]int, error) {
	counts := make(map[rbac.Role]int)
	for _, a := range f.assignments {
		if a.BusinessID == businessID {
			counts[a.Role]++
		}
	}
	return counts, nil
}

func fixedNow() time.Time {
	return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
}

func newTestService(store *fakeAssignmentStore) *Service {
	counter := 0
	return NewService(store, nil, fixedNow, func() (string, error) {
		counter++
		return string(rune('a'+counter-1)) + "-assignment", nil
	})
}

func seedOwner(t *testing.T, store *fakeAssignmentStore, userID, businessID string) {
	t.Helper()
	store.assignments["seed-"+userID] = rbac.Assignment{
		ID:         "seed-" + userID,
		UserID:     userID,
		BusinessID: businessID,
		Role:       rbac.RoleOwner,
		CreatedAt:  fixedNow(),
	}
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	store := newFakeAssignmentStore()
	seedOwner(t, store, "user-owner", "biz-1")
	svc := newTestService(store)

	if err := svc.Authorize(context.Background(), auth.Principal{UserID: "user-owner"}, "biz-1", rbac.PermManageBilling); err != nil {
		t.Fatalf("owner authorize: %v", err)
	}
	if err := svc.Authorize(context.Background(), auth.Principal{UserID: "user-owner"}, "biz-2", rbac.PermManageBilling); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("cross-tenant authorize err = %v, want permission denied", err)
	}
	if err := svc.Authorize(context.Background(), auth.Principal{UserID: "stranger"}, "biz-1", rbac.PermViewReports); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("stranger authorize err = %v, want permission denied", err)
	}
	if err := svc.Authorize(context.Background(), auth.Principal{UserID: "ops", PlatformAdmin: true}, "biz-1", rbac.PermManageBusiness); err != nil {
		t.Fatalf("platform admin authorize: %v", err)
	}
	if err := svc.Authorize(context.Background(), auth.Principal{}, "biz-1", rbac.PermViewReports); apperrors.CodeOf(err) != apperrors.CodeAuthUnauthenticated {
		t.Fatalf("anonymous authorize err = %v, want unauthenticated", err)
	}
}

func TestAuthorizeIgnoresExpiredAssignments(t *testing.T) {
	t.Parallel()

	store := newFakeAssignmentStore()
	expired := fixedNow().Add(-time.Hour)
	store.assignments["old"] = rbac.Assignment{
		ID:         "old",
		UserID:     "user-1",
		BusinessID: "biz-1",
		Role:       rbac.RoleOwner,
		ExpiresAt:  &expired,
	}
	svc := newTestService(store)

	err := svc.Authorize(context.Background(), auth.Principal{UserID: "user-1"}, "biz-1", rbac.PermViewReports)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want permission denied", err)
	}
}

func TestGrantRoleHierarchy(t *testing.T) {
	t.Parallel()

	store := newFakeAssignmentStore()
	seedOwner(t, store, "user-owner", "biz-1")
	store.assignments["seed-manager"] = rbac.Assignment{
		ID:         "seed-manager",
		UserID:     "user-manager",
		BusinessID: "biz-1",
		Role:       rbac.RoleManager,
	}
	svc := newTestService(store)
	owner := auth.Principal{UserID: "user-owner"}

	granted, err := svc.GrantRole(context.Background(), owner, GrantRoleInput{
		UserID:     "user-new",
		BusinessID: "biz-1",
		Role:       rbac.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if granted.GrantedBy != "user-owner" {
		t.Fatalf("granted_by = %q", granted.GrantedBy)
	}

	// An owner cannot grant owner: the ordering is strict.
	if _, err := svc.GrantRole(context.Background(), owner, GrantRoleInput{
		UserID:     "user-new",
		BusinessID: "biz-1",
		Role:       rbac.RoleOwner,
	}); !errors.Is(err, ErrRoleNotActionable) {
		t.Fatalf("peer grant err = %v, want role not actionable", err)
	}

	// Managers lack MANAGE_ROLES entirely.
	if _, err := svc.GrantRole(context.Background(), auth.Principal{UserID: "user-manager"}, GrantRoleInput{
		UserID:     "user-new",
		BusinessID: "biz-1",
		Role:       rbac.RoleViewer,
	}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("manager grant err = %v, want permission denied", err)
	}

	// Duplicate grants surface as assignment exists.
	if _, err := svc.GrantRole(context.Background(), owner, GrantRoleInput{
		UserID:     "user-new",
		BusinessID: "biz-1",
		Role:       rbac.RoleAdmin,
	}); !errors.Is(err, ErrAssignmentExists) {
		t.Fatalf("duplicate grant err = %v, want assignment exists", err)
	}
}

func TestGrantPlatformRoleRequiresPlatformAdmin(t *testing.T) {
	t.Parallel()

	store := newFakeAssignmentStore()
	seedOwner(t, store, "user-owner", "biz-1")
	svc := newTestService(store)

	if _, err := svc.GrantRole(context.Background(), auth.Principal{UserID: "user-owner"}, GrantRoleInput{
		UserID: "user-new",
		Role:   rbac.RolePlatformAdmin,
	}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("owner platform grant err = %v, want permission denied", err)
	}

	granted, err := svc.GrantRole(context.Background(), auth.Principal{UserID: "ops", PlatformAdmin: true}, GrantRoleInput{
		UserID: "user-new",
		Role:   rbac.RolePlatformAdmin,
	})
	if err != nil {
		t.Fatalf("platform grant: %v", err)
	}
	if granted.BusinessID != "" {
		t.Fatalf("platform grant business = %q, want empty", granted.BusinessID)
	}
}

func TestRevokeRole(t *testing.T) {
	t.Parallel()

	store := newFakeAssignmentStore()
	seedOwner(t, store, "user-owner", "biz-1")
	store.assignments["target"] = rbac.Assignment{
		ID:         "target",
		UserID:     "user-staff",
		BusinessID: "biz-1",
		Role:       rbac.RoleStaff,
	}
	svc := newTestService(store)

	if err := svc.RevokeRole(context.Background(), auth.Principal{UserID: "user-owner"}, "target"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := svc.RevokeRole(context.Background(), auth.Principal{UserID: "user-owner"}, "target"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("revoke missing err = %v, want not found", err)
	}
}

func TestListUserAssignmentsScopesToSelf(t *testing.T) {
	t.Parallel()

	store := newFakeAssignmentStore()
	seedOwner(t, store, "user-owner", "biz-1")
	svc := newTestService(store)

	own, err := svc.ListUserAssignments(context.Background(), auth.Principal{UserID: "user-owner"}, "user-owner")
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(own) != 1 {
		t.Fatalf("own assignments = %d, want 1", len(own))
	}

	if _, err := svc.ListUserAssignments(context.Background(), auth.Principal{UserID: "user-other"}, "user-owner"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("foreign list err = %v, want permission denied", err)
	}
	if _, err := svc.ListUserAssignments(context.Background(), auth.Principal{UserID: "ops", PlatformAdmin: true}, "user-owner"); err != nil {
		t.Fatalf("platform admin list: %v", err)
	}
}
