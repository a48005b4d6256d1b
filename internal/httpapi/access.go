package httpapi

import (
	"net/http"
	"time"

	"github.com/plannio/plannio/internal/app/access"
	"github.com/plannio/plannio/internal/domain/rbac"
)

type grantRoleRequest struct {
	UserID       string     `json:"user_id"`
	Role         string     `json:"role"`
	LocationID   string     `json:"location_id"`
	DepartmentID string     `json:"department_id"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

func (s *Server) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req grantRoleRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	role, err := rbac.RoleFromLabel(req.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	granted, err := s.services.Access.GrantRole(r.Context(), principal, access.GrantRoleInput{
		UserID:       req.UserID,
		BusinessID:   r.PathValue("businessID"),
		Role:         role,
		LocationID:   req.LocationID,
		DepartmentID: req.DepartmentID,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toAssignmentPayload(granted))
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	assignments, err := s.services.Access.ListAssignments(r.Context(), principal, r.PathValue("businessID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string][]assignmentPayload{"assignments": toAssignmentPayloads(assignments)})
}

func (s *Server) handleListUserAssignments(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	assignments, err := s.services.Access.ListUserAssignments(r.Context(), principal, r.PathValue("userID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string][]assignmentPayload{"assignments": toAssignmentPayloads(assignments)})
}

func (s *Server) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.services.Access.RevokeRole(r.Context(), principal, r.PathValue("assignmentID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAssignmentStatistics(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	counts, err := s.services.Access.ContextStatistics(r.Context(), principal, r.PathValue("businessID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payload := make(map[string]int, len(counts))
	for role, count := range counts {
		payload[rbac.RoleLabel(role)] = count
	}
	s.writeJSON(w, r, http.StatusOK, map[string]map[string]int{"roles": payload})
}
