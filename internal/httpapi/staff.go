package httpapi

import (
	"net/http"

	"github.com/plannio/plannio/internal/app/directory"
)

type createStaffRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	RoleLabel   string `json:"role_label"`
}

func (s *Server) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createStaffRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.services.Directory.CreateStaff(r.Context(), principal, r.PathValue("businessID"), directory.CreateStaffInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		RoleLabel:   req.RoleLabel,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toStaffPayload(created))
}

func (s *Server) handleListStaff(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pageSize, pageToken := pageParams(r)
	page, err := s.services.Directory.ListStaff(r.Context(), principal, r.PathValue("businessID"), pageSize, pageToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toStaffPagePayload(page))
}

func (s *Server) handleGetStaff(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	found, err := s.services.Directory.GetStaff(r.Context(), principal, r.PathValue("businessID"), r.PathValue("staffID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toStaffPayload(found))
}

type updateStaffRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	RoleLabel   string `json:"role_label"`
	Active      bool   `json:"active"`
}

func (s *Server) handleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateStaffRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.services.Directory.UpdateStaff(r.Context(), principal, r.PathValue("businessID"), r.PathValue("staffID"), directory.UpdateStaffInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		RoleLabel:   req.RoleLabel,
		Active:      req.Active,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toStaffPayload(updated))
}

func (s *Server) handleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.services.Directory.DeleteStaff(r.Context(), principal, r.PathValue("businessID"), r.PathValue("staffID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
