package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/plannio/plannio/internal/app/crm"
	"github.com/plannio/plannio/internal/domain/prospect"
	"github.com/plannio/plannio/internal/storage"
)

type createProspectRequest struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Source         string          `json:"source"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	Notes          string          `json:"notes"`
	OwnerStaffID   string          `json:"owner_staff_id"`
}

func (s *Server) handleCreateProspect(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createProspectRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.services.CRM.CreateProspect(r.Context(), principal, r.PathValue("businessID"), crm.CreateProspectInput{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Source:         req.Source,
		EstimatedValue: req.EstimatedValue,
		Notes:          req.Notes,
		OwnerStaffID:   req.OwnerStaffID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toProspectPayload(created))
}

func (s *Server) handleListProspects(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	query := r.URL.Query()
	filter := storage.ProspectFilter{
		OwnerStaffID: query.Get("owner_staff_id"),
		Query:        query.Get("query"),
	}
	if value := query.Get("stage"); value != "" {
		stage, err := prospect.StageFromLabel(value)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filter.Stage = stage
	}
	pageSize, pageToken := pageParams(r)
	page, err := s.services.CRM.ListProspects(r.Context(), principal, r.PathValue("businessID"), filter, pageSize, pageToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toProspectPagePayload(page))
}

func (s *Server) handleGetProspect(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	found, err := s.services.CRM.GetProspect(r.Context(), principal, r.PathValue("businessID"), r.PathValue("prospectID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toProspectPayload(found))
}

type updateProspectRequest struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Source         string          `json:"source"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	Notes          string          `json:"notes"`
	OwnerStaffID   string          `json:"owner_staff_id"`
}

func (s *Server) handleUpdateProspect(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateProspectRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.services.CRM.UpdateProspect(r.Context(), principal, r.PathValue("businessID"), r.PathValue("prospectID"), crm.UpdateProspectInput{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Source:         req.Source,
		EstimatedValue: req.EstimatedValue,
		Notes:          req.Notes,
		OwnerStaffID:   req.OwnerStaffID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toProspectPayload(updated))
}

type transitionProspectRequest struct {
	Stage string `json:"stage"`
}

func (s *Server) handleTransitionProspect(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req transitionProspectRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	stage, err := prospect.StageFromLabel(req.Stage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	moved, err := s.services.CRM.TransitionProspect(r.Context(), principal, r.PathValue("businessID"), r.PathValue("prospectID"), stage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toProspectPayload(moved))
}

func (s *Server) handleDeleteProspect(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.services.CRM.DeleteProspect(r.Context(), principal, r.PathValue("businessID"), r.PathValue("prospectID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProspectStatistics(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.services.CRM.PipelineStatistics(r.Context(), principal, r.PathValue("businessID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payload := make(map[string]stageStatsPayload, len(stats))
	for stage, entry := range stats {
		payload[prospect.StageLabel(stage)] = stageStatsPayload{
			Count:          entry.Count,
			EstimatedValue: entry.EstimatedValue,
		}
	}
	s.writeJSON(w, r, http.StatusOK, map[string]map[string]stageStatsPayload{"stages": payload})
}
