package httpapi

import (
	"net/http"

	"github.com/plannio/plannio/internal/app/directory"
	"github.com/plannio/plannio/internal/domain/business"
	"github.com/plannio/plannio/internal/storage"
)

type createBusinessRequest struct {
	Name         string `json:"name"`
	SectorID     string `json:"sector_id"`
	Locale       string `json:"locale"`
	Timezone     string `json:"timezone"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

func (s *Server) handleCreateBusiness(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createBusinessRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.services.Directory.CreateBusiness(r.Context(), principal, directory.CreateBusinessInput{
		Name:         req.Name,
		SectorID:     req.SectorID,
		Locale:       req.Locale,
		Timezone:     req.Timezone,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toBusinessPayload(created))
}

func (s *Server) handleSearchBusinesses(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filter := storage.BusinessFilter{
		SectorID: r.URL.Query().Get("sector_id"),
		Query:    r.URL.Query().Get("query"),
	}
	if value := r.URL.Query().Get("status"); value != "" {
		status, err := business.StatusFromLabel(value)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filter.Status = status
	}
	pageSize, pageToken := pageParams(r)
	page, err := s.services.Directory.SearchBusinesses(r.Context(), principal, filter, pageSize, pageToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toBusinessPagePayload(page))
}

func (s *Server) handleGetBusiness(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	found, err := s.services.Directory.GetBusiness(r.Context(), principal, r.PathValue("businessID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toBusinessPayload(found))
}

type updateBusinessRequest struct {
	Name         string `json:"name"`
	SectorID     string `json:"sector_id"`
	Locale       string `json:"locale"`
	Timezone     string `json:"timezone"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

func (s *Server) handleUpdateBusiness(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateBusinessRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.services.Directory.UpdateBusiness(r.Context(), principal, r.PathValue("businessID"), directory.UpdateBusinessInput{
		Name:         req.Name,
		SectorID:     req.SectorID,
		Locale:       req.Locale,
		Timezone:     req.Timezone,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toBusinessPayload(updated))
}

type transitionBusinessRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleTransitionBusiness(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req transitionBusinessRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := business.StatusFromLabel(req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	moved, err := s.services.Directory.TransitionBusiness(r.Context(), principal, r.PathValue("businessID"), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toBusinessPayload(moved))
}

func (s *Server) handleBusinessStatistics(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.services.Directory.BusinessStatistics(r.Context(), principal, r.PathValue("businessID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toStatisticsPayload(stats))
}

func (s *Server) handleListSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := s.services.Directory.ListSectors(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payload := make([]sectorPayload, 0, len(sectors))
	for _, sector := range sectors {
		payload = append(payload, toSectorPayload(sector))
	}
	s.writeJSON(w, r, http.StatusOK, map[string][]sectorPayload{"sectors": payload})
}

type createSectorRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateSector(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createSectorRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.services.Directory.CreateSector(r.Context(), principal, req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toSectorPayload(created))
}
