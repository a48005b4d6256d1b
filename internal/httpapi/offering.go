package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/plannio/plannio/internal/app/directory"
)

type createServiceRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"duration_minutes"`
	PriceAmount     decimal.Decimal `json:"price_amount"`
	Currency        string          `json:"currency"`
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createServiceRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.services.Directory.CreateService(r.Context(), principal, r.PathValue("businessID"), directory.CreateServiceInput{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceAmount:     req.PriceAmount,
		Currency:        req.Currency,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toServicePayload(created))
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	activeOnly := r.URL.Query().Get("active_only") == "true"
	pageSize, pageToken := pageParams(r)
	page, err := s.services.Directory.ListServices(r.Context(), principal, r.PathValue("businessID"), activeOnly, pageSize, pageToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toServicePagePayload(page))
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	found, err := s.services.Directory.GetService(r.Context(), principal, r.PathValue("businessID"), r.PathValue("serviceID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toServicePayload(found))
}

type updateServiceRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"duration_minutes"`
	PriceAmount     decimal.Decimal `json:"price_amount"`
	Currency        string          `json:"currency"`
	Active          bool            `json:"active"`
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateServiceRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.services.Directory.UpdateService(r.Context(), principal, r.PathValue("businessID"), r.PathValue("serviceID"), directory.UpdateServiceInput{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceAmount:     req.PriceAmount,
		Currency:        req.Currency,
		Active:          req.Active,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toServicePayload(updated))
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.services.Directory.DeleteService(r.Context(), principal, r.PathValue("businessID"), r.PathValue("serviceID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
