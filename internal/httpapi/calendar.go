package httpapi

import (
	"net/http"
	"time"

	"github.com/plannio/plannio/internal/app/directory"
	"github.com/plannio/plannio/internal/domain/calendar"
	apperrors "github.com/plannio/plannio/internal/platform/errors"
)

type createCalendarRequest struct {
	Name     string           `json:"name"`
	Kind     string           `json:"kind"`
	StaffID  string           `json:"staff_id"`
	Timezone string           `json:"timezone"`
	Hours    weekHoursPayload `json:"hours"`
}

func (s *Server) handleCreateCalendar(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createCalendarRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	kind, err := calendar.KindFromLabel(req.Kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.services.Directory.CreateCalendar(r.Context(), principal, r.PathValue("businessID"), directory.CreateCalendarInput{
		Name:     req.Name,
		Kind:     kind,
		StaffID:  req.StaffID,
		Timezone: req.Timezone,
		Hours:    fromWeekHoursPayload(req.Hours),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toCalendarPayload(created))
}

func (s *Server) handleListCalendars(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pageSize, pageToken := pageParams(r)
	page, err := s.services.Directory.ListCalendars(r.Context(), principal, r.PathValue("businessID"), pageSize, pageToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toCalendarPagePayload(page))
}

func (s *Server) handleGetCalendar(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	found, err := s.services.Directory.GetCalendar(r.Context(), principal, r.PathValue("businessID"), r.PathValue("calendarID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toCalendarPayload(found))
}

type updateCalendarRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	Active   bool   `json:"active"`
}

func (s *Server) handleUpdateCalendar(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateCalendarRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.services.Directory.UpdateCalendar(r.Context(), principal, r.PathValue("businessID"), r.PathValue("calendarID"), directory.UpdateCalendarInput{
		Name:     req.Name,
		Timezone: req.Timezone,
		Active:   req.Active,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toCalendarPayload(updated))
}

type updateCalendarHoursRequest struct {
	Hours weekHoursPayload `json:"hours"`
}

func (s *Server) handleUpdateCalendarHours(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateCalendarHoursRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.services.Directory.UpdateCalendarHours(r.Context(), principal, r.PathValue("businessID"), r.PathValue("calendarID"), fromWeekHoursPayload(req.Hours))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toCalendarPayload(updated))
}

func (s *Server) handleDeleteCalendar(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.services.Directory.DeleteCalendar(r.Context(), principal, r.PathValue("businessID"), r.PathValue("calendarID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	serviceID := r.URL.Query().Get("service_id")
	if serviceID == "" {
		s.writeError(w, r, apperrors.New(apperrors.CodeInvalidRequest, "service_id query parameter is required"))
		return
	}
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, r, apperrors.New(apperrors.CodeInvalidRequest, "date query parameter must be YYYY-MM-DD"))
		return
	}
	slots, err := s.services.Scheduling.ListAvailableSlots(r.Context(), principal, r.PathValue("businessID"), r.PathValue("calendarID"), serviceID, day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string][]slotPayload{"slots": toSlotPayloads(slots)})
}
