package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/plannio/plannio/internal/app/scheduling"
	"github.com/plannio/plannio/internal/auth"
	"github.com/plannio/plannio/internal/domain/appointment"
	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/storage"
)

type bookAppointmentRequest struct {
	CalendarID string          `json:"calendar_id"`
	ServiceID  string          `json:"service_id"`
	Customer   customerPayload `json:"customer"`
	StartTime  time.Time       `json:"start_time"`
	Notes      string          `json:"notes"`
}

func (s *Server) handleBookAppointment(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req bookAppointmentRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	booked, err := s.services.Scheduling.BookAppointment(r.Context(), principal, r.PathValue("businessID"), scheduling.BookInput{
		CalendarID: req.CalendarID,
		ServiceID:  req.ServiceID,
		Customer: appointment.Customer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		StartTime: req.StartTime,
		Notes:     req.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toAppointmentPayload(booked))
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	query := r.URL.Query()
	filter := storage.AppointmentFilter{
		CalendarID: query.Get("calendar_id"),
		StaffID:    query.Get("staff_id"),
		ServiceID:  query.Get("service_id"),
	}
	if value := query.Get("status"); value != "" {
		status, err := appointment.StatusFromLabel(value)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filter.Status = status
	}
	for name, target := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		value := query.Get(name)
		if value == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			s.writeError(w, r, apperrors.New(apperrors.CodeInvalidRequest, name+" query parameter must be RFC 3339"))
			return
		}
		*target = parsed
	}
	pageSize, pageToken := pageParams(r)
	page, err := s.services.Scheduling.ListAppointments(r.Context(), principal, r.PathValue("businessID"), filter, pageSize, pageToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toAppointmentPagePayload(page))
}

func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	found, err := s.services.Scheduling.GetAppointment(r.Context(), principal, r.PathValue("businessID"), r.PathValue("appointmentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toAppointmentPayload(found))
}

type updateAppointmentRequest struct {
	Notes    string          `json:"notes"`
	Customer customerPayload `json:"customer"`
}

func (s *Server) handleUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateAppointmentRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.services.Scheduling.UpdateAppointment(r.Context(), principal, r.PathValue("businessID"), r.PathValue("appointmentID"), scheduling.UpdateAppointmentInput{
		Notes: req.Notes,
		Customer: appointment.Customer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toAppointmentPayload(updated))
}

func (s *Server) handleConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	s.handleAppointmentTransition(w, r, s.services.Scheduling.ConfirmAppointment)
}

func (s *Server) handleCompleteAppointment(w http.ResponseWriter, r *http.Request) {
	s.handleAppointmentTransition(w, r, s.services.Scheduling.CompleteAppointment)
}

func (s *Server) handleNoShowAppointment(w http.ResponseWriter, r *http.Request) {
	s.handleAppointmentTransition(w, r, s.services.Scheduling.MarkNoShow)
}

func (s *Server) handleAppointmentTransition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, principal auth.Principal, businessID, appointmentID string) (appointment.Appointment, error)) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	moved, err := apply(r.Context(), principal, r.PathValue("businessID"), r.PathValue("appointmentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toAppointmentPayload(moved))
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req cancelAppointmentRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	cancelled, err := s.services.Scheduling.CancelAppointment(r.Context(), principal, r.PathValue("businessID"), r.PathValue("appointmentID"), req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toAppointmentPayload(cancelled))
}

type rescheduleAppointmentRequest struct {
	StartTime time.Time `json:"start_time"`
}

func (s *Server) handleRescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req rescheduleAppointmentRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	moved, err := s.services.Scheduling.RescheduleAppointment(r.Context(), principal, r.PathValue("businessID"), r.PathValue("appointmentID"), req.StartTime)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toAppointmentPayload(moved))
}
