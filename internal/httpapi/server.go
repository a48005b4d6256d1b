// Package httpapi exposes the application services as a JSON REST API.
package httpapi

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/plannio/plannio/internal/analytics"
	"github.com/plannio/plannio/internal/app/access"
	"github.com/plannio/plannio/internal/app/billing"
	"github.com/plannio/plannio/internal/app/crm"
	"github.com/plannio/plannio/internal/app/directory"
	"github.com/plannio/plannio/internal/app/scheduling"
	"github.com/plannio/plannio/internal/auth"
	"github.com/plannio/plannio/internal/httpapi/routepath"
	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/httpx"
	i18ncatalog "github.com/plannio/plannio/internal/platform/i18n/catalog"
)

// Services bundles the application services served by the API.
type Services struct {
	Access     *access.Service
	Billing    *billing.Service
	Directory  *directory.Service
	Scheduling *scheduling.Service
	CRM        *crm.Service
	Audit      *analytics.Emitter
}

// Server routes HTTP requests to the application services.
type Server struct {
	services Services
	verifier auth.VerifierConfig
	locales  *localePicker
}

// NewServer creates the REST server. Tokens are verified against the given
// verifier configuration.
func NewServer(services Services, verifier auth.VerifierConfig) *Server {
	return &Server{
		services: services,
		verifier: verifier,
		locales:  newLocalePicker(i18ncatalog.Default()),
	}
}

// Handler returns the fully assembled HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	handler := httpx.Chain(mux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		s.authenticate(),
	)
	return otelhttp.NewHandler(handler, "httpapi")
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+routepath.Up, s.handleUp)

	mux.HandleFunc("POST "+routepath.Businesses, s.handleCreateBusiness)
	mux.HandleFunc("GET "+routepath.Businesses, s.handleSearchBusinesses)
	mux.HandleFunc("GET "+routepath.Business, s.handleGetBusiness)
	mux.HandleFunc("PUT "+routepath.Business, s.handleUpdateBusiness)
	mux.HandleFunc("POST "+routepath.BusinessTransition, s.handleTransitionBusiness)
	mux.HandleFunc("GET "+routepath.BusinessStatistics, s.handleBusinessStatistics)

	mux.HandleFunc("GET "+routepath.Sectors, s.handleListSectors)
	mux.HandleFunc("POST "+routepath.Sectors, s.handleCreateSector)

	mux.HandleFunc("POST "+routepath.Staff, s.handleCreateStaff)
	mux.HandleFunc("GET "+routepath.Staff, s.handleListStaff)
	mux.HandleFunc("GET "+routepath.StaffMember, s.handleGetStaff)
	mux.HandleFunc("PUT "+routepath.StaffMember, s.handleUpdateStaff)
	mux.HandleFunc("DELETE "+routepath.StaffMember, s.handleDeleteStaff)

	mux.HandleFunc("POST "+routepath.Services, s.handleCreateService)
	mux.HandleFunc("GET "+routepath.Services, s.handleListServices)
	mux.HandleFunc("GET "+routepath.Service, s.handleGetService)
	mux.HandleFunc("PUT "+routepath.Service, s.handleUpdateService)
	mux.HandleFunc("DELETE "+routepath.Service, s.handleDeleteService)

	mux.HandleFunc("POST "+routepath.Calendars, s.handleCreateCalendar)
	mux.HandleFunc("GET "+routepath.Calendars, s.handleListCalendars)
	mux.HandleFunc("GET "+routepath.Calendar, s.handleGetCalendar)
	mux.HandleFunc("PUT "+routepath.Calendar, s.handleUpdateCalendar)
	mux.HandleFunc("DELETE "+routepath.Calendar, s.handleDeleteCalendar)
	mux.HandleFunc("PUT "+routepath.CalendarHours, s.handleUpdateCalendarHours)
	mux.HandleFunc("GET "+routepath.CalendarSlots, s.handleListSlots)

	mux.HandleFunc("POST "+routepath.Appointments, s.handleBookAppointment)
	mux.HandleFunc("GET "+routepath.Appointments, s.handleListAppointments)
	mux.HandleFunc("GET "+routepath.Appointment, s.handleGetAppointment)
	mux.HandleFunc("PUT "+routepath.Appointment, s.handleUpdateAppointment)
	mux.HandleFunc("POST "+routepath.AppointmentConfirm, s.handleConfirmAppointment)
	mux.HandleFunc("POST "+routepath.AppointmentReschedule, s.handleRescheduleAppointment)
	mux.HandleFunc("POST "+routepath.AppointmentCancel, s.handleCancelAppointment)
	mux.HandleFunc("POST "+routepath.AppointmentComplete, s.handleCompleteAppointment)
	mux.HandleFunc("POST "+routepath.AppointmentNoShow, s.handleNoShowAppointment)

	mux.HandleFunc("POST "+routepath.Prospects, s.handleCreateProspect)
	mux.HandleFunc("GET "+routepath.Prospects, s.handleListProspects)
	mux.HandleFunc("GET "+routepath.ProspectStatistics, s.handleProspectStatistics)
	mux.HandleFunc("GET "+routepath.Prospect, s.handleGetProspect)
	mux.HandleFunc("PUT "+routepath.Prospect, s.handleUpdateProspect)
	mux.HandleFunc("DELETE "+routepath.Prospect, s.handleDeleteProspect)
	mux.HandleFunc("POST "+routepath.ProspectTransition, s.handleTransitionProspect)

	mux.HandleFunc("POST "+routepath.RoleAssignments, s.handleGrantRole)
	mux.HandleFunc("GET "+routepath.RoleAssignments, s.handleListAssignments)
	mux.HandleFunc("GET "+routepath.RoleAssignmentStatistics, s.handleAssignmentStatistics)
	mux.HandleFunc("DELETE "+routepath.RoleAssignment, s.handleRevokeRole)
	mux.HandleFunc("GET "+routepath.UserRoleAssignments, s.handleListUserAssignments)

	mux.HandleFunc("GET "+routepath.Subscription, s.handleGetSubscription)
	mux.HandleFunc("PUT "+routepath.SubscriptionPlan, s.handleChangePlan)
	mux.HandleFunc("POST "+routepath.SubscriptionCancel, s.handleCancelSubscription)
	mux.HandleFunc("GET "+routepath.SubscriptionUsage, s.handleGetUsage)
	mux.HandleFunc("GET "+routepath.SubscriptionCycles, s.handleListCycles)
	mux.HandleFunc("GET "+routepath.Plans, s.handleListPlans)

	mux.HandleFunc("GET "+routepath.Events, s.handleListEvents)
}

// authenticate validates bearer tokens and attaches the principal to the
// request context. Requests without an Authorization header pass through
// unauthenticated; handlers that need a caller reject them.
func (s *Server) authenticate() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				s.writeError(w, r, apperrors.New(apperrors.CodeAuthUnauthenticated, "authorization header must use the Bearer scheme"))
				return
			}
			principal, err := auth.ValidateAccessToken(token, s.verifier)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

func principalFrom(r *http.Request) (auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, apperrors.New(apperrors.CodeAuthUnauthenticated, "authentication is required")
	}
	return principal, nil
}

func (s *Server) handleUp(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
