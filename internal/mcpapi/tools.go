package mcpapi

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/plannio/plannio/internal/app/directory"
	"github.com/plannio/plannio/internal/app/scheduling"
	"github.com/plannio/plannio/internal/auth"
	"github.com/plannio/plannio/internal/domain/appointment"
	"github.com/plannio/plannio/internal/domain/business"
	"github.com/plannio/plannio/internal/storage"
)

// toolTimeout bounds each tool call against the application services.
const toolTimeout = 5 * time.Second

// BusinessSearchInput represents the MCP tool input for business search.
type BusinessSearchInput struct {
	Query     string `json:"query,omitempty" jsonschema:"name substring to match, case-insensitive"`
	SectorID  string `json:"sector_id,omitempty" jsonschema:"optional sector identifier filter"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum number of results"`
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous page"`
}

// BusinessEntry represents one business in a search result.
type BusinessEntry struct {
	ID       string `json:"id" jsonschema:"business identifier"`
	Name     string `json:"name" jsonschema:"business name"`
	SectorID string `json:"sector_id" jsonschema:"sector identifier"`
	Timezone string `json:"timezone" jsonschema:"IANA timezone name"`
	Status   string `json:"status" jsonschema:"lifecycle status"`
}

// BusinessSearchResult represents the MCP tool output for business search.
type BusinessSearchResult struct {
	Businesses    []BusinessEntry `json:"businesses"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}

// BusinessSearchTool defines the MCP tool schema for searching businesses.
func BusinessSearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "business_search",
		Description: "Searches businesses by name and sector",
	}
}

// BusinessSearchHandler executes a business search request.
func BusinessSearchHandler(svc *directory.Service, principal auth.Principal) mcp.ToolHandlerFor[BusinessSearchInput, BusinessSearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BusinessSearchInput) (*mcp.CallToolResult, BusinessSearchResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, toolTimeout)
		defer cancel()

		filter := storage.BusinessFilter{Query: input.Query, SectorID: input.SectorID}
		page, err := svc.SearchBusinesses(runCtx, principal, filter, input.PageSize, input.PageToken)
		if err != nil {
			return nil, BusinessSearchResult{}, fmt.Errorf("business search failed: %w", err)
		}

		result := BusinessSearchResult{
			Businesses:    make([]BusinessEntry, 0, len(page.Businesses)),
			NextPageToken: page.NextPageToken,
		}
		for _, b := range page.Businesses {
			result.Businesses = append(result.Businesses, BusinessEntry{
				ID:       b.ID,
				Name:     b.Name,
				SectorID: b.SectorID,
				Timezone: b.Timezone,
				Status:   business.StatusLabel(b.Status),
			})
		}
		return nil, result, nil
	}
}

// ServiceListInput represents the MCP tool input for listing services.
type ServiceListInput struct {
	BusinessID string `json:"business_id" jsonschema:"business identifier"`
	ActiveOnly bool   `json:"active_only,omitempty" jsonschema:"restrict to bookable services"`
	PageSize   int    `json:"page_size,omitempty" jsonschema:"maximum number of results"`
	PageToken  string `json:"page_token,omitempty" jsonschema:"token from a previous page"`
}

// ServiceEntry represents one bookable service.
type ServiceEntry struct {
	ID              string `json:"id" jsonschema:"service identifier"`
	Name            string `json:"name" jsonschema:"service name"`
	Description     string `json:"description,omitempty" jsonschema:"service description"`
	DurationMinutes int    `json:"duration_minutes" jsonschema:"appointment length in minutes"`
	Price           string `json:"price" jsonschema:"decimal price amount"`
	Currency        string `json:"currency" jsonschema:"ISO 4217 currency code"`
	Active          bool   `json:"active" jsonschema:"whether the service is bookable"`
}

// ServiceListResult represents the MCP tool output for listing services.
type ServiceListResult struct {
	Services      []ServiceEntry `json:"services"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

// ServiceListTool defines the MCP tool schema for listing services.
func ServiceListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "service_list",
		Description: "Lists the bookable services of a business",
	}
}

// ServiceListHandler executes a service listing request.
func ServiceListHandler(svc *directory.Service, principal auth.Principal) mcp.ToolHandlerFor[ServiceListInput, ServiceListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ServiceListInput) (*mcp.CallToolResult, ServiceListResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, toolTimeout)
		defer cancel()

		page, err := svc.ListServices(runCtx, principal, input.BusinessID, input.ActiveOnly, input.PageSize, input.PageToken)
		if err != nil {
			return nil, ServiceListResult{}, fmt.Errorf("service list failed: %w", err)
		}

		result := ServiceListResult{
			Services:      make([]ServiceEntry, 0, len(page.Services)),
			NextPageToken: page.NextPageToken,
		}
		for _, s := range page.Services {
			result.Services = append(result.Services, ServiceEntry{
				ID:              s.ID,
				Name:            s.Name,
				Description:     s.Description,
				DurationMinutes: s.DurationMinutes,
				Price:           s.PriceAmount.String(),
				Currency:        s.Currency,
				Active:          s.Active,
			})
		}
		return nil, result, nil
	}
}

// SlotListInput represents the MCP tool input for listing open slots.
type SlotListInput struct {
	BusinessID string `json:"business_id" jsonschema:"business identifier"`
	CalendarID string `json:"calendar_id" jsonschema:"calendar identifier"`
	ServiceID  string `json:"service_id" jsonschema:"service identifier"`
	Date       string `json:"date" jsonschema:"calendar day in YYYY-MM-DD form"`
}

// SlotEntry represents one open time range.
type SlotEntry struct {
	Start string `json:"start" jsonschema:"slot start in RFC 3339 form"`
	End   string `json:"end" jsonschema:"slot end in RFC 3339 form"`
}

// SlotListResult represents the MCP tool output for listing open slots.
type SlotListResult struct {
	Slots []SlotEntry `json:"slots"`
}

// SlotListTool defines the MCP tool schema for listing open slots.
func SlotListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "slot_list",
		Description: "Lists the open booking slots of a calendar day",
	}
}

// SlotListHandler executes a slot listing request.
func SlotListHandler(svc *scheduling.Service, principal auth.Principal) mcp.ToolHandlerFor[SlotListInput, SlotListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SlotListInput) (*mcp.CallToolResult, SlotListResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, toolTimeout)
		defer cancel()

		day, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return nil, SlotListResult{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}

		slots, err := svc.ListAvailableSlots(runCtx, principal, input.BusinessID, input.CalendarID, input.ServiceID, day)
		if err != nil {
			return nil, SlotListResult{}, fmt.Errorf("slot list failed: %w", err)
		}

		result := SlotListResult{Slots: make([]SlotEntry, 0, len(slots))}
		for _, slot := range slots {
			result.Slots = append(result.Slots, SlotEntry{
				Start: slot.Start.Format(time.RFC3339),
				End:   slot.End.Format(time.RFC3339),
			})
		}
		return nil, result, nil
	}
}

// AppointmentBookInput represents the MCP tool input for booking.
type AppointmentBookInput struct {
	BusinessID    string `json:"business_id" jsonschema:"business identifier"`
	CalendarID    string `json:"calendar_id" jsonschema:"calendar identifier"`
	ServiceID     string `json:"service_id" jsonschema:"service identifier"`
	CustomerName  string `json:"customer_name" jsonschema:"customer full name"`
	CustomerEmail string `json:"customer_email,omitempty" jsonschema:"customer email address"`
	CustomerPhone string `json:"customer_phone,omitempty" jsonschema:"customer phone number"`
	StartTime     string `json:"start_time" jsonschema:"appointment start in RFC 3339 form"`
	Notes         string `json:"notes,omitempty" jsonschema:"optional booking notes"`
}

// AppointmentEntry represents one appointment.
type AppointmentEntry struct {
	ID           string `json:"id" jsonschema:"appointment identifier"`
	CalendarID   string `json:"calendar_id" jsonschema:"calendar identifier"`
	ServiceID    string `json:"service_id" jsonschema:"service identifier"`
	CustomerName string `json:"customer_name" jsonschema:"customer full name"`
	Start        string `json:"start" jsonschema:"start in RFC 3339 form"`
	End          string `json:"end" jsonschema:"end in RFC 3339 form"`
	Status       string `json:"status" jsonschema:"appointment status"`
	Notes        string `json:"notes,omitempty" jsonschema:"booking notes"`
	CancelReason string `json:"cancel_reason,omitempty" jsonschema:"reason recorded at cancellation"`
}

// AppointmentBookTool defines the MCP tool schema for booking.
func AppointmentBookTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "appointment_book",
		Description: "Books an appointment on a calendar for a customer",
	}
}

// AppointmentBookHandler executes a booking request.
func AppointmentBookHandler(svc *scheduling.Service, principal auth.Principal) mcp.ToolHandlerFor[AppointmentBookInput, AppointmentEntry] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AppointmentBookInput) (*mcp.CallToolResult, AppointmentEntry, error) {
		runCtx, cancel := context.WithTimeout(ctx, toolTimeout)
		defer cancel()

		start, err := time.Parse(time.RFC3339, input.StartTime)
		if err != nil {
			return nil, AppointmentEntry{}, fmt.Errorf("start_time must be RFC 3339: %w", err)
		}

		booked, err := svc.BookAppointment(runCtx, principal, input.BusinessID, scheduling.BookInput{
			CalendarID: input.CalendarID,
			ServiceID:  input.ServiceID,
			Customer: appointment.Customer{
				Name:  input.CustomerName,
				Email: input.CustomerEmail,
				Phone: input.CustomerPhone,
			},
			StartTime: start,
			Notes:     input.Notes,
		})
		if err != nil {
			return nil, AppointmentEntry{}, fmt.Errorf("appointment book failed: %w", err)
		}
		return nil, toAppointmentEntry(booked), nil
	}
}

// AppointmentCancelInput represents the MCP tool input for cancellation.
type AppointmentCancelInput struct {
	BusinessID    string `json:"business_id" jsonschema:"business identifier"`
	AppointmentID string `json:"appointment_id" jsonschema:"appointment identifier"`
	Reason        string `json:"reason" jsonschema:"cancellation reason"`
}

// AppointmentCancelTool defines the MCP tool schema for cancellation.
func AppointmentCancelTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "appointment_cancel",
		Description: "Cancels an appointment with a reason",
	}
}

// AppointmentCancelHandler executes a cancellation request.
func AppointmentCancelHandler(svc *scheduling.Service, principal auth.Principal) mcp.ToolHandlerFor[AppointmentCancelInput, AppointmentEntry] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AppointmentCancelInput) (*mcp.CallToolResult, AppointmentEntry, error) {
		runCtx, cancel := context.WithTimeout(ctx, toolTimeout)
		defer cancel()

		cancelled, err := svc.CancelAppointment(runCtx, principal, input.BusinessID, input.AppointmentID, input.Reason)
		if err != nil {
			return nil, AppointmentEntry{}, fmt.Errorf("appointment cancel failed: %w", err)
		}
		return nil, toAppointmentEntry(cancelled), nil
	}
}

// AppointmentListInput represents the MCP tool input for listing appointments.
type AppointmentListInput struct {
	BusinessID string `json:"business_id" jsonschema:"business identifier"`
	CalendarID string `json:"calendar_id,omitempty" jsonschema:"optional calendar filter"`
	Status     string `json:"status,omitempty" jsonschema:"optional status filter (PENDING, CONFIRMED, COMPLETED, CANCELLED, NO_SHOW)"`
	From       string `json:"from,omitempty" jsonschema:"optional start lower bound in RFC 3339 form"`
	To         string `json:"to,omitempty" jsonschema:"optional start upper bound in RFC 3339 form"`
	PageSize   int    `json:"page_size,omitempty" jsonschema:"maximum number of results"`
	PageToken  string `json:"page_token,omitempty" jsonschema:"token from a previous page"`
}

// AppointmentListResult represents the MCP tool output for listing appointments.
type AppointmentListResult struct {
	Appointments  []AppointmentEntry `json:"appointments"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

// AppointmentListTool defines the MCP tool schema for listing appointments.
func AppointmentListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "appointment_list",
		Description: "Lists the appointments of a business",
	}
}

// AppointmentListHandler executes an appointment listing request.
func AppointmentListHandler(svc *scheduling.Service, principal auth.Principal) mcp.ToolHandlerFor[AppointmentListInput, AppointmentListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AppointmentListInput) (*mcp.CallToolResult, AppointmentListResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, toolTimeout)
		defer cancel()

		filter := storage.AppointmentFilter{CalendarID: input.CalendarID}
		if input.Status != "" {
			status, err := appointment.StatusFromLabel(input.Status)
			if err != nil {
				return nil, AppointmentListResult{}, fmt.Errorf("status filter: %w", err)
			}
			filter.Status = status
		}
		if input.From != "" {
			from, err := time.Parse(time.RFC3339, input.From)
			if err != nil {
				return nil, AppointmentListResult{}, fmt.Errorf("from must be RFC 3339: %w", err)
			}
			filter.From = from
		}
		if input.To != "" {
			to, err := time.Parse(time.RFC3339, input.To)
			if err != nil {
				return nil, AppointmentListResult{}, fmt.Errorf("to must be RFC 3339: %w", err)
			}
			filter.To = to
		}

		page, err := svc.ListAppointments(runCtx, principal, input.BusinessID, filter, input.PageSize, input.PageToken)
		if err != nil {
			return nil, AppointmentListResult{}, fmt.Errorf("appointment list failed: %w", err)
		}

		result := AppointmentListResult{
			Appointments:  make([]AppointmentEntry, 0, len(page.Appointments)),
			NextPageToken: page.NextPageToken,
		}
		for _, a := range page.Appointments {
			result.Appointments = append(result.Appointments, toAppointmentEntry(a))
		}
		return nil, result, nil
	}
}

func toAppointmentEntry(a appointment.Appointment) AppointmentEntry {
	return AppointmentEntry{
		ID:           a.ID,
		CalendarID:   a.CalendarID,
		ServiceID:    a.ServiceID,
		CustomerName: a.Customer.Name,
		Start:        a.StartTime.Format(time.RFC3339),
		End:          a.EndTime.Format(time.RFC3339),
		Status:       appointment.StatusLabel(a.Status),
		Notes:        a.Notes,
		CancelReason: a.CancelReason,
	}
}
