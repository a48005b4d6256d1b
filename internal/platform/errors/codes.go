// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Business errors
	CodeBusinessNameEmpty               Code = "BUSINESS_NAME_EMPTY"
	CodeBusinessInvalidTimezone         Code = "BUSINESS_INVALID_TIMEZONE"
	CodeBusinessInvalidStatusTransition Code = "BUSINESS_INVALID_STATUS_TRANSITION"
	CodeBusinessSuspended               Code = "BUSINESS_SUSPENDED"
	CodeBusinessSectorNameEmpty         Code = "BUSINESS_SECTOR_NAME_EMPTY"

	// Service (bookable offering) errors
	CodeServiceNameEmpty       Code = "SERVICE_NAME_EMPTY"
	CodeServiceInvalidDuration Code = "SERVICE_INVALID_DURATION"
	CodeServiceInvalidPrice    Code = "SERVICE_INVALID_PRICE"
	CodeServiceInvalidCurrency Code = "SERVICE_INVALID_CURRENCY"
	CodeServiceInactive        Code = "SERVICE_INACTIVE"

	// Staff errors
	CodeStaffNameEmpty    Code = "STAFF_NAME_EMPTY"
	CodeStaffInvalidEmail Code = "STAFF_INVALID_EMAIL"

	// Calendar errors
	CodeCalendarNameEmpty       Code = "CALENDAR_NAME_EMPTY"
	CodeCalendarInvalidKind     Code = "CALENDAR_INVALID_KIND"
	CodeCalendarStaffRequired   Code = "CALENDAR_STAFF_REQUIRED"
	CodeCalendarInvalidTimezone Code = "CALENDAR_INVALID_TIMEZONE"
	CodeCalendarInvalidHours    Code = "CALENDAR_INVALID_HOURS"
	CodeCalendarInactive        Code = "CALENDAR_INACTIVE"

	// Appointment errors
	CodeAppointmentCustomerNameEmpty      Code = "APPOINTMENT_CUSTOMER_NAME_EMPTY"
	CodeAppointmentInvalidTimeRange       Code = "APPOINTMENT_INVALID_TIME_RANGE"
	CodeAppointmentStartInPast            Code = "APPOINTMENT_START_IN_PAST"
	CodeAppointmentOutsideWorkingHours    Code = "APPOINTMENT_OUTSIDE_WORKING_HOURS"
	CodeAppointmentConflict               Code = "APPOINTMENT_CONFLICT"
	CodeAppointmentInvalidStatusTransition Code = "APPOINTMENT_INVALID_STATUS_TRANSITION"
	CodeAppointmentCancelReasonEmpty      Code = "APPOINTMENT_CANCEL_REASON_EMPTY"

	// Prospect errors
	CodeProspectNameEmpty              Code = "PROSPECT_NAME_EMPTY"
	CodeProspectInvalidValue           Code = "PROSPECT_INVALID_ESTIMATED_VALUE"
	CodeProspectInvalidStageTransition Code = "PROSPECT_INVALID_STAGE_TRANSITION"

	// RBAC errors
	CodeRBACInvalidRole          Code = "RBAC_INVALID_ROLE"
	CodeRBACPermissionDenied     Code = "RBAC_PERMISSION_DENIED"
	CodeRBACRoleNotActionable    Code = "RBAC_ROLE_NOT_ACTIONABLE"
	CodeRBACAssignmentExists     Code = "RBAC_ASSIGNMENT_EXISTS"
	CodeRBACPlatformScopeInvalid Code = "RBAC_PLATFORM_SCOPE_INVALID"
	CodeRBACSaveError            Code = "RBAC_SAVE_ERROR"

	// Billing errors
	CodeBillingUnknownPlan              Code = "BILLING_UNKNOWN_PLAN"
	CodeBillingSubscriptionCancelled    Code = "BILLING_SUBSCRIPTION_CANCELLED"
	CodeBillingSamePlan                 Code = "BILLING_SAME_PLAN"
	CodePlanLimitStaffExceeded          Code = "PLAN_LIMIT_STAFF_EXCEEDED"
	CodePlanLimitCalendarsExceeded      Code = "PLAN_LIMIT_CALENDARS_EXCEEDED"
	CodePlanLimitAppointmentsExceeded   Code = "PLAN_LIMIT_APPOINTMENTS_EXCEEDED"

	// Auth errors
	CodeAuthTokenInvalid  Code = "AUTH_TOKEN_INVALID"
	CodeAuthTokenExpired  Code = "AUTH_TOKEN_EXPIRED"
	CodeAuthUnauthenticated Code = "AUTH_UNAUTHENTICATED"

	// Storage errors
	CodeNotFound            Code = "NOT_FOUND"
	CodeAlreadyExists       Code = "ALREADY_EXISTS"
	CodeInfrastructureError Code = "INFRASTRUCTURE_ERROR"

	// Request errors
	CodeInvalidRequest Code = "INVALID_REQUEST"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeBusinessNameEmpty,
		CodeBusinessInvalidTimezone,
		CodeBusinessSectorNameEmpty,
		CodeServiceNameEmpty,
		CodeServiceInvalidDuration,
		CodeServiceInvalidPrice,
		CodeServiceInvalidCurrency,
		CodeStaffNameEmpty,
		CodeStaffInvalidEmail,
		CodeCalendarNameEmpty,
		CodeCalendarInvalidKind,
		CodeCalendarStaffRequired,
		CodeCalendarInvalidTimezone,
		CodeCalendarInvalidHours,
		CodeAppointmentCustomerNameEmpty,
		CodeAppointmentInvalidTimeRange,
		CodeAppointmentCancelReasonEmpty,
		CodeProspectNameEmpty,
		CodeProspectInvalidValue,
		CodeRBACInvalidRole,
		CodeRBACPlatformScopeInvalid,
		CodeBillingUnknownPlan,
		CodeInvalidRequest:
		return http.StatusBadRequest

	// Unprocessable - state does not allow the operation
	case CodeBusinessInvalidStatusTransition,
		CodeBusinessSuspended,
		CodeServiceInactive,
		CodeCalendarInactive,
		CodeAppointmentStartInPast,
		CodeAppointmentOutsideWorkingHours,
		CodeAppointmentInvalidStatusTransition,
		CodeProspectInvalidStageTransition,
		CodeBillingSubscriptionCancelled,
		CodeBillingSamePlan:
		return http.StatusUnprocessableEntity

	// Conflict - overlapping appointments, unique constraints
	case CodeAppointmentConflict,
		CodeRBACAssignmentExists,
		CodeAlreadyExists:
		return http.StatusConflict

	// Payment required - plan limit exhaustion
	case CodePlanLimitStaffExceeded,
		CodePlanLimitCalendarsExceeded,
		CodePlanLimitAppointmentsExceeded:
		return http.StatusPaymentRequired

	// Unauthorized / forbidden
	case CodeAuthTokenInvalid,
		CodeAuthTokenExpired,
		CodeAuthUnauthenticated:
		return http.StatusUnauthorized
	case CodeRBACPermissionDenied,
		CodeRBACRoleNotActionable:
		return http.StatusForbidden

	case CodeNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
