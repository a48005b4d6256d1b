// Package routepath defines the URL patterns served by the REST API.
// Patterns use Go 1.22 ServeMux wildcards; handlers read path values by the
// names declared here.
package routepath

const (
	// Up is the unauthenticated health probe.
	Up = "/up"

	Businesses         = "/v1/businesses"
	Business           = "/v1/businesses/{businessID}"
	BusinessTransition = "/v1/businesses/{businessID}/transition"
	BusinessStatistics = "/v1/businesses/{businessID}/statistics"

	Sectors = "/v1/sectors"

	Staff       = "/v1/businesses/{businessID}/staff"
	StaffMember = "/v1/businesses/{businessID}/staff/{staffID}"

	Services = "/v1/businesses/{businessID}/services"
	Service  = "/v1/businesses/{businessID}/services/{serviceID}"

	Calendars     = "/v1/businesses/{businessID}/calendars"
	Calendar      = "/v1/businesses/{businessID}/calendars/{calendarID}"
	CalendarHours = Calendar + "/hours"
	CalendarSlots = Calendar + "/slots"

	Appointments           = "/v1/businesses/{businessID}/appointments"
	Appointment            = "/v1/businesses/{businessID}/appointments/{appointmentID}"
	AppointmentConfirm     = Appointment + "/confirm"
	AppointmentReschedule  = Appointment + "/reschedule"
	AppointmentCancel      = Appointment + "/cancel"
	AppointmentComplete    = Appointment + "/complete"
	AppointmentNoShow      = Appointment + "/no-show"

	Prospects           = "/v1/businesses/{businessID}/prospects"
	Prospect            = "/v1/businesses/{businessID}/prospects/{prospectID}"
	ProspectTransition  = Prospect + "/transition"
	ProspectStatistics  = "/v1/businesses/{businessID}/prospects/statistics"

	RoleAssignments          = "/v1/businesses/{businessID}/role-assignments"
	RoleAssignmentStatistics = RoleAssignments + "/statistics"
	RoleAssignment           = "/v1/role-assignments/{assignmentID}"
	UserRoleAssignments      = "/v1/users/{userID}/role-assignments"

	Subscription       = "/v1/businesses/{businessID}/subscription"
	SubscriptionPlan   = Subscription + "/plan"
	SubscriptionCancel = Subscription + "/cancel"
	SubscriptionUsage  = Subscription + "/usage"
	SubscriptionCycles = Subscription + "/cycles"

	Plans = "/v1/plans"

	Events = "/v1/businesses/{businessID}/events"
)
