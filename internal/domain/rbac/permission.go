package rbac

// Permission names one guarded capability.
type Permission string

const (
	PermManageBusiness     Permission = "MANAGE_BUSINESS"
	PermManageStaff        Permission = "MANAGE_STAFF"
	PermManageServices     Permission = "MANAGE_SERVICES"
	PermManageCalendars    Permission = "MANAGE_CALENDARS"
	PermManageAppointments Permission = "MANAGE_APPOINTMENTS"
	PermViewAppointments   Permission = "VIEW_APPOINTMENTS"
	PermManageProspects    Permission = "MANAGE_PROSPECTS"
	PermViewProspects      Permission = "VIEW_PROSPECTS"
	PermManageRoles        Permission = "MANAGE_ROLES"
	PermManageBilling      Permission = "MANAGE_BILLING"
	PermViewReports        Permission = "VIEW_REPORTS"
)

// rolePermissions is the static role to permission-set table.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermViewAppointments,
		PermViewProspects,
		PermViewReports,
	},
	RoleStaff: {
		PermViewAppointments,
		PermManageAppointments,
		PermViewProspects,
	},
	RoleManager: {
		PermViewAppointments,
		PermManageAppointments,
		PermManageCalendars,
		PermManageServices,
		PermViewProspects,
		PermManageProspects,
		PermViewReports,
	},
	RoleAdmin: {
		PermViewAppointments,
		PermManageAppointments,
		PermManageCalendars,
		PermManageServices,
		PermManageStaff,
		PermViewProspects,
		PermManageProspects,
		PermManageRoles,
		PermViewReports,
	},
	RoleOwner: {
		PermManageBusiness,
		PermManageStaff,
		PermManageServices,
		PermManageCalendars,
		PermManageAppointments,
		PermViewAppointments,
		PermManageProspects,
		PermViewProspects,
		PermManageRoles,
		PermManageBilling,
		PermViewReports,
	},
}

// Allows reports whether a role grants a permission. PLATFORM_ADMIN is
// allowed everything.
func Allows(role Role, permission Permission) bool {
	if role == RolePlatformAdmin {
		return true
	}
	for _, granted := range rolePermissions[role] {
		if granted == permission {
			return true
		}
	}
	return false
}

// PermissionsFor returns the permission set granted by a role.
func PermissionsFor(role Role) []Permission {
	if role == RolePlatformAdmin {
		return []Permission{
			PermManageBusiness, PermManageStaff, PermManageServices,
			PermManageCalendars, PermManageAppointments, PermViewAppointments,
			PermManageProspects, PermViewProspects, PermManageRoles,
			PermManageBilling, PermViewReports,
		}
	}
	granted := rolePermissions[role]
	out := make([]Permission, len(granted))
	copy(out, granted)
	return out
}
