package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionClassesRead allows listing class instances.
	PermissionClassesRead Permission = "classes:read"

	// PermissionAttendanceRead allows loading sheets and viewing attendance analytics.
	PermissionAttendanceRead Permission = "attendance:read"

	// PermissionAttendanceWrite allows submitting and resubmitting attendance sheets.
	PermissionAttendanceWrite Permission = "attendance:write"

	// PermissionAttendanceExport allows downloading attendance as CSV.
	PermissionAttendanceExport Permission = "attendance:export"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionClassesRead,
	PermissionAttendanceRead,
	PermissionAttendanceWrite,
	PermissionAttendanceExport,
}

// Operator identifies who marks attendance. It is stamped onto every committed record.
type Operator struct {
	ID         int    `json:"id"`
	Role       string `json:"role"`
	SchoolCode string `json:"school_code"`
}
