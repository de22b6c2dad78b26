package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionStudentsRead allows viewing student lists, details and risk previews.
	PermissionStudentsRead Permission = "students:read"

	// PermissionStudentsWrite allows creating, updating and deleting students.
	PermissionStudentsWrite Permission = "students:write"

	// PermissionStudentsImport allows uploading student spreadsheets.
	PermissionStudentsImport Permission = "students:import"

	// PermissionPredictionsRun allows triggering prediction runs.
	PermissionPredictionsRun Permission = "predictions:run"

	// PermissionInterventionsRead allows viewing intervention notes.
	PermissionInterventionsRead Permission = "interventions:read"

	// PermissionInterventionsWrite allows adding and removing intervention notes.
	PermissionInterventionsWrite Permission = "interventions:write"

	// PermissionAdminsManage allows listing, creating and removing dashboard admins.
	PermissionAdminsManage Permission = "admins:manage"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionStudentsRead,
	PermissionStudentsWrite,
	PermissionStudentsImport,
	PermissionPredictionsRun,
	PermissionInterventionsRead,
	PermissionInterventionsWrite,
	PermissionAdminsManage,
}
