package auth

// Permission keys. Exact string match only: "project:create" and
// "project:edit" are independent capabilities, never derived from a parent.
const (
	PermProjectCreate = "project:create"
	PermProjectView   = "project:view"
	PermProjectEdit   = "project:edit"

	PermFeedbackCreate = "feedback:create"
	PermFeedbackView   = "feedback:view"
	PermFeedbackUpdate = "feedback:update"
	PermFeedbackDelete = "feedback:delete"

	PermTaskCreate = "task:create"

	PermSprintView   = "sprint:view"
	PermSprintManage = "sprint:manage"
)

// BuiltinPermissions is the catalog seeded into every deployment.
var BuiltinPermissions = []Permission{
	{Key: PermProjectCreate, Description: "Create projects"},
	{Key: PermProjectView, Description: "View projects"},
	{Key: PermProjectEdit, Description: "Edit projects"},
	{Key: PermFeedbackCreate, Description: "Create feedback"},
	{Key: PermFeedbackView, Description: "View feedback"},
	{Key: PermFeedbackUpdate, Description: "Update feedback content and status"},
	{Key: PermFeedbackDelete, Description: "Delete feedback"},
	{Key: PermTaskCreate, Description: "Create tasks, including feedback conversion"},
	{Key: PermSprintView, Description: "View sprints"},
	{Key: PermSprintManage, Description: "Create, edit, start, close sprints and assign tasks"},
}

// RoleImpliedPermissions maps well-known role names (lower-cased) to the
// permission sets seeded into a tenant's role catalog. Sprint operations were
// historically gated by role name; folding those names into sprint:manage
// keeps all gating behind the permission resolver.
var RoleImpliedPermissions = map[string][]string{
	"admin": {
		PermProjectCreate, PermProjectView, PermProjectEdit,
		PermFeedbackCreate, PermFeedbackView, PermFeedbackUpdate, PermFeedbackDelete,
		PermTaskCreate,
		PermSprintView, PermSprintManage,
	},
	"pm": {
		PermProjectCreate, PermProjectView, PermProjectEdit,
		PermFeedbackCreate, PermFeedbackView, PermFeedbackUpdate, PermFeedbackDelete,
		PermTaskCreate,
		PermSprintView, PermSprintManage,
	},
	"leader": {
		PermProjectView,
		PermFeedbackCreate, PermFeedbackView, PermFeedbackUpdate,
		PermTaskCreate,
		PermSprintView, PermSprintManage,
	},
	"contributor": {
		PermProjectView,
		PermFeedbackCreate, PermFeedbackView, PermFeedbackUpdate,
		PermSprintView,
	},
	"customer": {
		PermProjectView,
		PermFeedbackCreate, PermFeedbackView,
	},
}
