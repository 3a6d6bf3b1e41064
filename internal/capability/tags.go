package capability

// Capability tags understood by the console. The backend may grant tags
// outside this list; they are matched the same way.
const (
	Upload        = "UPLOAD"
	Forward       = "FORWARD"
	Report        = "REPORT"
	Reminder      = "REMINDER"
	Read          = "READ"
	Action        = "ACTION"
	RequestAdvice = "REQUEST_ADVICE"
	ManageGroup   = "MANAGE_GROUP"
	ManageUsers   = "MANAGE_USERS"
	ManageWAP     = "MANAGE_WAP"
	WAP           = "WAP"
	ResetPassword = "RESET-PASSWORD"
	ViewHeads     = "VIEW_HEADS"
	ViewGroups    = "VIEW_GROUPS"
)

// Role names with special meaning in the hierarchy.
const (
	RoleAdmin       = "admin"
	RoleDirector    = "director"
	RoleHead        = "head"
	RoleDistributor = "distributor"
	RoleUser        = "user"
)
