package auth

const (
	RoleEmployee  = "employee"
	RoleEvaluator = "evaluator"
	RoleApprover  = "approver"
	RoleHR        = "hr"
	RoleAdmin     = "admin"
)

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// UserContext is the authenticated caller as seen by handlers.
type UserContext struct {
	UserID    int64
	RoleID    int64
	RoleName  string
	SessionID string
}
