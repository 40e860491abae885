package auth

const (
	PermEmployeesRead     = "employees.read"
	PermEmployeesWrite    = "employees.write"
	PermEvaluationsRead   = "evaluations.read"
	PermEvaluationsWrite  = "evaluations.write"
	PermEvaluationsReview = "evaluations.review"
	PermEvaluationsDecide = "evaluations.decide"
	PermLeaveRead         = "leave.read"
	PermLeaveWrite        = "leave.write"
	PermLeaveApprove      = "leave.approve"
	PermMissionsRead      = "missions.read"
	PermMissionsWrite     = "missions.write"
	PermReportsRead       = "reports.read"
	PermAuditRead         = "audit.read"
	PermSystemAdmin       = "admin.system"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermEvaluationsRead,
	PermEvaluationsWrite,
	PermEvaluationsReview,
	PermEvaluationsDecide,
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermMissionsRead,
	PermMissionsWrite,
	PermReportsRead,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermEmployeesRead,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermLeaveRead,
		PermLeaveWrite,
		PermMissionsRead,
	},
	RoleEvaluator: {
		PermEmployeesRead,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermEvaluationsReview,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermMissionsRead,
		PermReportsRead,
	},
	RoleApprover: {
		PermEmployeesRead,
		PermEvaluationsRead,
		PermEvaluationsReview,
		PermEvaluationsDecide,
		PermLeaveRead,
		PermLeaveApprove,
		PermMissionsRead,
		PermReportsRead,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermEvaluationsReview,
		PermEvaluationsDecide,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermMissionsRead,
		PermMissionsWrite,
		PermReportsRead,
		PermAuditRead,
	},
	RoleAdmin: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermEvaluationsReview,
		PermEvaluationsDecide,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermMissionsRead,
		PermMissionsWrite,
		PermReportsRead,
		PermAuditRead,
		PermSystemAdmin,
	},
}
