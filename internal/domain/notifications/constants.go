package notifications

const (
	TypeSelfAssessmentDone = "self_assessment_submitted"
	TypeEvaluationReady    = "evaluation_ready_for_decision"
	TypeEvaluationApproved = "evaluation_approved"
	TypeEvaluationRejected = "evaluation_rejected"
	TypeEvaluationRefused  = "evaluation_refused"
	TypeLeaveSubmitted     = "leave_submitted"
	TypeLeaveApproved      = "leave_approved"
	TypeLeaveRejected      = "leave_rejected"
)
