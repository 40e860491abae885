package leave

import "time"

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	TypeAnnual = "annual"
	TypeSick   = "sick"
	TypeUnpaid = "unpaid"
	TypeOther  = "other"
)

type Request struct {
	ID           int64     `json:"id"`
	EmployeeID   int64     `json:"employeeId"`
	Type         string    `json:"type"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	StartHalfDay bool      `json:"startHalfDay"`
	EndHalfDay   bool      `json:"endHalfDay"`
	Days         float64   `json:"days"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason"`
	DecidedByID  int64     `json:"decidedById,omitempty"`
	DecisionNote string    `json:"decisionNote,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
