package employee

import "time"

type Employee struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	Position    string     `json:"position"`
	Department  string     `json:"department"`
	EvaluatorID int64      `json:"evaluatorId,omitempty"`
	Status      string     `json:"status"`
	HiredAt     *time.Time `json:"hiredAt,omitempty"`
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)
