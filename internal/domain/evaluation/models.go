package evaluation

import (
	"encoding/json"
	"fmt"
)

type CriteriaType string

const (
	TypeNumeric     CriteriaType = "numeric"
	TypeObservation CriteriaType = "observation"
	TypeBoolean     CriteriaType = "boolean"
	TypeCommentaire CriteriaType = "commentaire"
)

// Role tags which actor a catalog or response set belongs to. Employee and
// evaluator produce responses; the approver only reviews.
type Role string

const (
	RoleEmployee  Role = "employee"
	RoleEvaluator Role = "evaluator"
	RoleApprover  Role = "approver"
)

// Answer sentinels accepted by the validator.
const (
	NotApplicable = "N/A"
	AnswerYes     = "oui"
	AnswerNo      = "non"
)

type Step int

const (
	StepSelfAssessment      Step = 1
	StepEvaluatorAssessment Step = 2
	StepApproverDecision    Step = 3
)

// Evaluation status values persisted server-side. They mirror the workflow
// steps plus the terminal outcomes.
const (
	StatusSelfPending      = "self_pending"
	StatusEvaluatorPending = "evaluator_pending"
	StatusApproverPending  = "approver_pending"
	StatusCompleted        = "completed"
	StatusRejected         = "rejected"
	StatusRefused          = "refused"
)

type CriteriaGroup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CriteriaItem struct {
	ID        int64        `json:"id"`
	Type      CriteriaType `json:"type"`
	Label     string       `json:"label"`
	GroupID   int64        `json:"groupId"`
	GroupName string       `json:"groupName,omitempty"`
}

// Response is one actor's answer to one criterion. Values arrive from clients
// as either JSON strings or numbers; both are normalized to their string form.
type Response struct {
	ItemID int64  `json:"itemId"`
	Value  string `json:"value"`
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var wire struct {
		ItemID int64           `json:"itemId"`
		Value  json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.ItemID = wire.ItemID
	r.Value = ""
	if len(wire.Value) == 0 || string(wire.Value) == "null" {
		return nil
	}

	var asString string
	if err := json.Unmarshal(wire.Value, &asString); err == nil {
		r.Value = asString
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(wire.Value, &asNumber); err == nil {
		r.Value = asNumber.String()
		return nil
	}
	return fmt.Errorf("response value for item %d must be a string or number", wire.ItemID)
}

// Evaluation is the server-side view of one workflow instance.
type Evaluation struct {
	ID             int64  `json:"id"`
	EmployeeID     int64  `json:"employeeId"`
	EvaluatorID    int64  `json:"evaluatorId,omitempty"`
	ApproverID     int64  `json:"approverId,omitempty"`
	MissionID      int64  `json:"missionId,omitempty"`
	CycleYear      int    `json:"cycleYear"`
	Status         string `json:"status"`
	DecisionReason string `json:"decisionReason,omitempty"`
	CreatedAt      any    `json:"createdAt,omitempty"`
	DecidedAt      any    `json:"decidedAt,omitempty"`
}

// StatusForStep maps an editable workflow step to the evaluation status that
// accepts submissions for it.
func StatusForStep(step Step) string {
	switch step {
	case StepSelfAssessment:
		return StatusSelfPending
	case StepEvaluatorAssessment:
		return StatusEvaluatorPending
	default:
		return StatusApproverPending
	}
}

// ActorForStep returns the role whose response store is writable at the step.
// The approver step has no writable store.
func ActorForStep(step Step) (Role, bool) {
	switch step {
	case StepSelfAssessment:
		return RoleEmployee, true
	case StepEvaluatorAssessment:
		return RoleEvaluator, true
	default:
		return RoleApprover, false
	}
}
