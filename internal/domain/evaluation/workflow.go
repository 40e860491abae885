package evaluation

import (
	"context"
	"strings"
)

// MinReasonLength is the minimum trimmed length for a rejection or refusal
// reason.
const MinReasonLength = 10

// Collaborator is the external REST surface the workflow consumes. All calls
// are fallible; implementations return *ConflictError for duplicate-submission
// conflicts and *TransportError for network or server failures.
type Collaborator interface {
	ListCriteriaGroups(ctx context.Context) ([]CriteriaGroup, error)
	ListCriteriaItems(ctx context.Context, role Role) ([]CriteriaItem, error)
	GetDraftResponses(ctx context.Context, evaluationID int64, actor Role) ([]Response, error)
	SubmitSelfAssessment(ctx context.Context, evaluationID, evaluatorID, approverID, missionID int64, responses []Response) error
	SubmitEvaluatorResponses(ctx context.Context, evaluationID int64, responses []Response) error
	SaveDraft(ctx context.Context, evaluationID int64, actor Role, responses []Response) error
	RefuseAssessment(ctx context.Context, evaluationID int64, reason string) error
	ValidateEvaluation(ctx context.Context, evaluationID int64, approved bool, reason string) error
}

// Controller is the state machine for one evaluation workflow instance:
// self-assessment (1) → evaluator assessment (2) → approver decision (3).
// Steps only advance through a successful submission; there is no backward
// transition. Group changes are lateral navigation within a step.
//
// The controller is owned by a single caller and is not safe for concurrent
// use; re-entrancy during an in-flight submission is blocked by a flag, not a
// lock, matching the cooperative single-writer model it serves.
type Controller struct {
	api          Collaborator
	evaluationID int64
	catalog      *Catalog

	step           Step
	currentGroupID int64
	selectors      Selectors

	employee  *ResponseStore
	evaluator *ResponseStore

	submitting bool
	terminal   bool
}

// NewController builds a workflow instance. stepHint is a one-way external
// hint (for example a deep-link query parameter) consumed only here: it is
// clamped to [1, 3] and never re-read afterwards.
func NewController(api Collaborator, evaluationID int64, catalog *Catalog, stepHint int) *Controller {
	step := Step(stepHint)
	if step < StepSelfAssessment {
		step = StepSelfAssessment
	}
	if step > StepApproverDecision {
		step = StepApproverDecision
	}

	c := &Controller{
		api:          api,
		evaluationID: evaluationID,
		catalog:      catalog,
		step:         step,
		employee:     NewResponseStore(),
		evaluator:    NewResponseStore(),
	}
	if firstID, ok := catalog.FirstGroupID(); ok {
		c.currentGroupID = firstID
	}
	return c
}

func (c *Controller) Step() Step             { return c.step }
func (c *Controller) CurrentGroupID() int64  { return c.currentGroupID }
func (c *Controller) Selectors() Selectors   { return c.selectors }
func (c *Controller) Submitting() bool       { return c.submitting }
func (c *Controller) Terminal() bool         { return c.terminal }
func (c *Controller) EvaluationID() int64    { return c.evaluationID }
func (c *Controller) Catalog() *Catalog      { return c.catalog }

// Responses exposes an actor's store read-only; the approver's comparison view
// reads both stores but mutates neither.
func (c *Controller) Responses(actor Role) []Response {
	if store := c.storeFor(actor); store != nil {
		return store.Snapshot()
	}
	return nil
}

// SetResponse records an answer into the store writable at the current step.
// The approver step has no writable store.
func (c *Controller) SetResponse(itemID int64, value string) error {
	actor, editable := ActorForStep(c.step)
	if !editable {
		return &GuardViolation{Reason: "responses are read-only in the approval step"}
	}
	c.storeFor(actor).Set(itemID, value)
	return nil
}

// Selector setters are meaningful only during self-assessment.
func (c *Controller) SetEvaluator(id int64) error {
	if c.step != StepSelfAssessment {
		return &GuardViolation{Reason: "evaluator can only be chosen during self-assessment"}
	}
	c.selectors.EvaluatorID = id
	return nil
}

func (c *Controller) SetApprover(id int64) error {
	if c.step != StepSelfAssessment {
		return &GuardViolation{Reason: "approver can only be chosen during self-assessment"}
	}
	c.selectors.ApproverID = id
	return nil
}

func (c *Controller) SetMission(id int64) error {
	if c.step != StepSelfAssessment {
		return &GuardViolation{Reason: "mission can only be chosen during self-assessment"}
	}
	c.selectors.MissionID = id
	return nil
}

// HandleGroupChange moves lateral navigation to a group that exists in the
// catalog; unknown ids are ignored.
func (c *Controller) HandleGroupChange(groupID int64) {
	if c.catalog.HasGroup(groupID) {
		c.currentGroupID = groupID
	}
}

// HandleNextGroup advances to the next group tab; past the last group it is a
// no-op (the button is disabled, not an error).
func (c *Controller) HandleNextGroup() {
	ids := c.catalog.GroupIDs()
	idx := c.catalog.IndexOfGroup(c.currentGroupID)
	if idx >= 0 && idx+1 < len(ids) {
		c.currentGroupID = ids[idx+1]
	}
}

// HandlePreviousGroup moves back one group tab; before the first it is a no-op.
func (c *Controller) HandlePreviousGroup() {
	ids := c.catalog.GroupIDs()
	idx := c.catalog.IndexOfGroup(c.currentGroupID)
	if idx > 0 {
		c.currentGroupID = ids[idx-1]
	}
}

// Progress computes the UI progress percentage for the current state.
func (c *Controller) Progress() int {
	actor, _ := ActorForStep(c.step)
	return CalculateProgress(c.step, c.catalog.Items(), c.storeFor(actor), c.selectors, c.catalog.GroupIDs(), c.currentGroupID)
}

// GroupErrors computes the per-group error badges for the current state.
func (c *Controller) GroupErrors() map[int64]bool {
	actor, _ := ActorForStep(c.step)
	return CalculateGroupErrors(c.step, c.catalog, c.storeFor(actor), c.selectors)
}

// LoadDraft pre-populates the active actor's store from a previously saved
// draft so a partially completed step can be resumed.
func (c *Controller) LoadDraft(ctx context.Context) error {
	actor, editable := ActorForStep(c.step)
	if !editable {
		return nil
	}
	responses, err := c.api.GetDraftResponses(ctx, c.evaluationID, actor)
	if err != nil {
		return err
	}
	c.storeFor(actor).Load(responses)
	return nil
}

// SaveDraft persists the active store without any state-machine change. It is
// a side-channel write, not a transition.
func (c *Controller) SaveDraft(ctx context.Context) error {
	actor, editable := ActorForStep(c.step)
	if !editable {
		return &GuardViolation{Reason: "nothing to draft in the approval step"}
	}
	return c.submit(func() error {
		return c.api.SaveDraft(ctx, c.evaluationID, actor, c.storeFor(actor).Snapshot())
	})
}

// SubmitSelfAssessment fires the step 1 → 2 transition. The guard requires
// evaluator and approver to be chosen and every field valid; on guard failure
// no network call is made and the step is unchanged.
func (c *Controller) SubmitSelfAssessment(ctx context.Context) error {
	if c.step != StepSelfAssessment {
		return &GuardViolation{Reason: "self-assessment already submitted"}
	}
	if c.selectors.EvaluatorID == 0 || c.selectors.ApproverID == 0 {
		return &GuardViolation{Reason: "evaluator and approver must be chosen"}
	}
	if missing := ValidateAllFields(c.catalog.Items(), c.employee, &c.selectors); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}

	err := c.submit(func() error {
		return c.api.SubmitSelfAssessment(ctx, c.evaluationID, c.selectors.EvaluatorID, c.selectors.ApproverID, c.selectors.MissionID, c.employee.Snapshot())
	})
	if err != nil {
		return err
	}
	c.advance(StepEvaluatorAssessment)
	return nil
}

// SubmitEvaluatorResponses fires the step 2 → 3 transition, gated on the
// evaluator's store passing full validation.
func (c *Controller) SubmitEvaluatorResponses(ctx context.Context) error {
	if c.step != StepEvaluatorAssessment {
		return &GuardViolation{Reason: "evaluator assessment is not the active step"}
	}
	if missing := ValidateAllFields(c.catalog.Items(), c.evaluator, nil); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}

	err := c.submit(func() error {
		return c.api.SubmitEvaluatorResponses(ctx, c.evaluationID, c.evaluator.Snapshot())
	})
	if err != nil {
		return err
	}
	c.advance(StepApproverDecision)
	return nil
}

// RefuseAssessment lets the evaluator decline to process a self-assessment,
// aborting the workflow instance. The reason gate matches rejection.
func (c *Controller) RefuseAssessment(ctx context.Context, reason string) error {
	if c.step != StepEvaluatorAssessment {
		return &GuardViolation{Reason: "refusal is only available to the evaluator"}
	}
	if len(strings.TrimSpace(reason)) < MinReasonLength {
		return &ValidationError{Missing: []MissingField{{Label: "Refusal reason (10 characters minimum)"}}}
	}

	err := c.submit(func() error {
		return c.api.RefuseAssessment(ctx, c.evaluationID, strings.TrimSpace(reason))
	})
	if err != nil {
		return err
	}
	c.terminal = true
	return nil
}

// Approve is the approver's terminal acceptance; always legal in step 3 until
// a decision succeeds.
func (c *Controller) Approve(ctx context.Context) error {
	if err := c.decisionGuard(); err != nil {
		return err
	}
	err := c.submit(func() error {
		return c.api.ValidateEvaluation(ctx, c.evaluationID, true, "")
	})
	if err != nil {
		return err
	}
	c.terminal = true
	return nil
}

// Reject is the approver's terminal refusal. A comment shorter than ten
// trimmed characters is rejected locally with no network call.
func (c *Controller) Reject(ctx context.Context, comment string) error {
	if err := c.decisionGuard(); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(comment)
	if len(trimmed) < MinReasonLength {
		return &ValidationError{Missing: []MissingField{{Label: "Rejection reason (10 characters minimum)"}}}
	}
	err := c.submit(func() error {
		return c.api.ValidateEvaluation(ctx, c.evaluationID, false, trimmed)
	})
	if err != nil {
		return err
	}
	c.terminal = true
	return nil
}

func (c *Controller) decisionGuard() error {
	if c.terminal {
		return &GuardViolation{Reason: "a decision has already been recorded"}
	}
	if c.step != StepApproverDecision {
		return &GuardViolation{Reason: "the evaluation is not awaiting a decision"}
	}
	return nil
}

// submit runs one collaborator call under the re-entrancy gate. A failed call
// leaves all state untouched so the user may retry.
func (c *Controller) submit(call func() error) error {
	if c.terminal {
		return &GuardViolation{Reason: "workflow instance is complete"}
	}
	if c.submitting {
		return &GuardViolation{Reason: "a submission is already in flight"}
	}
	c.submitting = true
	defer func() { c.submitting = false }()
	return call()
}

func (c *Controller) advance(step Step) {
	c.step = step
	if firstID, ok := c.catalog.FirstGroupID(); ok {
		c.currentGroupID = firstID
	}
}

func (c *Controller) storeFor(actor Role) *ResponseStore {
	switch actor {
	case RoleEmployee:
		return c.employee
	case RoleEvaluator:
		return c.evaluator
	default:
		return nil
	}
}
