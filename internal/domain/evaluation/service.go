package evaluation

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidState marks a submission against an evaluation that is not in the
// status the operation expects: a duplicate submit, an out-of-order step, or a
// decision on an already decided instance. The HTTP layer maps it to 409.
var ErrInvalidState = errors.New("evaluation is not in a state accepting this operation")

// Service is the server-side counterpart of the workflow controller. It
// re-validates every submission with the same rules the client applies, then
// drives the status machine through the store's guarded transitions.
type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

func (s *Service) Groups(ctx context.Context) ([]CriteriaGroup, error) {
	return s.Store.ListGroups(ctx)
}

func (s *Service) Items(ctx context.Context, role Role) ([]CriteriaItem, error) {
	return s.Store.ListItems(ctx, role)
}

// CatalogFor assembles the immutable catalog used for server-side validation.
func (s *Service) CatalogFor(ctx context.Context, role Role) (*Catalog, error) {
	groups, err := s.Store.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.Store.ListItems(ctx, role)
	if err != nil {
		return nil, err
	}
	return NewCatalog(groups, items), nil
}

func (s *Service) Get(ctx context.Context, id int64) (Evaluation, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, employeeID, evaluatorID, approverID int64, status string, limit, offset int) ([]Evaluation, error) {
	return s.Store.List(ctx, employeeID, evaluatorID, approverID, status, limit, offset)
}

func (s *Service) Create(ctx context.Context, employeeID int64, cycleYear int) (int64, error) {
	return s.Store.Create(ctx, employeeID, cycleYear)
}

func (s *Service) DraftResponses(ctx context.Context, evaluationID int64, actor Role) ([]Response, error) {
	return s.Store.Responses(ctx, evaluationID, actor, true)
}

func (s *Service) SubmittedResponses(ctx context.Context, evaluationID int64, actor Role) ([]Response, error) {
	return s.Store.Responses(ctx, evaluationID, actor, false)
}

// SaveDraft persists a partial response set with no status change.
func (s *Service) SaveDraft(ctx context.Context, evaluationID int64, actor Role, responses []Response) error {
	ev, err := s.Store.Get(ctx, evaluationID)
	if err != nil {
		return err
	}
	if terminalStatus(ev.Status) {
		return ErrInvalidState
	}
	return s.Store.SaveResponses(ctx, evaluationID, actor, responses, true)
}

// SubmitSelf validates and lands the employee's step 1 submission, advancing
// the evaluation to the evaluator.
func (s *Service) SubmitSelf(ctx context.Context, evaluationID, evaluatorID, approverID, missionID int64, responses []Response) error {
	if evaluatorID == 0 || approverID == 0 {
		return &GuardViolation{Reason: "evaluator and approver must be chosen"}
	}

	catalog, err := s.CatalogFor(ctx, RoleEmployee)
	if err != nil {
		return err
	}
	selectors := Selectors{EvaluatorID: evaluatorID, ApproverID: approverID, MissionID: missionID}
	if err := s.validate(catalog, responses, &selectors); err != nil {
		return err
	}

	if err := s.Store.SaveResponses(ctx, evaluationID, RoleEmployee, responses, false); err != nil {
		return err
	}
	ok, err := s.Store.TransitionSelfSubmit(ctx, evaluationID, evaluatorID, approverID, missionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

// SubmitEvaluator lands the evaluator's step 2 submission. The evaluator
// answers the same item set the employee does, so validation runs over the
// employee catalog; only the approver's review listing is a separate set.
func (s *Service) SubmitEvaluator(ctx context.Context, evaluationID int64, responses []Response) error {
	catalog, err := s.CatalogFor(ctx, RoleEmployee)
	if err != nil {
		return err
	}
	if err := s.validate(catalog, responses, nil); err != nil {
		return err
	}

	if err := s.Store.SaveResponses(ctx, evaluationID, RoleEvaluator, responses, false); err != nil {
		return err
	}
	ok, err := s.Store.TransitionEvaluatorSubmit(ctx, evaluationID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

// Refuse aborts an instance the evaluator declines to process.
func (s *Service) Refuse(ctx context.Context, evaluationID int64, reason string) error {
	trimmed := strings.TrimSpace(reason)
	if len(trimmed) < MinReasonLength {
		return &ValidationError{Missing: []MissingField{{Label: "Refusal reason (10 characters minimum)"}}}
	}
	ok, err := s.Store.TransitionRefuse(ctx, evaluationID, trimmed)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

// Decide records the approver's terminal decision. Rejection requires a
// comment of at least ten trimmed characters; approval needs none.
func (s *Service) Decide(ctx context.Context, evaluationID int64, approved bool, reason string) error {
	trimmed := strings.TrimSpace(reason)
	if !approved && len(trimmed) < MinReasonLength {
		return &ValidationError{Missing: []MissingField{{Label: "Rejection reason (10 characters minimum)"}}}
	}
	ok, err := s.Store.TransitionDecide(ctx, evaluationID, approved, trimmed)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

func (s *Service) validate(catalog *Catalog, responses []Response, selectors *Selectors) error {
	store := NewResponseStore()
	store.Load(responses)
	if missing := ValidateAllFields(catalog.Items(), store, selectors); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

func terminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusRejected, StatusRefused:
		return true
	}
	return false
}
