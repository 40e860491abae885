package evaluation

import (
	"context"
	"errors"
	"testing"
)

// fakeCollaborator records calls and can fail on demand.
type fakeCollaborator struct {
	calls      []string
	failNext   error
	draft      []Response
	lastReason string
	approved   *bool
}

func (f *fakeCollaborator) call(name string) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeCollaborator) ListCriteriaGroups(context.Context) ([]CriteriaGroup, error) {
	return nil, f.call("listGroups")
}

func (f *fakeCollaborator) ListCriteriaItems(_ context.Context, _ Role) ([]CriteriaItem, error) {
	return nil, f.call("listItems")
}

func (f *fakeCollaborator) GetDraftResponses(_ context.Context, _ int64, _ Role) ([]Response, error) {
	if err := f.call("getDraft"); err != nil {
		return nil, err
	}
	return f.draft, nil
}

func (f *fakeCollaborator) SubmitSelfAssessment(_ context.Context, _, _, _, _ int64, _ []Response) error {
	return f.call("submitSelf")
}

func (f *fakeCollaborator) SubmitEvaluatorResponses(_ context.Context, _ int64, _ []Response) error {
	return f.call("submitEvaluator")
}

func (f *fakeCollaborator) SaveDraft(_ context.Context, _ int64, _ Role, _ []Response) error {
	return f.call("saveDraft")
}

func (f *fakeCollaborator) RefuseAssessment(_ context.Context, _ int64, reason string) error {
	f.lastReason = reason
	return f.call("refuse")
}

func (f *fakeCollaborator) ValidateEvaluation(_ context.Context, _ int64, approved bool, reason string) error {
	f.approved = &approved
	f.lastReason = reason
	return f.call("validate")
}

func (f *fakeCollaborator) callCount(name string) int {
	count := 0
	for _, call := range f.calls {
		if call == name {
			count++
		}
	}
	return count
}

func twoGroupCatalog() *Catalog {
	return NewCatalog(
		[]CriteriaGroup{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}},
		[]CriteriaItem{
			{ID: 1, Type: TypeNumeric, Label: "Numeric item", GroupID: 1},
			{ID: 2, Type: TypeBoolean, Label: "Boolean item", GroupID: 2},
		},
	)
}

func TestStepHintClamped(t *testing.T) {
	catalog := twoGroupCatalog()
	for hint, want := range map[int]Step{-1: 1, 0: 1, 1: 1, 2: 2, 3: 3, 9: 3} {
		c := NewController(&fakeCollaborator{}, 1, catalog, hint)
		if c.Step() != want {
			t.Fatalf("hint %d: expected step %d, got %d", hint, want, c.Step())
		}
	}
}

func TestSubmitGuardWithoutEvaluator(t *testing.T) {
	api := &fakeCollaborator{}
	c := NewController(api, 1, twoGroupCatalog(), 1)
	_ = c.SetResponse(1, "3")
	_ = c.SetResponse(2, "oui")
	_ = c.SetApprover(20)
	_ = c.SetMission(30)

	err := c.SubmitSelfAssessment(context.Background())
	var guard *GuardViolation
	if !errors.As(err, &guard) {
		t.Fatalf("expected GuardViolation, got %v", err)
	}
	if api.callCount("submitSelf") != 0 {
		t.Fatal("guard failure must not fire a network call")
	}
	if c.Step() != StepSelfAssessment {
		t.Fatalf("expected step 1 unchanged, got %d", c.Step())
	}
}

func TestSelfAssessmentSubmitTransitions(t *testing.T) {
	api := &fakeCollaborator{}
	c := NewController(api, 1, twoGroupCatalog(), 1)
	_ = c.SetResponse(1, "3")
	_ = c.SetResponse(2, "oui")
	_ = c.SetEvaluator(10)
	_ = c.SetApprover(20)
	_ = c.SetMission(30)

	if missing := ValidateAllFields(c.Catalog().Items(), NewResponseStore(), nil); len(missing) == 0 {
		t.Fatal("sanity: empty store should be invalid")
	}
	if err := c.SubmitSelfAssessment(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Step() != StepEvaluatorAssessment {
		t.Fatalf("expected transition to step 2, got %d", c.Step())
	}
	if api.callCount("submitSelf") != 1 {
		t.Fatalf("expected exactly one submit call, got %d", api.callCount("submitSelf"))
	}
}

func TestSelfAssessmentMissingItemBlocksSubmit(t *testing.T) {
	api := &fakeCollaborator{}
	c := NewController(api, 1, twoGroupCatalog(), 1)
	_ = c.SetResponse(1, "3")
	// item 2 left unset
	_ = c.SetEvaluator(10)
	_ = c.SetApprover(20)
	_ = c.SetMission(30)

	err := c.SubmitSelfAssessment(context.Background())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Missing) != 1 || verr.Missing[0].Label != "Boolean item" {
		t.Fatalf("expected one missing entry for item 2, got %v", verr.Missing)
	}
	if api.callCount("submitSelf") != 0 {
		t.Fatal("validation failure must not fire a network call")
	}
	if c.Step() != StepSelfAssessment {
		t.Fatalf("expected step 1 unchanged, got %d", c.Step())
	}
}

func TestFailedSubmitLeavesStateRetryable(t *testing.T) {
	api := &fakeCollaborator{}
	c := NewController(api, 1, twoGroupCatalog(), 1)
	_ = c.SetResponse(1, "3")
	_ = c.SetResponse(2, "oui")
	_ = c.SetEvaluator(10)
	_ = c.SetApprover(20)
	_ = c.SetMission(30)

	api.failNext = &TransportError{Op: "submitSelfAssessment", Err: errors.New("boom")}
	err := c.SubmitSelfAssessment(context.Background())
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if c.Step() != StepSelfAssessment {
		t.Fatalf("expected step unchanged after failure, got %d", c.Step())
	}
	if c.Submitting() {
		t.Fatal("busy flag must be cleared after failure")
	}

	// Retry succeeds.
	if err := c.SubmitSelfAssessment(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if c.Step() != StepEvaluatorAssessment {
		t.Fatalf("expected step 2 after retry, got %d", c.Step())
	}
}

func TestEvaluatorSubmitGatedOnValidation(t *testing.T) {
	api := &fakeCollaborator{}
	c := NewController(api, 1, twoGroupCatalog(), 2)

	err := c.SubmitEvaluatorResponses(context.Background())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_ = c.SetResponse(1, "N/A")
	_ = c.SetResponse(2, "non")
	if err := c.SubmitEvaluatorResponses(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Step() != StepApproverDecision {
		t.Fatalf("expected step 3, got %d", c.Step())
	}
}

func TestRejectCommentGate(t *testing.T) {
	api := &fakeCollaborator{}
	c := NewController(api, 1, twoGroupCatalog(), 3)

	err := c.Reject(context.Background(), "too short")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for 9-char comment, got %v", err)
	}
	if api.callCount("validate") != 0 {
		t.Fatal("short comment must not fire a network call")
	}
	if c.Terminal() {
		t.Fatal("workflow must stay in the decision step")
	}

	if err := c.Reject(context.Background(), "this is long enough"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.callCount("validate") != 1 {
		t.Fatalf("expected exactly one network call, got %d", api.callCount("validate"))
	}
	if api.approved == nil || *api.approved {
		t.Fatal("expected rejected flag")
	}
	if !c.Terminal() {
		t.Fatal("expected terminal state after rejection")
	}
}

func TestApproveIsTerminal(t *testing.T) {
	api := &fakeCollaborator{}
	c := NewController(api, 1, twoGroupCatalog(), 3)

	if err := c.Approve(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.approved == nil || !*api.approved {
		t.Fatal("expected approved flag")
	}

	// Decisions are mutually exclusive: nothing fires after success.
	err := c.Reject(context.Background(), "changed my mind after all")
	var guard *GuardViolation
	if !errors.As(err, &guard) {
		t.Fatalf("expected GuardViolation after decision, got %v", err)
	}
	if api.callCount("validate") != 1 {
		t.Fatalf("expected no second call, got %d", api.callCount("validate"))
	}
}

func TestRefusalReasonGate(t *testing.T) {
	api := &fakeCollaborator{}
	c := NewController(api, 1, twoGroupCatalog(), 2)

	if err := c.RefuseAssessment(context.Background(), "short"); err == nil {
		t.Fatal("expected error for short refusal reason")
	}
	if api.callCount("refuse") != 0 {
		t.Fatal("short reason must not fire a network call")
	}

	if err := c.RefuseAssessment(context.Background(), "  incomplete objectives  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.lastReason != "incomplete objectives" {
		t.Fatalf("expected trimmed reason, got %q", api.lastReason)
	}
	if !c.Terminal() {
		t.Fatal("refusal should abort the workflow instance")
	}
}

func TestGroupNavigationClamped(t *testing.T) {
	c := NewController(&fakeCollaborator{}, 1, twoGroupCatalog(), 1)
	if c.CurrentGroupID() != 1 {
		t.Fatalf("expected first group, got %d", c.CurrentGroupID())
	}

	c.HandlePreviousGroup() // no-op before first
	if c.CurrentGroupID() != 1 {
		t.Fatal("previous on first group must be a no-op")
	}

	c.HandleNextGroup()
	if c.CurrentGroupID() != 2 {
		t.Fatalf("expected group 2, got %d", c.CurrentGroupID())
	}

	c.HandleNextGroup() // no-op past last
	if c.CurrentGroupID() != 2 {
		t.Fatal("next on last group must be a no-op")
	}

	c.HandleGroupChange(42) // unknown group ignored
	if c.CurrentGroupID() != 2 {
		t.Fatal("unknown group id must be ignored")
	}
	c.HandleGroupChange(1)
	if c.CurrentGroupID() != 1 {
		t.Fatal("lateral navigation to a known group should work")
	}
}

func TestApproverStepIsReadOnly(t *testing.T) {
	c := NewController(&fakeCollaborator{}, 1, twoGroupCatalog(), 3)
	err := c.SetResponse(1, "5")
	var guard *GuardViolation
	if !errors.As(err, &guard) {
		t.Fatalf("expected GuardViolation, got %v", err)
	}
	if err := c.SetEvaluator(10); err == nil {
		t.Fatal("selectors must be frozen outside step 1")
	}
}

func TestLoadDraftPopulatesActiveStore(t *testing.T) {
	api := &fakeCollaborator{draft: []Response{{ItemID: 1, Value: "4"}}}
	c := NewController(api, 1, twoGroupCatalog(), 1)

	if err := c.LoadDraft(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	responses := c.Responses(RoleEmployee)
	if len(responses) != 1 || responses[0].Value != "4" {
		t.Fatalf("expected draft loaded, got %v", responses)
	}
}

func TestEndToEndSelfAssessment(t *testing.T) {
	// Catalog: group A with one numeric item (id 1), group B with one boolean
	// item (id 2). Employee answers both, selects evaluator and approver.
	api := &fakeCollaborator{}
	c := NewController(api, 99, twoGroupCatalog(), 1)
	_ = c.SetResponse(1, "3")
	_ = c.SetResponse(2, "oui")
	_ = c.SetEvaluator(10)
	_ = c.SetApprover(20)
	_ = c.SetMission(30)

	store := NewResponseStore()
	store.Load(c.Responses(RoleEmployee))
	sel := c.Selectors()
	if missing := ValidateAllFields(c.Catalog().Items(), store, &sel); len(missing) != 0 {
		t.Fatalf("expected missing=[], got %v", missing)
	}
	if err := c.SubmitSelfAssessment(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Step() != StepEvaluatorAssessment {
		t.Fatalf("expected currentStep 2, got %d", c.Step())
	}
}
