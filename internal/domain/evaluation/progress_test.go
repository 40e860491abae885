package evaluation

import "testing"

func TestStep1ProgressCountsSelectorsAndItems(t *testing.T) {
	catalog := testCatalog()
	store := NewResponseStore()

	// 3 items + 3 selectors, nothing filled.
	got := CalculateProgress(StepSelfAssessment, catalog.Items(), store, Selectors{}, catalog.GroupIDs(), 1)
	if got != 0 {
		t.Fatalf("expected 0%%, got %d", got)
	}

	store.Set(10, "4")
	selectors := Selectors{EvaluatorID: 5}
	got = CalculateProgress(StepSelfAssessment, catalog.Items(), store, selectors, catalog.GroupIDs(), 1)
	if got != 33 { // 2 of 6, rounded
		t.Fatalf("expected 33%%, got %d", got)
	}

	store.Set(11, "oui")
	store.Set(12, "done")
	selectors = Selectors{EvaluatorID: 5, ApproverID: 6, MissionID: 7}
	got = CalculateProgress(StepSelfAssessment, catalog.Items(), store, selectors, catalog.GroupIDs(), 1)
	if got != 100 {
		t.Fatalf("expected 100%%, got %d", got)
	}
}

func TestStep1ProgressMonotonic(t *testing.T) {
	catalog := testCatalog()
	store := NewResponseStore()
	selectors := Selectors{}

	previous := CalculateProgress(StepSelfAssessment, catalog.Items(), store, selectors, catalog.GroupIDs(), 1)
	fill := []struct {
		itemID int64
		value  string
	}{
		{10, "3"},
		{11, "non"},
		{12, "observed"},
	}
	for _, step := range fill {
		store.Set(step.itemID, step.value)
		current := CalculateProgress(StepSelfAssessment, catalog.Items(), store, selectors, catalog.GroupIDs(), 1)
		if current < previous {
			t.Fatalf("progress decreased from %d to %d after filling item %d", previous, current, step.itemID)
		}
		previous = current
	}
}

func TestStep2ProgressIgnoresSelectors(t *testing.T) {
	catalog := testCatalog()
	store := NewResponseStore()
	store.Set(10, "N/A")

	got := CalculateProgress(StepEvaluatorAssessment, catalog.Items(), store, Selectors{}, catalog.GroupIDs(), 1)
	if got != 33 { // 1 of 3
		t.Fatalf("expected 33%%, got %d", got)
	}

	// Selectors must not contribute in step 2.
	withSelectors := CalculateProgress(StepEvaluatorAssessment, catalog.Items(), store, Selectors{EvaluatorID: 1, ApproverID: 2, MissionID: 3}, catalog.GroupIDs(), 1)
	if withSelectors != got {
		t.Fatalf("selectors changed step 2 progress: %d vs %d", withSelectors, got)
	}
}

func TestStep3ProgressIsGroupPositional(t *testing.T) {
	catalog := testCatalog()
	store := NewResponseStore() // empty: step 3 ignores validation entirely

	if got := CalculateProgress(StepApproverDecision, catalog.Items(), store, Selectors{}, catalog.GroupIDs(), 1); got != 50 {
		t.Fatalf("expected 50%% on first of two groups, got %d", got)
	}
	if got := CalculateProgress(StepApproverDecision, catalog.Items(), store, Selectors{}, catalog.GroupIDs(), 2); got != 100 {
		t.Fatalf("expected 100%% on last group, got %d", got)
	}
}

func TestGroupErrorsFlagInvalidGroups(t *testing.T) {
	catalog := testCatalog()
	store := NewResponseStore()
	store.Set(10, "4") // group 1 fully valid
	store.Set(11, "oui")

	selectors := Selectors{EvaluatorID: 1, ApproverID: 2, MissionID: 3}
	errs := CalculateGroupErrors(StepSelfAssessment, catalog, store, selectors)
	if errs[1] {
		t.Fatal("group 1 should be clean")
	}
	if !errs[2] {
		t.Fatal("group 2 should be flagged: comment missing")
	}
}

func TestUnsetSelectorFlagsFirstGroup(t *testing.T) {
	catalog := testCatalog()
	store := NewResponseStore()
	store.Set(10, "4")
	store.Set(11, "oui")
	store.Set(12, "all good")

	// Every item valid, evaluator unset: first catalog group carries the flag.
	selectors := Selectors{ApproverID: 2, MissionID: 3}
	errs := CalculateGroupErrors(StepSelfAssessment, catalog, store, selectors)
	if !errs[1] {
		t.Fatal("expected first group flagged when evaluator is unset")
	}
	if errs[2] {
		t.Fatal("second group should stay clean")
	}

	// Step 2 has no selector rule.
	errs = CalculateGroupErrors(StepEvaluatorAssessment, catalog, store, selectors)
	if errs[1] {
		t.Fatal("selector rule must not apply in step 2")
	}
}
