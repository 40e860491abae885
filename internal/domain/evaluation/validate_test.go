package evaluation

import "testing"

func TestNumericValidityBoundaries(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"0", false},
		{"1", true},
		{"3", true},
		{"5", true},
		{"6", false},
		{"4.5", true},
		{"N/A", true},
		{"abc", false},
		{"", false},
	}
	for _, tc := range cases {
		got := IsValidResponse(&Response{ItemID: 1, Value: tc.value}, TypeNumeric)
		if got != tc.want {
			t.Fatalf("numeric %q: expected %v, got %v", tc.value, tc.want, got)
		}
	}
}

func TestTextValidityRequiresNonEmpty(t *testing.T) {
	for _, ctype := range []CriteriaType{TypeObservation, TypeCommentaire} {
		if IsValidResponse(&Response{ItemID: 1, Value: ""}, ctype) {
			t.Fatalf("%s: empty string should be invalid", ctype)
		}
		if IsValidResponse(&Response{ItemID: 1, Value: "   "}, ctype) {
			t.Fatalf("%s: whitespace should be invalid", ctype)
		}
		if !IsValidResponse(&Response{ItemID: 1, Value: "ok"}, ctype) {
			t.Fatalf("%s: non-empty text should be valid", ctype)
		}
	}
}

func TestBooleanValidityEnumeration(t *testing.T) {
	valid := []string{"oui", "non"}
	for _, value := range valid {
		if !IsValidResponse(&Response{ItemID: 1, Value: value}, TypeBoolean) {
			t.Fatalf("boolean %q should be valid", value)
		}
	}
	invalid := []string{"yes", "1", "", "Oui", "N/A"}
	for _, value := range invalid {
		if IsValidResponse(&Response{ItemID: 1, Value: value}, TypeBoolean) {
			t.Fatalf("boolean %q should be invalid", value)
		}
	}
}

func TestMissingResponseAlwaysInvalid(t *testing.T) {
	for _, ctype := range []CriteriaType{TypeNumeric, TypeObservation, TypeBoolean, TypeCommentaire} {
		if IsValidResponse(nil, ctype) {
			t.Fatalf("%s: missing response should be invalid", ctype)
		}
	}
}

func TestNotApplicableSentinel(t *testing.T) {
	if !IsValidResponse(&Response{ItemID: 1, Value: NotApplicable}, TypeNumeric) {
		t.Fatal("numeric: N/A should be valid")
	}
	if IsValidResponse(&Response{ItemID: 1, Value: NotApplicable}, TypeBoolean) {
		t.Fatal("boolean: N/A should be invalid")
	}
}

func TestValidateAllFieldsOrderAndSelectors(t *testing.T) {
	items := []CriteriaItem{
		{ID: 1, Type: TypeNumeric, Label: "Quality", GroupName: "Skills"},
		{ID: 2, Type: TypeBoolean, Label: "On time", GroupName: "Conduct"},
		{ID: 3, Type: TypeCommentaire, Label: "Comment", GroupName: "Conduct"},
	}
	store := NewResponseStore()
	store.Set(2, "oui")

	selectors := Selectors{EvaluatorID: 10}
	missing := ValidateAllFields(items, store, &selectors)
	if len(missing) != 4 {
		t.Fatalf("expected 4 missing entries, got %d: %v", len(missing), missing)
	}
	if missing[0].Label != "Quality" || missing[1].Label != "Comment" {
		t.Fatalf("missing entries out of catalog order: %v", missing)
	}
	if missing[2].Label != "Approver" || missing[3].Label != "Mission" {
		t.Fatalf("expected unset selectors appended, got %v", missing)
	}
}

func TestValidateAllFieldsEmptyMeansSubmittable(t *testing.T) {
	items := []CriteriaItem{
		{ID: 1, Type: TypeNumeric, Label: "Quality"},
		{ID: 2, Type: TypeBoolean, Label: "On time"},
	}
	store := NewResponseStore()
	store.Set(1, "3")
	store.Set(2, "non")

	selectors := Selectors{EvaluatorID: 10, ApproverID: 20, MissionID: 30}
	if missing := ValidateAllFields(items, store, &selectors); len(missing) != 0 {
		t.Fatalf("expected no missing fields, got %v", missing)
	}
	// Step 2 has no selector requirement.
	if missing := ValidateAllFields(items, store, nil); len(missing) != 0 {
		t.Fatalf("expected no missing fields without selectors, got %v", missing)
	}
}
