package evaluation

import "testing"

func testCatalog() *Catalog {
	groups := []CriteriaGroup{
		{ID: 1, Name: "Technical skills"},
		{ID: 2, Name: "Conduct"},
	}
	items := []CriteriaItem{
		{ID: 10, Type: TypeNumeric, Label: "Quality", GroupID: 1},
		{ID: 11, Type: TypeBoolean, Label: "Deadlines met", GroupID: 2},
		{ID: 12, Type: TypeCommentaire, Label: "General comment", GroupID: 2},
	}
	return NewCatalog(groups, items)
}

func TestResolveGroupNameFallback(t *testing.T) {
	catalog := testCatalog()
	if name := catalog.ResolveGroupName(1); name != "Technical skills" {
		t.Fatalf("expected known group name, got %q", name)
	}
	if name := catalog.ResolveGroupName(99); name != "Group 99" {
		t.Fatalf("expected synthesized fallback, got %q", name)
	}
}

func TestCatalogFillsItemGroupNames(t *testing.T) {
	catalog := NewCatalog(
		[]CriteriaGroup{{ID: 1, Name: "Skills"}},
		[]CriteriaItem{
			{ID: 10, Type: TypeNumeric, Label: "Quality", GroupID: 1},
			{ID: 11, Type: TypeNumeric, Label: "Orphan", GroupID: 7},
		},
	)
	items := catalog.Items()
	if items[0].GroupName != "Skills" {
		t.Fatalf("expected resolved group name, got %q", items[0].GroupName)
	}
	// An unresolvable group is a data error handled by the display fallback.
	if items[1].GroupName != "Group 7" {
		t.Fatalf("expected fallback group name, got %q", items[1].GroupName)
	}
}

func TestCatalogGroupOrder(t *testing.T) {
	catalog := testCatalog()
	ids := catalog.GroupIDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("expected catalog order [1 2], got %v", ids)
	}
	if idx := catalog.IndexOfGroup(2); idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if idx := catalog.IndexOfGroup(42); idx != -1 {
		t.Fatalf("expected -1 for unknown group, got %d", idx)
	}
	first, ok := catalog.FirstGroupID()
	if !ok || first != 1 {
		t.Fatalf("expected first group 1, got %d (%v)", first, ok)
	}
}

func TestItemsForGroup(t *testing.T) {
	catalog := testCatalog()
	conduct := catalog.ItemsForGroup(2)
	if len(conduct) != 2 {
		t.Fatalf("expected 2 items in group 2, got %d", len(conduct))
	}
	if len(catalog.ItemsForGroup(42)) != 0 {
		t.Fatal("expected no items for unknown group")
	}
}
