package evaluation

import "testing"

func TestResponseStoreUpsert(t *testing.T) {
	store := NewResponseStore()
	store.Set(7, "2")
	store.Set(7, "5")

	if store.Len() != 1 {
		t.Fatalf("expected one entry after upsert, got %d", store.Len())
	}
	resp := store.Lookup(7)
	if resp == nil || resp.Value != "5" {
		t.Fatalf("expected last write to win, got %+v", resp)
	}
}

func TestResponseStoreSnapshotOrder(t *testing.T) {
	store := NewResponseStore()
	store.Set(3, "a")
	store.Set(1, "b")
	store.Set(2, "c")
	store.Set(1, "b2")

	snapshot := store.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(snapshot))
	}
	wantOrder := []int64{3, 1, 2}
	for i, resp := range snapshot {
		if resp.ItemID != wantOrder[i] {
			t.Fatalf("expected insertion order %v, got %v", wantOrder, snapshot)
		}
	}
	if snapshot[1].Value != "b2" {
		t.Fatalf("expected upserted value at original position, got %q", snapshot[1].Value)
	}
}

func TestResponseStoreLoadReplaces(t *testing.T) {
	store := NewResponseStore()
	store.Set(1, "old")
	store.Load([]Response{{ItemID: 4, Value: "x"}, {ItemID: 5, Value: "y"}})

	if store.Lookup(1) != nil {
		t.Fatal("expected previous entries to be dropped on load")
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", store.Len())
	}
}

func TestResponseValueDecodesStringsAndNumbers(t *testing.T) {
	var resp Response
	if err := resp.UnmarshalJSON([]byte(`{"itemId":1,"value":3}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Value != "3" {
		t.Fatalf("expected numeric value normalized to string, got %q", resp.Value)
	}
	if err := resp.UnmarshalJSON([]byte(`{"itemId":2,"value":"oui"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ItemID != 2 || resp.Value != "oui" {
		t.Fatalf("unexpected decode result: %+v", resp)
	}
	if err := resp.UnmarshalJSON([]byte(`{"itemId":3,"value":{"nested":true}}`)); err == nil {
		t.Fatal("expected error for object value")
	}
}
