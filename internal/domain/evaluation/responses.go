package evaluation

// ResponseStore holds one actor's in-progress answers, keyed by criterion id.
// Writing a second value for the same item replaces the first; snapshot order
// is first-insertion order. Stores are per-actor and never shared or merged.
//
// The store is not safe for concurrent use; the workflow is single-writer.
type ResponseStore struct {
	order  []int64
	values map[int64]string
}

func NewResponseStore() *ResponseStore {
	return &ResponseStore{values: make(map[int64]string)}
}

func (s *ResponseStore) Set(itemID int64, value string) {
	if _, ok := s.values[itemID]; !ok {
		s.order = append(s.order, itemID)
	}
	s.values[itemID] = value
}

// Lookup returns the stored response for an item, or nil when the item has no
// entry. A nil response is invalid for every criterion type. A nil store has
// no entries.
func (s *ResponseStore) Lookup(itemID int64) *Response {
	if s == nil {
		return nil
	}
	value, ok := s.values[itemID]
	if !ok {
		return nil
	}
	return &Response{ItemID: itemID, Value: value}
}

func (s *ResponseStore) Len() int {
	return len(s.order)
}

// Snapshot returns all responses in insertion order.
func (s *ResponseStore) Snapshot() []Response {
	out := make([]Response, 0, len(s.order))
	for _, itemID := range s.order {
		out = append(out, Response{ItemID: itemID, Value: s.values[itemID]})
	}
	return out
}

// Load replaces the store contents with previously persisted responses,
// typically a draft fetched when resuming a step.
func (s *ResponseStore) Load(responses []Response) {
	s.order = s.order[:0]
	s.values = make(map[int64]string, len(responses))
	for _, resp := range responses {
		s.Set(resp.ItemID, resp.Value)
	}
}
