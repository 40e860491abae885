package evaluation

import (
	"strconv"
	"strings"
)

// Selectors are the step-1 top-level choices the employee must make before
// submitting a self-assessment. Zero means unset.
type Selectors struct {
	EvaluatorID int64
	ApproverID  int64
	MissionID   int64
}

func (s Selectors) SetCount() int {
	count := 0
	if s.EvaluatorID != 0 {
		count++
	}
	if s.ApproverID != 0 {
		count++
	}
	if s.MissionID != 0 {
		count++
	}
	return count
}

func (s Selectors) AllSet() bool {
	return s.SetCount() == 3
}

// IsValidResponse reports whether a response satisfies its criterion type:
//
//   - numeric: the literal "N/A", or a number in the closed range [1, 5]
//   - observation, commentaire: non-empty after trimming
//   - boolean: exactly "oui" or "non"
//
// A missing response (nil) is invalid for every type.
func IsValidResponse(resp *Response, ctype CriteriaType) bool {
	if resp == nil {
		return false
	}
	switch ctype {
	case TypeNumeric:
		value := strings.TrimSpace(resp.Value)
		if value == NotApplicable {
			return true
		}
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		return n >= 1 && n <= 5
	case TypeObservation, TypeCommentaire:
		return strings.TrimSpace(resp.Value) != ""
	case TypeBoolean:
		return resp.Value == AnswerYes || resp.Value == AnswerNo
	default:
		return false
	}
}

// ValidateAllFields walks every catalog item (not just the displayed group)
// and collects a descriptor for each missing or invalid response, in catalog
// iteration order. When selectors is non-nil (step 1), unset selectors are
// appended after the item entries. An empty result means the step may submit.
func ValidateAllFields(items []CriteriaItem, store *ResponseStore, selectors *Selectors) []MissingField {
	missing := make([]MissingField, 0)
	for _, item := range items {
		if !IsValidResponse(store.Lookup(item.ID), item.Type) {
			missing = append(missing, MissingField{Label: item.Label, Group: item.GroupName})
		}
	}
	if selectors != nil {
		if selectors.EvaluatorID == 0 {
			missing = append(missing, MissingField{Label: "Evaluator"})
		}
		if selectors.ApproverID == 0 {
			missing = append(missing, MissingField{Label: "Approver"})
		}
		if selectors.MissionID == 0 {
			missing = append(missing, MissingField{Label: "Mission"})
		}
	}
	return missing
}
