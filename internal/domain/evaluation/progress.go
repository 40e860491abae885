package evaluation

import "math"

// CalculateProgress derives a 0-100 completion percentage for the active step.
//
// Step 1 counts valid items plus the three top-level selectors. Step 2 counts
// valid items only. Step 3 is group-positional: the approver reviews rather
// than edits, so progress tracks how far through the group tabs they are.
func CalculateProgress(step Step, items []CriteriaItem, store *ResponseStore, selectors Selectors, groupIDs []int64, currentGroupID int64) int {
	switch step {
	case StepSelfAssessment:
		denominator := len(items) + 3
		if denominator == 0 {
			return 0
		}
		numerator := countValid(items, store) + selectors.SetCount()
		return roundPercent(numerator, denominator)
	case StepEvaluatorAssessment:
		if len(items) == 0 {
			return 0
		}
		return roundPercent(countValid(items, store), len(items))
	case StepApproverDecision:
		if len(groupIDs) == 0 {
			return 0
		}
		position := 0
		for i, id := range groupIDs {
			if id == currentGroupID {
				position = i
				break
			}
		}
		return roundPercent(position+1, len(groupIDs))
	default:
		return 0
	}
}

// CalculateGroupErrors returns, per group, whether the group should carry an
// error badge: true when any of its items is missing or invalid for the acting
// role. In step 1, if any top-level selector is unset, the first group in
// catalog order is additionally flagged so the global error surfaces on the
// first visible tab.
func CalculateGroupErrors(step Step, catalog *Catalog, store *ResponseStore, selectors Selectors) map[int64]bool {
	errs := make(map[int64]bool, len(catalog.Groups()))
	for _, group := range catalog.Groups() {
		flagged := false
		for _, item := range catalog.ItemsForGroup(group.ID) {
			if !IsValidResponse(store.Lookup(item.ID), item.Type) {
				flagged = true
				break
			}
		}
		errs[group.ID] = flagged
	}
	if step == StepSelfAssessment && !selectors.AllSet() {
		if firstID, ok := catalog.FirstGroupID(); ok {
			errs[firstID] = true
		}
	}
	return errs
}

func countValid(items []CriteriaItem, store *ResponseStore) int {
	count := 0
	for _, item := range items {
		if IsValidResponse(store.Lookup(item.ID), item.Type) {
			count++
		}
	}
	return count
}

func roundPercent(numerator, denominator int) int {
	return int(math.Round(100 * float64(numerator) / float64(denominator)))
}
