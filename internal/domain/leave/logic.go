package leave

import (
	"errors"
	"time"
)

var (
	ErrEndBeforeStart    = errors.New("leave end date precedes start date")
	ErrEmptyHalfDayRange = errors.New("half-day markers leave no time to take")
)

// CalculateDays returns the inclusive calendar-day count of a leave range.
// A single-day request counts as 1.
func CalculateDays(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, ErrEndBeforeStart
	}
	return end.Sub(start).Hours()/24 + 1, nil
}

// CalculateRequestDays applies the half-day boundary markers to the inclusive
// range: each marker shaves half a day off the total. A single day with both
// markers set would collapse to zero and is rejected.
func CalculateRequestDays(start, end time.Time, startHalf, endHalf bool) (float64, error) {
	days, err := CalculateDays(start, end)
	if err != nil {
		return 0, err
	}

	if startHalf {
		days -= 0.5
	}
	if endHalf {
		days -= 0.5
	}
	if days <= 0 {
		return 0, ErrEmptyHalfDayRange
	}
	return days, nil
}
