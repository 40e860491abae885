package mission

import "time"

const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

type Mission struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Client    string     `json:"client"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Status    string     `json:"status"`
}
