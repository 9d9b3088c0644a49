package task

import "time"

// Record is a persisted task assignment.
type Record struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Description string     `json:"description"`
	Deadline    time.Time  `json:"deadline"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Overdue reports whether the task is past its deadline and still open.
func (r Record) Overdue(now time.Time) bool {
	return !r.Completed && now.After(r.Deadline)
}

// Descriptor is a task extracted from an assistant reply before it is
// persisted: a description plus a relative deadline in days.
type Descriptor struct {
	Description  string
	DeadlineDays int
}
