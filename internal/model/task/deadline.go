package task

import (
	"errors"
	"time"
)

// DefaultDeadlineDays applies when a descriptor carries no usable deadline.
const DefaultDeadlineDays = 1

// ErrInvalidDays rejects negative deadline offsets.
var ErrInvalidDays = errors.New("deadline days must be non-negative")

// Deadline returns ref shifted forward by the given number of days.
// A zero day count yields ref itself.
func Deadline(ref time.Time, days int) (time.Time, error) {
	if days < 0 {
		return time.Time{}, ErrInvalidDays
	}
	return ref.Add(time.Duration(days) * 24 * time.Hour), nil
}
