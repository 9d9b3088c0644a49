package task_test

import (
	"errors"
	"testing"
	"time"

	"github.com/psundaram/drillmaster/internal/model/task"
)

func TestDeadlineShiftsByDays(t *testing.T) {
	ref := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, days := range []int{0, 1, 2, 7, 30} {
		got, err := task.Deadline(ref, days)
		if err != nil {
			t.Fatalf("Deadline(%d) err: %v", days, err)
		}
		want := ref.Add(time.Duration(days) * 24 * time.Hour)
		if !got.Equal(want) {
			t.Fatalf("Deadline(%d) = %v, want %v", days, got, want)
		}
		if days >= 1 && !got.After(ref) {
			t.Fatalf("Deadline(%d) should be after the reference", days)
		}
	}
}

func TestDeadlineZeroDaysYieldsReference(t *testing.T) {
	ref := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	got, err := task.Deadline(ref, 0)
	if err != nil {
		t.Fatalf("Deadline(0) err: %v", err)
	}
	if !got.Equal(ref) {
		t.Fatalf("Deadline(0) = %v, want %v", got, ref)
	}
}

func TestDeadlineRejectsNegativeDays(t *testing.T) {
	if _, err := task.Deadline(time.Now(), -1); !errors.Is(err, task.ErrInvalidDays) {
		t.Fatalf("expected ErrInvalidDays, got %v", err)
	}
}
