package task

import (
	"context"
	"errors"
	"time"

	"github.com/psundaram/drillmaster/internal/model/task"
	"github.com/psundaram/drillmaster/internal/store"
)

var (
	ErrEmptyDescription = errors.New("task description is required")
	ErrTaskNotFound     = errors.New("task not found")
)

// Service manages task records for users.
type Service struct {
	repo store.Repository
	now  func() time.Time
}

// NewService creates the task service.
func NewService(repo store.Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Assign creates a task for a user, due the given number of days from now.
// A negative day count falls back to the default rather than failing the
// assignment.
func (s *Service) Assign(ctx context.Context, userID, description string, days int) (task.Record, error) {
	if description == "" {
		return task.Record{}, ErrEmptyDescription
	}

	now := s.now()
	deadline, err := task.Deadline(now, days)
	if err != nil {
		deadline, _ = task.Deadline(now, task.DefaultDeadlineDays)
	}

	record := task.Record{
		UserID:      userID,
		Description: description,
		Deadline:    deadline,
		Completed:   false,
		CreatedAt:   now,
	}

	id, err := s.repo.AppendTask(ctx, &record)
	if err != nil {
		return task.Record{}, err
	}
	record.ID = id
	return record, nil
}

// List returns a user's tasks ordered by deadline.
func (s *Service) List(ctx context.Context, userID string) ([]task.Record, error) {
	return s.repo.ListTasks(ctx, userID)
}

// Complete marks a user's task as done.
func (s *Service) Complete(ctx context.Context, id, userID string) error {
	err := s.repo.CompleteTask(ctx, id, userID, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

// Delete removes a user's task.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	err := s.repo.DeleteTask(ctx, id, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}
