// Package store provides data persistence for users, chat turns and tasks.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/psundaram/drillmaster/internal/model/chat"
	"github.com/psundaram/drillmaster/internal/model/task"
	"github.com/psundaram/drillmaster/internal/model/user"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Stats aggregates counts for the admin dashboard.
type Stats struct {
	TotalUsers  int64 `json:"totalUsers"`
	TotalChats  int64 `json:"totalChats"`
	TotalTasks  int64 `json:"totalTasks"`
	ActiveUsers int64 `json:"activeUsers"`
}

// Repository defines the persistence operations consumed by the services.
type Repository interface {
	// CreateUser inserts a new user. Duplicate emails are rejected.
	CreateUser(ctx context.Context, u *user.User) error

	// GetUser retrieves a user by id.
	GetUser(ctx context.Context, id string) (*user.User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)

	// ListUsers returns all users ordered by last login, most recent first.
	ListUsers(ctx context.Context) ([]*user.User, error)

	// UpdateLastLogin stamps a user's last login time.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// DeleteUser removes a user along with their chats and tasks.
	DeleteUser(ctx context.Context, id string) error

	// AppendChat inserts a chat turn and returns its id.
	AppendChat(ctx context.Context, t *chat.Turn) (string, error)

	// UpdateChatOutbound replaces the outbound text of an existing turn.
	UpdateChatOutbound(ctx context.Context, id, text string) error

	// ListChats returns a user's turns in chronological order. A limit of
	// zero means no limit; a positive limit keeps the most recent turns.
	ListChats(ctx context.Context, userID string, limit int) ([]chat.Turn, error)

	// DeleteChat removes a single turn.
	DeleteChat(ctx context.Context, id string) error

	// AppendTask inserts a task record and returns its id.
	AppendTask(ctx context.Context, r *task.Record) (string, error)

	// ListTasks returns a user's tasks ordered by deadline, soonest first.
	ListTasks(ctx context.Context, userID string) ([]task.Record, error)

	// CompleteTask marks a user's task completed at the given time.
	CompleteTask(ctx context.Context, id, userID string, at time.Time) error

	// DeleteTask removes a user's task.
	DeleteTask(ctx context.Context, id, userID string) error

	// GetSetting returns a named setting value, ErrNotFound when unset.
	GetSetting(ctx context.Context, key string) (string, error)

	// SetSetting stores a named setting value, replacing any previous one.
	SetSetting(ctx context.Context, key, value string) error

	// DashboardStats aggregates totals plus users active since the cutoff.
	DashboardStats(ctx context.Context, activeSince time.Time) (Stats, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
