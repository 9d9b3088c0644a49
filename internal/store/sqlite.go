package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/psundaram/drillmaster/internal/model/chat"
	"github.com/psundaram/drillmaster/internal/model/task"
	"github.com/psundaram/drillmaster/internal/model/user"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode for better concurrency between request handlers.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin INTEGER NOT NULL DEFAULT 0,
		last_login INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		message TEXT,
		response TEXT NOT NULL,
		is_system INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chats_user_time ON chats(user_id, created_at);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		description TEXT NOT NULL,
		deadline INTEGER NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		completed_at INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_user_deadline ON tasks(user_id, deadline);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CreateUser inserts a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.LastLogin.IsZero() {
		u.LastLogin = u.CreatedAt
	}

	query := `
	INSERT INTO users (id, email, password_hash, is_admin, last_login, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Email, u.PasswordHash, boolToInt(u.IsAdmin),
		u.LastLogin.Unix(), u.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, is_admin, last_login, created_at FROM users WHERE id = ?`, id))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, is_admin, last_login, created_at FROM users WHERE email = ?`, email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*user.User, error) {
	var u user.User
	var isAdmin int
	var lastLogin, createdAt int64

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &isAdmin, &lastLogin, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	u.IsAdmin = isAdmin != 0
	u.LastLogin = time.Unix(lastLogin, 0).UTC()
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// ListUsers returns all users, most recently active first.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*user.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, password_hash, is_admin, last_login, created_at FROM users ORDER BY last_login DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		var u user.User
		var isAdmin int
		var lastLogin, createdAt int64
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &isAdmin, &lastLogin, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		u.IsAdmin = isAdmin != 0
		u.LastLogin = time.Unix(lastLogin, 0).UTC()
		u.CreatedAt = time.Unix(createdAt, 0).UTC()
		users = append(users, &u)
	}
	return users, rows.Err()
}

// UpdateLastLogin stamps a user's last login time.
func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE id = ?`, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("update last_login: %w", err)
	}
	return errIfNoRows(result)
}

// DeleteUser removes a user and all owned chats and tasks.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("delete user chats: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("delete user tasks: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := errIfNoRows(result); err != nil {
		return err
	}
	return tx.Commit()
}

// AppendChat inserts a chat turn.
func (s *SQLiteStore) AppendChat(ctx context.Context, t *chat.Turn) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	var message any
	if t.Inbound != "" {
		message = t.Inbound
	}

	query := `
	INSERT INTO chats (id, user_id, message, response, is_system, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.UserID, message, t.Outbound, boolToInt(t.IsSystem), t.CreatedAt.Unix())
	if err != nil {
		return "", fmt.Errorf("insert chat turn: %w", err)
	}
	return t.ID, nil
}

// UpdateChatOutbound replaces a turn's outbound text.
func (s *SQLiteStore) UpdateChatOutbound(ctx context.Context, id, text string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE chats SET response = ? WHERE id = ?`, text, id)
	if err != nil {
		return fmt.Errorf("update chat outbound: %w", err)
	}
	return errIfNoRows(result)
}

// ListChats returns turns for a user ordered oldest first. A positive limit
// keeps only the most recent turns.
func (s *SQLiteStore) ListChats(ctx context.Context, userID string, limit int) ([]chat.Turn, error) {
	query := `
	SELECT id, user_id, message, response, is_system, created_at
	FROM chats WHERE user_id = ? ORDER BY created_at ASC, rowid ASC`
	args := []any{userID}

	if limit > 0 {
		// Window the most recent rows while keeping chronological order.
		query = `
		SELECT id, user_id, message, response, is_system, created_at FROM (
			SELECT id, user_id, message, response, is_system, created_at, rowid AS rid
			FROM chats WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
		) ORDER BY created_at ASC, rid ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	var turns []chat.Turn
	for rows.Next() {
		var t chat.Turn
		var message sql.NullString
		var isSystem int
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.UserID, &message, &t.Outbound, &isSystem, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat row: %w", err)
		}
		t.Inbound = message.String
		t.IsSystem = isSystem != 0
		t.CreatedAt = time.Unix(createdAt, 0).UTC()
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// DeleteChat removes a single turn.
func (s *SQLiteStore) DeleteChat(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return errIfNoRows(result)
}

// AppendTask inserts a task record.
func (s *SQLiteStore) AppendTask(ctx context.Context, r *task.Record) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO tasks (id, user_id, description, deadline, completed, completed_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	var completedAt any
	if r.CompletedAt != nil {
		completedAt = r.CompletedAt.Unix()
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.UserID, r.Description, r.Deadline.Unix(),
		boolToInt(r.Completed), completedAt, r.CreatedAt.Unix())
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	return r.ID, nil
}

// ListTasks returns a user's tasks ordered by deadline, soonest first.
func (s *SQLiteStore) ListTasks(ctx context.Context, userID string) ([]task.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, user_id, description, deadline, completed, completed_at, created_at
	FROM tasks WHERE user_id = ? ORDER BY deadline ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Record
	for rows.Next() {
		var r task.Record
		var completed int
		var completedAt sql.NullInt64
		var deadline, createdAt int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.Description, &deadline, &completed, &completedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		r.Completed = completed != 0
		r.Deadline = time.Unix(deadline, 0).UTC()
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		if completedAt.Valid {
			at := time.Unix(completedAt.Int64, 0).UTC()
			r.CompletedAt = &at
		}
		tasks = append(tasks, r)
	}
	return tasks, rows.Err()
}

// CompleteTask marks a task as completed.
func (s *SQLiteStore) CompleteTask(ctx context.Context, id, userID string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = 1, completed_at = ? WHERE id = ? AND user_id = ?`,
		at.Unix(), id, userID)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return errIfNoRows(result)
}

// DeleteTask removes a user's task.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return errIfNoRows(result)
}

// GetSetting returns a named setting value.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting stores a named setting value.
func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// DashboardStats aggregates totals for the admin dashboard.
func (s *SQLiteStore) DashboardStats(ctx context.Context, activeSince time.Time) (Stats, error) {
	var stats Stats
	row := s.db.QueryRowContext(ctx, `
	SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM chats),
		(SELECT COUNT(*) FROM tasks),
		(SELECT COUNT(*) FROM users WHERE last_login >= ?)`,
		activeSince.Unix())
	if err := row.Scan(&stats.TotalUsers, &stats.TotalChats, &stats.TotalTasks, &stats.ActiveUsers); err != nil {
		return Stats{}, fmt.Errorf("scan dashboard stats: %w", err)
	}
	return stats, nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func errIfNoRows(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
