package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/psundaram/drillmaster/internal/model/chat"
	"github.com/psundaram/drillmaster/internal/model/task"
	"github.com/psundaram/drillmaster/internal/model/user"
	"github.com/psundaram/drillmaster/internal/store"
)

func newStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	u := &user.User{Email: "recruit@example.com", PasswordHash: "hash", IsAdmin: false}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}
	if u.ID == "" {
		t.Fatal("CreateUser must assign an id")
	}

	got, err := s.GetUserByEmail(ctx, "recruit@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail err: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("id mismatch: %s vs %s", got.ID, u.ID)
	}

	dup := &user.User{Email: "recruit@example.com", PasswordHash: "other"}
	if err := s.CreateUser(ctx, dup); err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}

	if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	u := &user.User{Email: "recruit@example.com", PasswordHash: "hash"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}

	turn := chat.Turn{UserID: u.ID, Inbound: "hello", Outbound: "hi"}
	if _, err := s.AppendChat(ctx, &turn); err != nil {
		t.Fatalf("AppendChat err: %v", err)
	}
	record := task.Record{UserID: u.ID, Description: "run", Deadline: time.Now().Add(24 * time.Hour)}
	if _, err := s.AppendTask(ctx, &record); err != nil {
		t.Fatalf("AppendTask err: %v", err)
	}

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser err: %v", err)
	}

	chats, err := s.ListChats(ctx, u.ID, 0)
	if err != nil {
		t.Fatalf("ListChats err: %v", err)
	}
	if len(chats) != 0 {
		t.Fatalf("expected chats removed, got %d", len(chats))
	}
	tasks, err := s.ListTasks(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListTasks err: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected tasks removed, got %d", len(tasks))
	}
}

func TestChatOutboundUpdate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	turn := chat.Turn{UserID: "u1", Inbound: "hello", Outbound: chat.PlaceholderOutbound}
	id, err := s.AppendChat(ctx, &turn)
	if err != nil {
		t.Fatalf("AppendChat err: %v", err)
	}

	if err := s.UpdateChatOutbound(ctx, id, "welcome"); err != nil {
		t.Fatalf("UpdateChatOutbound err: %v", err)
	}

	turns, err := s.ListChats(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListChats err: %v", err)
	}
	if len(turns) != 1 || turns[0].Outbound != "welcome" {
		t.Fatalf("unexpected turns: %+v", turns)
	}

	if err := s.UpdateChatOutbound(ctx, "missing", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListChatsWindowKeepsMostRecent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, msg := range []string{"one", "two", "three"} {
		turn := chat.Turn{
			UserID:    "u1",
			Inbound:   msg,
			Outbound:  "ok",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if _, err := s.AppendChat(ctx, &turn); err != nil {
			t.Fatalf("AppendChat err: %v", err)
		}
	}

	turns, err := s.ListChats(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListChats err: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Inbound != "two" || turns[1].Inbound != "three" {
		t.Fatalf("window should keep the most recent turns oldest first, got %q then %q",
			turns[0].Inbound, turns[1].Inbound)
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	later := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	sooner := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)

	first := task.Record{UserID: "u1", Description: "long run", Deadline: later}
	if _, err := s.AppendTask(ctx, &first); err != nil {
		t.Fatalf("AppendTask err: %v", err)
	}
	second := task.Record{UserID: "u1", Description: "cold shower", Deadline: sooner}
	if _, err := s.AppendTask(ctx, &second); err != nil {
		t.Fatalf("AppendTask err: %v", err)
	}

	tasks, err := s.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTasks err: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Description != "cold shower" {
		t.Fatalf("tasks should be ordered by deadline, got %+v", tasks)
	}

	at := time.Now().UTC().Truncate(time.Second)
	if err := s.CompleteTask(ctx, second.ID, "u1", at); err != nil {
		t.Fatalf("CompleteTask err: %v", err)
	}

	tasks, err = s.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTasks err: %v", err)
	}
	if !tasks[0].Completed || tasks[0].CompletedAt == nil || !tasks[0].CompletedAt.Equal(at) {
		t.Fatalf("completion not recorded: %+v", tasks[0])
	}

	if err := s.CompleteTask(ctx, second.ID, "other-user", at); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("completing another user's task should fail, got %v", err)
	}

	if err := s.DeleteTask(ctx, first.ID, "u1"); err != nil {
		t.Fatalf("DeleteTask err: %v", err)
	}
	tasks, _ = s.ListTasks(ctx, "u1")
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task after delete, got %d", len(tasks))
	}
}

func TestSettings(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := s.GetSetting(ctx, "system_prompt"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unset key, got %v", err)
	}

	if err := s.SetSetting(ctx, "system_prompt", "be kind"); err != nil {
		t.Fatalf("SetSetting err: %v", err)
	}
	if err := s.SetSetting(ctx, "system_prompt", "be strict"); err != nil {
		t.Fatalf("SetSetting overwrite err: %v", err)
	}

	value, err := s.GetSetting(ctx, "system_prompt")
	if err != nil {
		t.Fatalf("GetSetting err: %v", err)
	}
	if value != "be strict" {
		t.Fatalf("unexpected value: %q", value)
	}
}

func TestDashboardStats(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	active := &user.User{Email: "a@example.com", PasswordHash: "x"}
	if err := s.CreateUser(ctx, active); err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}
	stale := &user.User{Email: "b@example.com", PasswordHash: "x"}
	if err := s.CreateUser(ctx, stale); err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}
	if err := s.UpdateLastLogin(ctx, stale.ID, time.Now().UTC().Add(-48*time.Hour)); err != nil {
		t.Fatalf("UpdateLastLogin err: %v", err)
	}

	turn := chat.Turn{UserID: active.ID, Inbound: "hi", Outbound: "hello"}
	if _, err := s.AppendChat(ctx, &turn); err != nil {
		t.Fatalf("AppendChat err: %v", err)
	}
	record := task.Record{UserID: active.ID, Description: "run", Deadline: time.Now().Add(time.Hour)}
	if _, err := s.AppendTask(ctx, &record); err != nil {
		t.Fatalf("AppendTask err: %v", err)
	}

	stats, err := s.DashboardStats(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DashboardStats err: %v", err)
	}
	if stats.TotalUsers != 2 || stats.TotalChats != 1 || stats.TotalTasks != 1 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.ActiveUsers != 1 {
		t.Fatalf("expected 1 active user, got %d", stats.ActiveUsers)
	}
}
