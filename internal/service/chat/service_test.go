package chat_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	chatmodel "github.com/psundaram/drillmaster/internal/model/chat"
	"github.com/psundaram/drillmaster/internal/model/persona"
	"github.com/psundaram/drillmaster/internal/model/user"
	chatservice "github.com/psundaram/drillmaster/internal/service/chat"
	taskservice "github.com/psundaram/drillmaster/internal/service/task"
	"github.com/psundaram/drillmaster/internal/store"
)

type fakeGenerator struct {
	reply string
	err   error

	lastSystem  string
	lastHistory []chatmodel.Entry
	lastQuery   string
}

func (g *fakeGenerator) Generate(_ context.Context, system string, history []chatmodel.Entry, query string) (string, error) {
	g.lastSystem = system
	g.lastHistory = history
	g.lastQuery = query
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func setup(t *testing.T, gen chatservice.Generator, historyLimit int) (*chatservice.Service, *taskservice.Service, store.Repository, string) {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	u := &user.User{Email: "recruit@example.com", PasswordHash: "x"}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	taskSvc := taskservice.NewService(repo)
	chatSvc := chatservice.NewService(repo, taskSvc, gen, persona.Default(), historyLimit)
	return chatSvc, taskSvc, repo, u.ID
}

func TestSendStoresTaskFromDirective(t *testing.T) {
	gen := &fakeGenerator{reply: "Good. ```json\n{\"tasks\":[{\"description\":\"Run 5km\",\"deadline_days\":2}]}\n```"}
	chatSvc, taskSvc, _, userID := setup(t, gen, 10)
	ctx := context.Background()

	reply, err := chatSvc.Send(ctx, userID, "I went for a walk")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if reply.Text != "Good." {
		t.Fatalf("unexpected display text: %q", reply.Text)
	}
	if gen.lastQuery != "I went for a walk" {
		t.Fatalf("unexpected query sent to model: %q", gen.lastQuery)
	}
	if len(gen.lastHistory) != 0 {
		t.Fatalf("first message should carry no history, got %d entries", len(gen.lastHistory))
	}

	tasks, err := taskSvc.List(ctx, userID)
	if err != nil {
		t.Fatalf("List err: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Description != "Run 5km" {
		t.Fatalf("unexpected description: %q", tasks[0].Description)
	}
	if got := tasks[0].Deadline.Sub(tasks[0].CreatedAt); got != 48*time.Hour {
		t.Fatalf("expected 48h deadline offset, got %v", got)
	}
	if tasks[0].Completed {
		t.Fatal("new tasks must start incomplete")
	}

	turns, err := chatSvc.History(ctx, userID)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].Pending() {
		t.Fatal("turn should no longer hold the placeholder")
	}
	if turns[0].Outbound != "Good." {
		t.Fatalf("unexpected stored outbound: %q", turns[0].Outbound)
	}
}

func TestSendHeuristicFallback(t *testing.T) {
	gen := &fakeGenerator{reply: "task: clean your room. Good."}
	chatSvc, taskSvc, _, userID := setup(t, gen, 10)
	ctx := context.Background()

	reply, err := chatSvc.Send(ctx, userID, "what now?")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if reply.Text != "task: clean your room. Good." {
		t.Fatalf("heuristic path must not alter the text, got %q", reply.Text)
	}

	tasks, err := taskSvc.List(ctx, userID)
	if err != nil {
		t.Fatalf("List err: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Description != "clean your room" {
		t.Fatalf("unexpected description: %q", tasks[0].Description)
	}
	if got := tasks[0].Deadline.Sub(tasks[0].CreatedAt); got != 24*time.Hour {
		t.Fatalf("expected 24h deadline offset, got %v", got)
	}
}

func TestSendEmptyDirectiveCreatesNoTasks(t *testing.T) {
	gen := &fakeGenerator{reply: "Rest today. ```json\n{\"tasks\": []}\n```"}
	chatSvc, taskSvc, _, userID := setup(t, gen, 10)
	ctx := context.Background()

	reply, err := chatSvc.Send(ctx, userID, "I'm tired")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if reply.Text != "Rest today." {
		t.Fatalf("expected block stripped, got %q", reply.Text)
	}

	tasks, err := taskSvc.List(ctx, userID)
	if err != nil {
		t.Fatalf("List err: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(tasks))
	}
}

func TestSendModelFailureStoresApology(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("deadline exceeded")}
	chatSvc, taskSvc, _, userID := setup(t, gen, 10)
	ctx := context.Background()

	reply, err := chatSvc.Send(ctx, userID, "hello?")
	if err != nil {
		t.Fatalf("model failure must not surface as an error, got %v", err)
	}
	if reply.Text == "" {
		t.Fatal("expected an apology text")
	}

	turns, err := chatSvc.History(ctx, userID)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].Pending() {
		t.Fatal("turn must not be left holding the placeholder")
	}
	if turns[0].Outbound != reply.Text {
		t.Fatalf("stored outbound %q differs from returned text %q", turns[0].Outbound, reply.Text)
	}

	tasks, err := taskSvc.List(ctx, userID)
	if err != nil {
		t.Fatalf("List err: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("no tasks should be created on model failure, got %d", len(tasks))
	}
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	gen := &fakeGenerator{reply: "irrelevant"}
	chatSvc, _, _, userID := setup(t, gen, 10)
	ctx := context.Background()

	if _, err := chatSvc.Send(ctx, userID, ""); !errors.Is(err, chatservice.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	turns, err := chatSvc.History(ctx, userID)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("nothing should be persisted for an empty message, got %d turns", len(turns))
	}
}

func TestSendReplaysBoundedHistory(t *testing.T) {
	gen := &fakeGenerator{reply: "Noted."}
	chatSvc, _, _, userID := setup(t, gen, 2)
	ctx := context.Background()

	for _, msg := range []string{"day one", "day two", "day three"} {
		if _, err := chatSvc.Send(ctx, userID, msg); err != nil {
			t.Fatalf("Send(%q) err: %v", msg, err)
		}
	}

	if _, err := chatSvc.Send(ctx, userID, "day four"); err != nil {
		t.Fatalf("Send err: %v", err)
	}

	// With a window of 2 turns and the in-flight turn excluded, only the
	// previous turn remains: one user entry plus one assistant entry.
	if len(gen.lastHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(gen.lastHistory))
	}
	if gen.lastHistory[0].Role != chatmodel.RoleUser || gen.lastHistory[0].Content != "day three" {
		t.Fatalf("unexpected first history entry: %+v", gen.lastHistory[0])
	}
	if gen.lastHistory[1].Role != chatmodel.RoleAssistant || gen.lastHistory[1].Content != "Noted." {
		t.Fatalf("unexpected second history entry: %+v", gen.lastHistory[1])
	}
}

func TestBuildContextExcludesPlaceholderOutbound(t *testing.T) {
	gen := &fakeGenerator{reply: "Noted."}
	chatSvc, _, repo, userID := setup(t, gen, 10)
	ctx := context.Background()

	pending := chatmodel.Turn{
		UserID:   userID,
		Inbound:  "still waiting",
		Outbound: chatmodel.PlaceholderOutbound,
	}
	if _, err := repo.AppendChat(ctx, &pending); err != nil {
		t.Fatalf("AppendChat err: %v", err)
	}

	_, history, err := chatSvc.BuildContext(ctx, userID, "")
	if err != nil {
		t.Fatalf("BuildContext err: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected only the inbound entry, got %d", len(history))
	}
	if history[0].Role != chatmodel.RoleUser || history[0].Content != "still waiting" {
		t.Fatalf("unexpected entry: %+v", history[0])
	}
}

func TestBuildContextPreambleIncludesProgress(t *testing.T) {
	gen := &fakeGenerator{reply: "Noted."}
	chatSvc, taskSvc, _, userID := setup(t, gen, 10)
	ctx := context.Background()

	if _, err := taskSvc.Assign(ctx, userID, "Run 5km before sunrise", 2); err != nil {
		t.Fatalf("Assign err: %v", err)
	}
	if _, err := taskSvc.Assign(ctx, userID, "Cold shower", 1); err != nil {
		t.Fatalf("Assign err: %v", err)
	}

	preamble, _, err := chatSvc.BuildContext(ctx, userID, "")
	if err != nil {
		t.Fatalf("BuildContext err: %v", err)
	}

	for _, want := range []string{
		persona.Default().SystemPrompt,
		"assigned 2 tasks",
		"Run 5km before sunrise",
		"Cold shower",
	} {
		if !strings.Contains(preamble, want) {
			t.Fatalf("preamble missing %q:\n%s", want, preamble)
		}
	}
}

func TestSystemPromptOverride(t *testing.T) {
	gen := &fakeGenerator{reply: "Noted."}
	chatSvc, _, _, userID := setup(t, gen, 10)
	ctx := context.Background()

	if err := chatSvc.SetSystemPrompt(ctx, "You are a gentle yoga teacher."); err != nil {
		t.Fatalf("SetSystemPrompt err: %v", err)
	}

	prompt, err := chatSvc.SystemPrompt(ctx)
	if err != nil {
		t.Fatalf("SystemPrompt err: %v", err)
	}
	if prompt != "You are a gentle yoga teacher." {
		t.Fatalf("unexpected prompt: %q", prompt)
	}

	preamble, _, err := chatSvc.BuildContext(ctx, userID, "")
	if err != nil {
		t.Fatalf("BuildContext err: %v", err)
	}
	if !strings.Contains(preamble, "gentle yoga teacher") {
		t.Fatalf("preamble missing override:\n%s", preamble)
	}
	if strings.Contains(preamble, persona.Default().SystemPrompt) {
		t.Fatal("preamble should not contain the default prompt after override")
	}
}

func TestInjectSystemMessage(t *testing.T) {
	gen := &fakeGenerator{reply: "Noted."}
	chatSvc, _, _, userID := setup(t, gen, 10)
	ctx := context.Background()

	if err := chatSvc.InjectSystemMessage(ctx, userID, "No excuses tomorrow."); err != nil {
		t.Fatalf("InjectSystemMessage err: %v", err)
	}

	turns, err := chatSvc.History(ctx, userID)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if !turns[0].IsSystem {
		t.Fatal("injected turn must be marked system-originated")
	}
	if turns[0].Inbound != "" {
		t.Fatalf("injected turn must have no inbound text, got %q", turns[0].Inbound)
	}
	if turns[0].Outbound != "No excuses tomorrow." {
		t.Fatalf("unexpected outbound: %q", turns[0].Outbound)
	}

	if err := chatSvc.InjectSystemMessage(ctx, userID, ""); !errors.Is(err, chatservice.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}
