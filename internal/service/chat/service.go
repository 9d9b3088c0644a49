package chat

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/psundaram/drillmaster/internal/extract"
	"github.com/psundaram/drillmaster/internal/model/chat"
	"github.com/psundaram/drillmaster/internal/model/persona"
	"github.com/psundaram/drillmaster/internal/model/task"
	tasksvc "github.com/psundaram/drillmaster/internal/service/task"
	"github.com/psundaram/drillmaster/internal/store"
)

var ErrEmptyMessage = errors.New("message cannot be empty")

// apologyText replaces the reply when the model call fails. The failure is
// terminal for the message; nothing is retried.
const apologyText = "Tch. The line to headquarters dropped, paaru. Say that again in a moment."

// systemPromptKey names the setting that overrides the persona prompt.
const systemPromptKey = "system_prompt"

// Generator produces one model completion from a system preamble, replayed
// history and a new user message.
type Generator interface {
	Generate(ctx context.Context, system string, history []chat.Entry, query string) (string, error)
}

// Service processes user messages: it persists the turn, assembles
// conversation context, calls the model, extracts task directives from the
// reply and stores the cleaned text.
type Service struct {
	repo         store.Repository
	tasks        *tasksvc.Service
	gen          Generator
	persona      persona.Persona
	historyLimit int
	now          func() time.Time
}

// NewService creates the chat service. historyLimit bounds how many past
// turns are replayed to the model.
func NewService(repo store.Repository, tasks *tasksvc.Service, gen Generator, p persona.Persona, historyLimit int) *Service {
	return &Service{
		repo:         repo,
		tasks:        tasks,
		gen:          gen,
		persona:      p,
		historyLimit: historyLimit,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Reply is what the caller renders after a message is processed.
type Reply struct {
	Text      string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Send processes one inbound user message end to end. Model failures do not
// surface as errors: the turn is finalized with an apology text instead and
// no tasks are created for it.
func (s *Service) Send(ctx context.Context, userID, message string) (Reply, error) {
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}

	now := s.now()
	turn := chat.Turn{
		UserID:    userID,
		Inbound:   message,
		Outbound:  chat.PlaceholderOutbound,
		CreatedAt: now,
	}
	turnID, err := s.repo.AppendChat(ctx, &turn)
	if err != nil {
		return Reply{}, err
	}

	preamble, history, err := s.BuildContext(ctx, userID, turnID)
	if err != nil {
		return Reply{}, err
	}

	raw, err := s.gen.Generate(ctx, preamble, history, message)
	if err != nil {
		log.Printf("[chat] model call failed for user=%s: %v", userID, err)
		if updateErr := s.repo.UpdateChatOutbound(ctx, turnID, apologyText); updateErr != nil {
			log.Printf("[chat] failed to store apology for turn=%s: %v", turnID, updateErr)
		}
		return Reply{Text: apologyText, Timestamp: now}, nil
	}

	text := s.processReply(ctx, userID, raw, now)

	if err := s.repo.UpdateChatOutbound(ctx, turnID, text); err != nil {
		log.Printf("[chat] failed to store reply for turn=%s: %v", turnID, err)
	}

	return Reply{Text: text, Timestamp: now}, nil
}

// processReply separates conversational text from an embedded task
// directive and persists the resulting tasks. When no fenced block exists
// at all, a heuristic scan of the plain text runs instead — never both.
func (s *Service) processReply(ctx context.Context, userID, raw string, now time.Time) string {
	extraction, found := extract.Directive(raw)

	descriptors := extraction.Tasks
	text := extraction.Text
	if !found {
		descriptors = extract.Heuristic(raw)
		text = raw
	}

	for _, d := range descriptors {
		if _, err := s.tasks.Assign(ctx, userID, d.Description, d.DeadlineDays); err != nil {
			log.Printf("[chat] failed to persist task for user=%s: %v", userID, err)
			continue
		}
		log.Printf("[chat] assigned task to user=%s due in %d days", userID, normalizeDays(d.DeadlineDays))
	}

	return text
}

func normalizeDays(days int) int {
	if days < 0 {
		return task.DefaultDeadlineDays
	}
	return days
}

// History returns all of a user's turns, oldest first.
func (s *Service) History(ctx context.Context, userID string) ([]chat.Turn, error) {
	return s.repo.ListChats(ctx, userID, 0)
}

// InjectSystemMessage appends an assistant-originated turn with no inbound
// text, used by admins to speak as the persona.
func (s *Service) InjectSystemMessage(ctx context.Context, userID, text string) error {
	if text == "" {
		return ErrEmptyMessage
	}
	turn := chat.Turn{
		UserID:    userID,
		Outbound:  text,
		IsSystem:  true,
		CreatedAt: s.now(),
	}
	_, err := s.repo.AppendChat(ctx, &turn)
	return err
}

// SystemPrompt returns the active persona prompt: the persisted override
// when one exists, the built-in default otherwise.
func (s *Service) SystemPrompt(ctx context.Context) (string, error) {
	value, err := s.repo.GetSetting(ctx, systemPromptKey)
	if errors.Is(err, store.ErrNotFound) {
		return s.persona.SystemPrompt, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSystemPrompt persists a replacement persona prompt.
func (s *Service) SetSystemPrompt(ctx context.Context, prompt string) error {
	if prompt == "" {
		return ErrEmptyMessage
	}
	return s.repo.SetSetting(ctx, systemPromptKey, prompt)
}
