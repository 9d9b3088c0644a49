package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/psundaram/drillmaster/internal/config"
	"github.com/psundaram/drillmaster/internal/model/chat"
)

// Service wraps the chat model behind a compiled prompt chain.
type Service struct {
	timeout time.Duration
	chain   compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the AI service from configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{timeout: cfg.Timeout, chain: runnable}, nil
}

// Generate runs one model call: system preamble, replayed history, then the
// new user message. Every call is bounded by the configured timeout; a call
// past the deadline fails and is not retried.
func (s *Service) Generate(ctx context.Context, system string, history []chat.Entry, query string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	input := map[string]any{
		"system":  system,
		"history": historyMessages(history),
		"query":   query,
	}

	response, err := s.chain.Invoke(callCtx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	log.Printf("[ai] generated response, history=%d length=%d", len(history), len(response.Content))
	return response.Content, nil
}

func historyMessages(entries []chat.Entry) []*schema.Message {
	if len(entries) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(entries))
	for _, entry := range entries {
		switch entry.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(entry.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(entry.Content, nil))
		}
	}
	return history
}
