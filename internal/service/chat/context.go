package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/psundaram/drillmaster/internal/model/chat"
	"github.com/psundaram/drillmaster/internal/model/persona"
)

// maxPendingInSummary caps how many upcoming tasks the preamble mentions.
const maxPendingInSummary = 3

// BuildContext assembles what the model needs for one reply: the persona
// preamble enriched with the user's progress, and the bounded window of
// recent history as role-tagged entries, oldest first. The turn identified
// by excludeID (the one currently being processed) is left out; so is any
// outbound text still holding the placeholder.
func (s *Service) BuildContext(ctx context.Context, userID, excludeID string) (string, []chat.Entry, error) {
	turns, err := s.repo.ListChats(ctx, userID, s.historyLimit)
	if err != nil {
		return "", nil, err
	}

	var history []chat.Entry
	for _, turn := range turns {
		if turn.ID == excludeID {
			continue
		}
		if turn.Inbound != "" {
			history = append(history, chat.Entry{Role: chat.RoleUser, Content: turn.Inbound})
		}
		if turn.Outbound != "" && !turn.Pending() {
			history = append(history, chat.Entry{Role: chat.RoleAssistant, Content: turn.Outbound})
		}
	}

	p := s.persona
	if prompt, err := s.SystemPrompt(ctx); err == nil {
		p.SystemPrompt = prompt
	}

	preamble := persona.BuildPreamble(p, s.progressSummary(ctx, userID))
	return preamble, history, nil
}

// progressSummary renders a short natural-language account of the user's
// standing. A failed lookup degrades to an empty summary rather than
// failing the message.
func (s *Service) progressSummary(ctx context.Context, userID string) string {
	now := s.now()

	var b strings.Builder

	if u, err := s.repo.GetUser(ctx, userID); err == nil {
		days := int(now.Sub(u.CreatedAt).Hours() / 24)
		fmt.Fprintf(&b, "They joined %d days ago.", days)
	}

	tasks, err := s.tasks.List(ctx, userID)
	if err != nil || len(tasks) == 0 {
		if b.Len() > 0 {
			b.WriteString(" No tasks have been assigned yet.")
		}
		return b.String()
	}

	completed := 0
	var pending []string
	for _, t := range tasks {
		if t.Completed {
			completed++
			continue
		}
		if len(pending) < maxPendingInSummary {
			pending = append(pending, fmt.Sprintf("- %s (due %s)", t.Description, t.Deadline.Format("2006-01-02")))
		}
	}

	rate := completed * 100 / len(tasks)
	if b.Len() > 0 {
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "They have been assigned %d tasks and completed %d (%d%%).", len(tasks), completed, rate)

	if len(pending) > 0 {
		b.WriteString("\nPending tasks due soonest:\n")
		b.WriteString(strings.Join(pending, "\n"))
	}

	return b.String()
}
