package chat

import "time"

// PlaceholderOutbound is written as a turn's outbound text before the model
// reply is known. Storage requires a non-null outbound column, so a sentinel
// marks turns that are still being processed.
const PlaceholderOutbound = "__pending__"

// Turn persists a single exchange: the user's inbound message and the
// assistant's outbound reply. Either side may be empty — admin-injected
// messages have no inbound text, and the outbound text holds the
// placeholder until the model reply is processed.
type Turn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Inbound   string    `json:"message,omitempty"`
	Outbound  string    `json:"response,omitempty"`
	IsSystem  bool      `json:"isSystem"`
	CreatedAt time.Time `json:"createdAt"`
}

// Pending reports whether the turn still awaits its model reply.
func (t Turn) Pending() bool {
	return t.Outbound == PlaceholderOutbound
}

// Roles carried by history entries sent to the model.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Entry is one role-tagged line of conversation context.
type Entry struct {
	Role    string
	Content string
}
