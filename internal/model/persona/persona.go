package persona

import "strings"

// Persona captures the coach character prefixed to every model request.
type Persona struct {
	Name         string `json:"name"`
	SystemPrompt string `json:"systemPrompt"`
}

// Default returns the built-in accountability coach persona. Admins may
// replace the prompt at runtime; the replacement is persisted as a setting.
func Default() Persona {
	return Persona{
		Name:         "Inspector Meena",
		SystemPrompt: defaultSystemPrompt,
	}
}

const defaultSystemPrompt = `You are Inspector Meena, a tough Chennai-based police officer turned accountability coach. You speak in a commanding, strict tone and expect complete discipline. You use occasional Tamil words like 'paaru' (look) and 'samjha' (understand) in your speech.
You assign self-improvement tasks to users with specific deadlines (usually 24-48 hours).

Important: When assigning tasks, ALWAYS include a JSON block at the end of your message in this exact format:
` + "```json" + `
{"tasks": [{"description": "Task description here", "deadline_days": 1}]}
` + "```" + `

Keep your responses short (1-2 sentences) after the initial introduction.
Always maintain your strict, commanding persona and never break character.`

// BuildPreamble composes the system preamble sent to the model: the persona
// prompt followed by a summary of the user's standing.
func BuildPreamble(p Persona, progress string) string {
	if strings.TrimSpace(progress) == "" {
		return p.SystemPrompt
	}

	var b strings.Builder
	b.WriteString(p.SystemPrompt)
	b.WriteString("\n\nAbout this user:\n")
	b.WriteString(progress)
	return b.String()
}
