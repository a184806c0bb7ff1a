package assistant

import (
	"strings"

	"github.com/vannadii/rustygpt-go/internal/convo"
	"github.com/vannadii/rustygpt-go/internal/provider"
)

// BuildPrompt renders messages into a single prompt string: system segments
// are collected and joined with newlines first, then user/assistant/tool
// turns are rendered as "<Role>: <content>" lines in order, and an open
// "Assistant:" sentinel is appended when the last rendered turn isn't
// already an assistant turn.
func BuildPrompt(messages []provider.Message) string {
	var system []string
	var lines []string
	lastRole := provider.Role("")

	for _, m := range messages {
		if m.Role == provider.RoleSystem {
			if m.Content != "" {
				system = append(system, m.Content)
			}
			continue
		}
		lines = append(lines, roleLabel(m.Role)+": "+m.Content)
		lastRole = m.Role
	}

	var b strings.Builder
	if len(system) > 0 {
		b.WriteString(strings.Join(system, "\n"))
		b.WriteString("\n")
	}
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if lastRole != provider.RoleAssistant {
		b.WriteString("Assistant:")
	}
	return b.String()
}

func roleLabel(r provider.Role) string {
	switch r {
	case provider.RoleUser:
		return "User"
	case provider.RoleAssistant:
		return "Assistant"
	default:
		return "Tool"
	}
}

// BuildStatefulPrompt renders the ancestor chain into provider messages and
// delegates to BuildPrompt. When chain is empty - a parent with no stored
// history yet, or the very first turn of a thread - fallbackUserContent
// stands in as the sole user turn.
func BuildStatefulPrompt(chain []convo.Message, fallbackUserContent string) string {
	if len(chain) == 0 {
		return BuildPrompt([]provider.Message{{Role: provider.RoleUser, Content: fallbackUserContent}})
	}

	messages := make([]provider.Message, 0, len(chain))
	for _, m := range chain {
		messages = append(messages, provider.Message{Role: messageRole(m.Role), Content: m.Content})
	}
	return BuildPrompt(messages)
}

func messageRole(role string) provider.Role {
	switch role {
	case "system":
		return provider.RoleSystem
	case "assistant":
		return provider.RoleAssistant
	default:
		return provider.RoleUser
	}
}
