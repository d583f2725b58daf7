package chat

import "github.com/routine-advisor/advisor/internal/models"

// DefaultHistoryWindow is the number of trailing messages sent with a request
const DefaultHistoryWindow = 50

// Log is the append-only conversation for a session
type Log struct {
	messages []models.ChatMessage
}

// Append adds a message to the end of the log
func (l *Log) Append(role models.Role, content string) {
	l.messages = append(l.messages, models.ChatMessage{Role: role, Content: content})
}

// Messages returns a copy of every message in the log
func (l *Log) Messages() []models.ChatMessage {
	return append([]models.ChatMessage(nil), l.messages...)
}

// Len returns the number of messages
func (l *Log) Len() int { return len(l.messages) }

// Window returns the last n messages. A window never opens on an assistant
// message, so it may be shorter than n. n <= 0 returns the whole log.
func (l *Log) Window(n int) []models.ChatMessage {
	if n <= 0 || n >= len(l.messages) {
		return l.Messages()
	}
	start := len(l.messages) - n
	for start < len(l.messages)-1 && l.messages[start].Role == models.RoleAssistant {
		start++
	}
	return append([]models.ChatMessage(nil), l.messages[start:]...)
}
