// Package chat keeps a visitor's conversation with the routine assistant.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/routine-advisor/advisor/internal/models"
)

// State is the request state of a session
type State int

const (
	Idle State = iota
	Awaiting
)

func (s State) String() string {
	if s == Awaiting {
		return "awaiting"
	}
	return "idle"
}

// EntryKind classifies transcript entries for display
type EntryKind string

const (
	EntryUser      EntryKind = "user"
	EntryAssistant EntryKind = "assistant"
	EntryPending   EntryKind = "pending"
	EntryError     EntryKind = "error"
	EntryTip       EntryKind = "tip"
)

// Display text
const (
	UserLabel          = "You:"
	AssistantLabel     = "Advisor:"
	RoutineLabel       = "Your Personalized Routine:"
	ErrorLabel         = "Error:"
	TipLabel           = "Tip:"
	ThinkingText       = "Thinking..."
	GeneratingText     = "Generating your personalized routine..."
	NoReplyText        = "Sorry, I couldn't get a response. Please try again."
	NoRoutineText      = "Sorry, I couldn't generate a routine. Please try again."
	SelectSomethingTip = "Please select at least one product to generate a routine."
)

// Entry is one item of the chat window
type Entry struct {
	ID    int
	Kind  EntryKind
	Label string
	Text  string
	At    time.Time
}

// Session owns one conversation: the message log, the visible transcript and
// the in-flight flag. It is safe for concurrent use; the transport is called
// without holding the lock.
type Session struct {
	mu        sync.Mutex
	transport Transport
	window    int
	log       Log
	entries   []Entry
	state     State
	nextID    int
	now       func() time.Time
}

// NewSession creates an idle session. window bounds how many trailing
// messages each request carries; 0 sends the whole log.
func NewSession(transport Transport, window int) *Session {
	return &Session{
		transport: transport,
		window:    window,
		now:       time.Now,
	}
}

// Send posts a user message and waits for the assistant's reply
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	return s.exchange(ctx, turn{
		prompt:      text,
		showPrompt:  true,
		pendingText: ThinkingText,
		replyLabel:  AssistantLabel,
		noReplyText: NoReplyText,
	})
}

// GenerateRoutine asks for a routine built from products. With no products
// nothing is sent and a tip is shown instead.
func (s *Session) GenerateRoutine(ctx context.Context, products []models.Product) (string, error) {
	if len(products) == 0 {
		s.mu.Lock()
		s.addEntry(EntryTip, TipLabel, SelectSomethingTip)
		s.mu.Unlock()
		return "", ErrNoSelection
	}
	return s.exchange(ctx, turn{
		prompt:      RoutinePrompt(products),
		pendingText: GeneratingText,
		replyLabel:  RoutineLabel,
		noReplyText: NoRoutineText,
	})
}

type turn struct {
	prompt      string
	showPrompt  bool
	pendingText string
	replyLabel  string
	noReplyText string
}

func (s *Session) exchange(ctx context.Context, t turn) (string, error) {
	s.mu.Lock()
	if s.state == Awaiting {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.log.Append(models.RoleUser, t.prompt)
	if t.showPrompt {
		s.addEntry(EntryUser, UserLabel, t.prompt)
	}
	pendingID := s.addEntry(EntryPending, "", t.pendingText)
	s.state = Awaiting
	history := s.log.Window(s.window)
	s.mu.Unlock()

	start := time.Now()
	reply, err := s.transport.Exchange(ctx, history)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrNoReply
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeEntry(pendingID)
	s.state = Idle

	switch {
	case err == nil:
		s.log.Append(models.RoleAssistant, reply)
		s.addEntry(EntryAssistant, t.replyLabel, reply)
		slog.Debug("Chat reply received", "messages", len(history), "duration", time.Since(start))
		return reply, nil
	case errors.Is(err, ErrNoReply):
		slog.Warn("Chat endpoint returned no reply", "err", err)
		s.addEntry(EntryError, ErrorLabel, t.noReplyText)
		return "", ErrNoReply
	default:
		slog.Error("Chat request failed", "err", err)
		s.addEntry(EntryError, ErrorLabel, err.Error())
		return "", err
	}
}

// State returns the current request state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the chat window entries
func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Messages returns a copy of the conversation log
func (s *Session) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Messages()
}

func (s *Session) addEntry(kind EntryKind, label, text string) int {
	s.nextID++
	s.entries = append(s.entries, Entry{ID: s.nextID, Kind: kind, Label: label, Text: text, At: s.now()})
	return s.nextID
}

func (s *Session) removeEntry(id int) {
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return
		}
	}
}
