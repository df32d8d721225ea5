package session

import (
	"sync"

	"docchat/internal/domain"
)

// DefaultGreeting opens every new chat transcript.
const DefaultGreeting = "Hello! I have read your documents. What would you like to know?"

// History is an append-only, chronologically ordered chat transcript.
type History struct {
	mu       sync.RWMutex
	messages []domain.Message
}

// NewHistory returns a transcript that starts with an assistant greeting.
// An empty greeting leaves the transcript empty.
func NewHistory(greeting string) *History {
	h := &History{}
	h.EnsureGreeting(greeting)
	return h
}

// EnsureGreeting appends the greeting only if the transcript is empty.
func (h *History) EnsureGreeting(greeting string) {
	if greeting == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) == 0 {
		h.messages = append(h.messages, domain.Message{Role: domain.RoleAssistant, Content: greeting})
	}
}

func (h *History) Append(role domain.Role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, domain.Message{Role: role, Content: content})
}

// Messages returns a copy of the transcript.
func (h *History) Messages() []domain.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}
