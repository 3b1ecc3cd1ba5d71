package services

import (
	"sync"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

// DefaultMemoryWindow is the default number of conversation turns kept.
const DefaultMemoryWindow = 5

// conversationMemory keeps a bounded FIFO window of completed Q&A
// turns. When full, appending evicts the oldest turn. Only successful
// exchanges are recorded; a failed ask leaves the memory unchanged.
type conversationMemory struct {
	mu     sync.Mutex
	window int
	turns  []domain.ConversationTurn
}

func newConversationMemory(window int) *conversationMemory {
	if window <= 0 {
		window = DefaultMemoryWindow
	}
	return &conversationMemory{window: window}
}

// Append records a completed turn, evicting the oldest when the window
// is full.
func (m *conversationMemory) Append(turn domain.ConversationTurn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turns = append(m.turns, turn)
	if len(m.turns) > m.window {
		m.turns = m.turns[len(m.turns)-m.window:]
	}
}

// Snapshot returns a copy of the retained turns, oldest first.
func (m *conversationMemory) Snapshot() []domain.ConversationTurn {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.ConversationTurn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of retained turns.
func (m *conversationMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// Clear drops all retained turns.
func (m *conversationMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}
