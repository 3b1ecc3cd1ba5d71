package domain

import "time"

// ConversationTurn is a completed question/answer exchange.
// Turns are appended to the conversation memory after a successful
// answer and injected into subsequent prompts.
type ConversationTurn struct {
	// ID is the unique identifier for the turn.
	ID string `json:"id"`

	// Question is the user's question text.
	Question string `json:"question"`

	// Answer is the generated answer text.
	Answer string `json:"answer"`

	// Citations are the chunk references the answer cited.
	Citations []Citation `json:"citations,omitempty"`

	// AskedAt is when the question was asked.
	AskedAt time.Time `json:"asked_at"`
}
