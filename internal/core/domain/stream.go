package domain

// ConversationTurn is one prior message of a conversation.
type ConversationTurn struct {
	// Role is "user" or "assistant".
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest is one question from an evaluated caller.
type AskRequest struct {
	Question     string
	History      []ConversationTurn
	Capabilities Capabilities
}

// EventType distinguishes text increments from terminal events.
type EventType string

// Answer event types.
const (
	// EventText carries one non-empty text increment.
	EventText EventType = "text"

	// EventDone terminates a completed answer.
	EventDone EventType = "done"

	// EventFailed terminates an answer that broke off mid-stream.
	EventFailed EventType = "error"
)

// AnswerEvent is one event on an answer stream.
// A stream carries zero or more EventText events and at most one terminal event.
type AnswerEvent struct {
	Type EventType

	// Text is set for EventText.
	Text string

	// Citation is set on EventDone when the answer used the context.
	Citation *CitationMetadata

	// Complete is true only on EventDone.
	Complete bool

	// Err is set on EventFailed.
	Err error
}

// IsTerminal returns true for EventDone and EventFailed.
func (e AnswerEvent) IsTerminal() bool {
	return e.Type == EventDone || e.Type == EventFailed
}
