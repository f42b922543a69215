package domain

import "time"

// StreamEventType identifies the kind of progress event produced while
// a task executes. The set is closed; consumers may switch over it
// exhaustively.
type StreamEventType string

// Possible stream event types
const (
	EventTypeStarted      StreamEventType = "started"
	EventTypeProgress     StreamEventType = "progress"
	EventTypeThinking     StreamEventType = "thinking"
	EventTypeToolUse      StreamEventType = "tool_use"
	EventTypeTextChunk    StreamEventType = "text_chunk"
	EventTypeStatusChange StreamEventType = "status_change"
	EventTypeCompleted    StreamEventType = "completed"
	EventTypeError        StreamEventType = "error"
)

// AgentStreamEvent is a transient progress event emitted during one
// execution or poll session. Events are never persisted on their own;
// they exist only for the lifetime of the stream that carries them.
// Which optional fields are set depends on the event type.
type AgentStreamEvent struct {
	Type      StreamEventType `json:"type"`
	Message   string          `json:"message,omitempty"`
	Content   string          `json:"content,omitempty"`
	Progress  *float64        `json:"progress,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	Input     string          `json:"input,omitempty"`
	Output    string          `json:"output,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewStreamEvent creates an AgentStreamEvent of the given type stamped
// with the current time.
func NewStreamEvent(eventType StreamEventType) AgentStreamEvent {
	return AgentStreamEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorEvent creates an error event carrying the given message.
func NewErrorEvent(message string) AgentStreamEvent {
	ev := NewStreamEvent(EventTypeError)
	ev.Message = message
	return ev
}

// IsTerminal reports whether the event ends its stream.
func (e AgentStreamEvent) IsTerminal() bool {
	return e.Type == EventTypeCompleted || e.Type == EventTypeError
}
