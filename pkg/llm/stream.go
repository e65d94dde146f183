package llm

// EventKind classifies a decoded StreamEvent.
type EventKind string

const (
	EventReasoningDelta EventKind = "reasoning-delta"
	EventContentDelta   EventKind = "content-delta"
	EventError          EventKind = "error"
)

// Payload types as they appear in the "type" field on the wire.
const (
	PayloadReasoning = "reasoning"
	PayloadContent   = "content"
	PayloadError     = "error"
)

// StreamPayload is the JSON carried by each "data: " line of the stream.
type StreamPayload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// StreamEvent is a decoded unit from the completion stream. It is transient
// and never persisted.
type StreamEvent struct {
	Kind EventKind

	// Payload is the text fragment for deltas, or the error description.
	Payload string
}

// Event maps the wire payload onto a StreamEvent. ok is false for payload
// types the client does not understand.
func (p StreamPayload) Event() (StreamEvent, bool) {
	switch p.Type {
	case PayloadReasoning:
		return StreamEvent{Kind: EventReasoningDelta, Payload: p.Content}, true
	case PayloadContent:
		return StreamEvent{Kind: EventContentDelta, Payload: p.Content}, true
	case PayloadError:
		return StreamEvent{Kind: EventError, Payload: p.Content}, true
	default:
		return StreamEvent{}, false
	}
}
