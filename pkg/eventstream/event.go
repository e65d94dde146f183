package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/zhyuuka/xingling-chat/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after a streamed reply has been
	// reconciled into the session transcript.
	EventTypeTurnCompleted = "xingling.turn.completed"
)

// Turn kinds.
const (
	TurnKindChat   = "chat"
	TurnKindUpload = "upload"
)

// Turn outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// TurnCompletedEvent is a transport-neutral event payload for a finished turn.
type TurnCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Turn          TurnMeta    `json:"turn"`

	UserMessage      llm.Message `json:"user_message"`
	AssistantMessage llm.Message `json:"assistant_message"`
}

// EventSource identifies the client and the completion service it used.
type EventSource struct {
	Client    string `json:"client"`
	ServerURL string `json:"server_url"`
}

// TurnMeta captures lifecycle metadata for the turn.
type TurnMeta struct {
	SessionID   string    `json:"session_id"`
	Kind        string    `json:"kind"`
	Model       string    `json:"model,omitempty"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// NewTurnCompletedEvent stamps the schema fields and a fresh event id.
func NewTurnCompletedEvent(now time.Time, source EventSource, turn TurnMeta, user, assistant llm.Message) *TurnCompletedEvent {
	turn.DurationMs = turn.CompletedAt.Sub(turn.StartedAt).Milliseconds()
	return &TurnCompletedEvent{
		SchemaVersion:    SchemaVersionV1,
		EventType:        EventTypeTurnCompleted,
		EventID:          "evt_" + uuid.Must(uuid.NewV7()).String(),
		EmittedAt:        now.UTC(),
		Source:           source,
		Turn:             turn,
		UserMessage:      user,
		AssistantMessage: assistant,
	}
}
