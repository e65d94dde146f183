package transcript

import (
	"log/slog"
	"strings"

	"github.com/zhyuuka/xingling-chat/pkg/llm"
	"github.com/zhyuuka/xingling-chat/pkg/logger"
)

// Reducer folds StreamEvents into the single in-progress assistant message
// of a transcript.
//
// Reasoning and content are accumulated independently; every delta writes
// the accumulator's full value into the message rather than appending the
// fragment, so the message always holds the cumulative total.
type Reducer struct {
	transcript *Transcript
	index      int

	reasoning strings.Builder
	content   strings.Builder

	contentOnly bool
	finished    bool

	logger *slog.Logger
}

// ReducerOption configures a Reducer.
type ReducerOption func(*Reducer)

// ContentOnly makes the reducer ignore reasoning deltas.
func ContentOnly() ReducerOption {
	return func(r *Reducer) {
		r.contentOnly = true
	}
}

// WithLogger sets the logger used to surface error events.
func WithLogger(l *slog.Logger) ReducerOption {
	return func(r *Reducer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReducer binds a reducer to the last message of t. When that message
// is missing or is not an assistant message the reducer is inert and every
// Apply is a no-op.
func NewReducer(t *Transcript, opts ...ReducerOption) *Reducer {
	r := &Reducer{
		transcript: t,
		index:      -1,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if last := t.Last(); last != nil && last.Role == llm.RoleAssistant {
		r.index = len(*t) - 1
	}

	return r
}

// Apply folds one event into the in-progress message and reports whether
// the transcript changed.
func (r *Reducer) Apply(ev llm.StreamEvent) bool {
	if ev.Kind == llm.EventError {
		r.logger.Warn("completion service reported an error", "error", ev.Payload)
		return false
	}

	msg := r.target()
	if msg == nil {
		return false
	}

	switch ev.Kind {
	case llm.EventReasoningDelta:
		if r.contentOnly {
			return false
		}
		r.reasoning.WriteString(ev.Payload)
		msg.Reasoning = r.reasoning.String()
	case llm.EventContentDelta:
		r.content.WriteString(ev.Payload)
		msg.Content = r.content.String()
	default:
		return false
	}

	return true
}

// Finish finalizes the in-progress message; later Apply calls are no-ops.
func (r *Reducer) Finish() {
	r.finished = true
}

// Content returns the accumulated content.
func (r *Reducer) Content() string {
	return r.content.String()
}

// Reasoning returns the accumulated reasoning.
func (r *Reducer) Reasoning() string {
	return r.reasoning.String()
}

// target returns the message being reduced into, or nil when the bound
// message is no longer the last assistant entry of the transcript.
func (r *Reducer) target() *llm.Message {
	if r.finished || r.index < 0 {
		return nil
	}

	t := *r.transcript
	if r.index != len(t)-1 || t[r.index].Role != llm.RoleAssistant {
		return nil
	}

	return &t[r.index]
}
