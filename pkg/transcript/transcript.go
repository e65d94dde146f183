// Package transcript holds an ordered conversation transcript and the
// reducer that folds stream events into its in-progress assistant message.
package transcript

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/zhyuuka/xingling-chat/pkg/llm"
)

// Transcript is an ordered sequence of messages; insertion order is
// chronological order.
type Transcript []llm.Message

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(m llm.Message) {
	*t = append(*t, m)
}

// Last returns a pointer to the final message, or nil when empty.
func (t Transcript) Last() *llm.Message {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// Clone returns a copy that shares no backing array with t.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return Transcript{}
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Equal reports whether two transcripts are structurally identical.
// A nil transcript equals an empty one.
func (t Transcript) Equal(other Transcript) bool {
	return cmp.Equal([]llm.Message(t), []llm.Message(other), cmpopts.EquateEmpty())
}
