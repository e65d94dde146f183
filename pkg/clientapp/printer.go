package clientapp

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhyuuka/xingling-chat/pkg/cliui"
	"github.com/zhyuuka/xingling-chat/pkg/llm"
	"github.com/zhyuuka/xingling-chat/pkg/transcript"
)

// StreamPrinter writes the assistant reply to a terminal as it grows. Use
// Observe as the stream observer and call Finish once the turn ends.
type StreamPrinter struct {
	w             io.Writer
	name          string
	showReasoning bool

	started   bool
	reasoning string
	content   string
}

func NewStreamPrinter(w io.Writer, assistantName string, showReasoning bool) *StreamPrinter {
	return &StreamPrinter{w: w, name: assistantName, showReasoning: showReasoning}
}

// Observe prints whatever the last assistant message gained since the
// previous call. Transcripts ending in a user message are ignored.
func (p *StreamPrinter) Observe(t transcript.Transcript) {
	last := t.Last()
	if last == nil || last.Role != llm.RoleAssistant {
		return
	}

	if !p.started {
		fmt.Fprintf(p.w, "%s ", cliui.NameStyle.Render(p.name+">"))
		p.started = true
	}

	if p.showReasoning {
		p.reasoning = p.write(p.reasoning, last.Reasoning, &cliui.ReasoningStyle)
	}
	if last.Content != "" && p.content == "" && p.reasoning != "" {
		fmt.Fprint(p.w, "\n")
	}
	p.content = p.write(p.content, last.Content, nil)
}

// Finish terminates the reply block.
func (p *StreamPrinter) Finish() {
	if p.started {
		fmt.Fprint(p.w, "\n\n")
	}
}

func (p *StreamPrinter) write(printed, current string, style *lipgloss.Style) string {
	if current == printed {
		return printed
	}

	delta := current
	if strings.HasPrefix(current, printed) {
		delta = current[len(printed):]
	} else {
		// The message was replaced rather than extended.
		fmt.Fprint(p.w, "\n")
	}

	if style != nil {
		delta = style.Render(delta)
	}
	fmt.Fprint(p.w, delta)
	return current
}

// PrintMessage writes a stored message the way it looked while streaming.
func PrintMessage(w io.Writer, m llm.Message, names DisplayNames, showReasoning bool) {
	if m.Role == llm.RoleUser {
		fmt.Fprintf(w, "%s %s\n\n", cliui.UserStyle.Render(names.User+">"), m.Content)
		return
	}

	fmt.Fprintf(w, "%s ", cliui.NameStyle.Render(names.Assistant+">"))
	if showReasoning && m.Reasoning != "" {
		fmt.Fprintf(w, "%s\n", cliui.ReasoningStyle.Render(m.Reasoning))
	}
	fmt.Fprintf(w, "%s\n\n", m.Content)
}

// DisplayNames are the labels printed in front of messages.
type DisplayNames struct {
	User      string
	Assistant string
}
