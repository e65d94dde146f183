package sse

import (
	"encoding/json"
	"iter"
	"log/slog"
	"strings"

	"github.com/zhyuuka/xingling-chat/pkg/llm"
	"github.com/zhyuuka/xingling-chat/pkg/logger"
)

// Parser extracts StreamEvents from event blocks.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser. A nil logger discards parse diagnostics.
func NewParser(l *slog.Logger) *Parser {
	if l == nil {
		l = logger.Nop()
	}
	return &Parser{logger: l}
}

// Parse yields one StreamEvent per well formed "data: " line in block, in
// order. Lines without the prefix are comments or keep-alives and are
// ignored. A line whose JSON cannot be decoded is logged and skipped; it
// never stops the remaining lines from being parsed.
func (p *Parser) Parse(block string) iter.Seq[llm.StreamEvent] {
	return func(yield func(llm.StreamEvent) bool) {
		for line := range strings.SplitSeq(block, "\n") {
			data, ok := strings.CutPrefix(line, DataPrefix)
			if !ok {
				continue
			}

			var payload llm.StreamPayload
			if err := json.Unmarshal([]byte(data), &payload); err != nil {
				p.logger.Warn("skipping malformed stream line",
					"error", err,
					"line", data,
				)
				continue
			}

			ev, ok := payload.Event()
			if !ok {
				p.logger.Debug("ignoring unknown stream payload type", "type", payload.Type)
				continue
			}

			if !yield(ev) {
				return
			}
		}
	}
}
