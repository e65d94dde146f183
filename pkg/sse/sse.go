// Package sse decodes the completion service's server-sent event stream.
//
// It is deliberately narrow: events are blocks delimited by a blank line
// ("\n\n") and only "data: " lines carrying a JSON payload are interpreted.
// It does NOT provide SSE writer or server capabilities.
package sse

// Delimiter terminates one event block.
const Delimiter = "\n\n"

// DataPrefix marks a line that carries a JSON payload.
const DataPrefix = "data: "
