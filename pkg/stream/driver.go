// Package stream drives one request/response/stream lifecycle against the
// completion service: it appends the user turn, opens the streaming request
// and reduces the decoded events into the transcript as they arrive.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zhyuuka/xingling-chat/pkg/llm"
	"github.com/zhyuuka/xingling-chat/pkg/logger"
	"github.com/zhyuuka/xingling-chat/pkg/sse"
	"github.com/zhyuuka/xingling-chat/pkg/transcript"
)

const (
	// FallbackText is appended as an assistant message when a chat stream fails.
	FallbackText = "(an error occurred, please retry)"

	// UploadFallbackText is appended as an assistant message when an upload fails.
	UploadFallbackText = "(file upload or analysis failed)"

	// UploadMarkerPrefix precedes the file name in the user message recorded
	// for an upload.
	UploadMarkerPrefix = "📎 file uploaded: "

	defaultChunkSize = 4096
	instrumentation  = "github.com/zhyuuka/xingling-chat/pkg/stream"
)

// Observer is called after every transcript mutation made by the driver.
// The transcript shares its backing array with the driver's; observers
// that keep it must Clone it.
type Observer func(transcript.Transcript)

// Config configures a Driver.
type Config struct {
	// ServerURL is the completion service base URL, e.g. http://localhost:8000.
	ServerURL string

	// HTTPClient defaults to a client with no timeout of its own.
	HTTPClient *http.Client

	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time

	// ChunkSize is the read buffer size for the response body.
	ChunkSize int
}

// SendRequest is one chat turn.
type SendRequest struct {
	SessionID string
	Message   string

	// SystemPrompt is the effective prompt: the session override, else the
	// global default.
	SystemPrompt string

	API    llm.APIConfig
	Search llm.SearchConfig
}

// UploadRequest is one document upload turn.
type UploadRequest struct {
	SessionID    string
	FileName     string
	File         io.Reader
	SystemPrompt string
	API          llm.APIConfig
	Search       llm.SearchConfig
}

// Driver owns the read loop between the network and the transcript.
type Driver struct {
	serverURL string
	client    *http.Client
	logger    *slog.Logger
	parser    *sse.Parser
	now       func() time.Time
	chunkSize int

	tracer   trace.Tracer
	events   metric.Int64Counter
	failures metric.Int64Counter

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewDriver creates a Driver.
func NewDriver(c Config) (*Driver, error) {
	if c.ServerURL == "" {
		return nil, errors.New("server URL is required")
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}

	meter := otel.Meter(instrumentation)
	events, err := meter.Int64Counter("xingling.stream.events",
		metric.WithDescription("Stream events decoded, by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}
	failures, err := meter.Int64Counter("xingling.stream.failures",
		metric.WithDescription("Streams that ended in a transport failure"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	return &Driver{
		serverURL: strings.TrimRight(c.ServerURL, "/"),
		client:    c.HTTPClient,
		logger:    c.Logger,
		parser:    sse.NewParser(c.Logger),
		now:       c.Now,
		chunkSize: c.ChunkSize,
		tracer:    otel.Tracer(instrumentation),
		events:    events,
		failures:  failures,
		inflight:  make(map[string]struct{}),
	}, nil
}

// Send appends the user message to t, streams the reply into a new
// assistant message and finalizes it.
//
// On transport failure a fallback assistant message is appended after
// whatever was already streamed and the error is returned for logging; the
// transcript is complete either way. ErrInFlight is returned without
// touching t when the session already has a stream running.
func (d *Driver) Send(ctx context.Context, t *transcript.Transcript, req SendRequest, observe Observer) error {
	if err := d.acquire(req.SessionID); err != nil {
		return err
	}
	defer d.release(req.SessionID)

	ctx, span := d.tracer.Start(ctx, "chat_stream",
		trace.WithAttributes(attribute.String("session.id", req.SessionID)),
	)
	defer span.End()

	t.Append(llm.NewMessage(llm.RoleUser, req.Message, d.now()))
	notify(observe, *t)

	chatReq := llm.NewChatRequest(req.Message, req.SessionID, req.SystemPrompt, req.API, req.Search)
	body, err := json.Marshal(chatReq)
	if err != nil {
		return d.fail(ctx, span, t, observe, FallbackText, fmt.Errorf("marshaling request: %w", err))
	}

	d.logger.Debug("sending chat request",
		"server", d.serverURL,
		"session_id", req.SessionID,
		"model", req.API.Model,
		"search_enabled", req.Search.Enabled,
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.serverURL+"/chat_stream", bytes.NewReader(body))
	if err != nil {
		return d.fail(ctx, span, t, observe, FallbackText, fmt.Errorf("creating request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	return d.stream(ctx, span, t, httpReq, observe, FallbackText)
}

// Upload sends a document for analysis. The user turn is recorded as a
// marker naming the file, the request is multipart, and only content
// deltas are reduced into the reply.
func (d *Driver) Upload(ctx context.Context, t *transcript.Transcript, req UploadRequest, observe Observer) error {
	if err := d.acquire(req.SessionID); err != nil {
		return err
	}
	defer d.release(req.SessionID)

	ctx, span := d.tracer.Start(ctx, "upload",
		trace.WithAttributes(
			attribute.String("session.id", req.SessionID),
			attribute.String("file.name", req.FileName),
		),
	)
	defer span.End()

	t.Append(llm.NewMessage(llm.RoleUser, UploadMarkerPrefix+req.FileName, d.now()))
	notify(observe, *t)

	if req.File == nil {
		return d.fail(ctx, span, t, observe, UploadFallbackText, errors.New("no file to upload"))
	}

	pr, contentType := multipartBody(req)
	defer pr.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.serverURL+"/upload", pr)
	if err != nil {
		return d.fail(ctx, span, t, observe, UploadFallbackText, fmt.Errorf("creating request: %w", err))
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "text/event-stream")

	d.logger.Debug("uploading file",
		"server", d.serverURL,
		"session_id", req.SessionID,
		"file", req.FileName,
	)

	return d.stream(ctx, span, t, httpReq, observe, UploadFallbackText, transcript.ContentOnly())
}

// stream issues httpReq and runs the read loop until the body is exhausted.
func (d *Driver) stream(
	ctx context.Context,
	span trace.Span,
	t *transcript.Transcript,
	httpReq *http.Request,
	observe Observer,
	fallback string,
	opts ...transcript.ReducerOption,
) error {
	resp, err := d.client.Do(httpReq)
	if err != nil {
		return d.fail(ctx, span, t, observe, fallback, fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return d.fail(ctx, span, t, observe, fallback, statusError(resp))
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return d.fail(ctx, span, t, observe, fallback, ErrNoBody)
	}

	t.Append(llm.NewMessage(llm.RoleAssistant, "", d.now()))
	notify(observe, *t)

	reducer := transcript.NewReducer(t, append(opts, transcript.WithLogger(d.logger))...)
	defer reducer.Finish()

	decoder := sse.NewDecoder()
	body := transform.NewReader(resp.Body, unicode.UTF8.NewDecoder())
	buf := make([]byte, d.chunkSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for block := range decoder.Feed(buf[:n]) {
				for ev := range d.parser.Parse(block) {
					d.events.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(ev.Kind))))
					if reducer.Apply(ev) {
						notify(observe, *t)
					}
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return d.fail(ctx, span, t, observe, fallback, fmt.Errorf("reading stream: %w", readErr))
		}
	}

	if rest := decoder.Reset(); rest != "" {
		d.logger.Debug("discarding incomplete trailing frame", "fragment", rest)
	}

	d.logger.Debug("stream completed",
		"content_len", len(reducer.Content()),
		"reasoning_len", len(reducer.Reasoning()),
	)

	return nil
}

// fail appends the fallback message and records err on the span.
func (d *Driver) fail(
	ctx context.Context,
	span trace.Span,
	t *transcript.Transcript,
	observe Observer,
	fallback string,
	err error,
) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	d.failures.Add(ctx, 1)

	d.logger.Error("stream failed", "error", err)

	t.Append(llm.NewMessage(llm.RoleAssistant, fallback, d.now()))
	notify(observe, *t)

	return err
}

func (d *Driver) acquire(sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, busy := d.inflight[sessionID]; busy {
		return fmt.Errorf("%w: %s", ErrInFlight, sessionID)
	}
	d.inflight[sessionID] = struct{}{}
	return nil
}

func (d *Driver) release(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, sessionID)
}

func notify(observe Observer, t transcript.Transcript) {
	if observe != nil {
		observe(t)
	}
}
