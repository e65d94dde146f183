// Package chat wires the session store, settings, stream driver and event
// pool into the operations the command line exposes.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zhyuuka/xingling-chat/pkg/appstate"
	"github.com/zhyuuka/xingling-chat/pkg/eventstream"
	"github.com/zhyuuka/xingling-chat/pkg/llm"
	"github.com/zhyuuka/xingling-chat/pkg/logger"
	"github.com/zhyuuka/xingling-chat/pkg/session"
	"github.com/zhyuuka/xingling-chat/pkg/stream"
	"github.com/zhyuuka/xingling-chat/pkg/transcript"
	"github.com/zhyuuka/xingling-chat/pkg/worker"
)

// Options configures an App built from already constructed components.
type Options struct {
	Store    *session.Store
	Settings *appstate.Manager
	Driver   *stream.Driver

	// Pool is optional; without it no turn events are emitted.
	Pool *worker.Pool

	// ServerURL is recorded as the source of emitted events.
	ServerURL string

	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time

	// Closers run in order on Close.
	Closers []func() error
}

// App is the chat client.
type App struct {
	store    *session.Store
	settings *appstate.Manager
	driver   *stream.Driver
	pool     *worker.Pool

	serverURL string
	logger    *slog.Logger
	now       func() time.Time
	closers   []func() error
}

// Turn is the outcome of Send or Upload.
type Turn struct {
	SessionID string
	User      llm.Message
	Assistant llm.Message
}

// New creates an App.
func New(opts Options) (*App, error) {
	if opts.Store == nil || opts.Settings == nil || opts.Driver == nil {
		return nil, errors.New("chat app requires a store, settings and a driver")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &App{
		store:     opts.Store,
		settings:  opts.Settings,
		driver:    opts.Driver,
		pool:      opts.Pool,
		serverURL: opts.ServerURL,
		logger:    opts.Logger,
		now:       opts.Now,
		closers:   opts.Closers,
	}, nil
}

func (a *App) Store() *session.Store { return a.store }

func (a *App) Settings() *appstate.Manager { return a.settings }

// Send streams a reply to message in the selected session. The transcript
// is written to the store whenever it changes, so an interrupted stream
// still leaves a complete, persisted transcript.
//
// A transport failure is returned together with the Turn; the Turn's
// assistant message then carries the fallback text.
func (a *App) Send(ctx context.Context, message string, observe stream.Observer) (Turn, error) {
	sess := a.store.Current()
	state := a.settings.State()

	req := stream.SendRequest{
		SessionID:    sess.ID,
		Message:      message,
		SystemPrompt: sess.EffectiveSystemPrompt(state.API.SystemPrompt),
		API:          state.API,
		Search:       state.Search,
	}

	return a.run(ctx, sess, state, eventstream.TurnKindChat, observe,
		func(t *transcript.Transcript, obs stream.Observer) error {
			return a.driver.Send(ctx, t, req, obs)
		})
}

// Upload sends the file at path for analysis in the selected session.
func (a *App) Upload(ctx context.Context, path string, observe stream.Observer) (Turn, error) {
	f, err := os.Open(path)
	if err != nil {
		return Turn{}, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	return a.UploadReader(ctx, filepath.Base(path), f, observe)
}

// UploadReader is Upload for an already opened document.
func (a *App) UploadReader(ctx context.Context, name string, r io.Reader, observe stream.Observer) (Turn, error) {
	sess := a.store.Current()
	state := a.settings.State()

	req := stream.UploadRequest{
		SessionID:    sess.ID,
		FileName:     name,
		File:         r,
		SystemPrompt: sess.EffectiveSystemPrompt(state.API.SystemPrompt),
		API:          state.API,
		Search:       state.Search,
	}

	return a.run(ctx, sess, state, eventstream.TurnKindUpload, observe,
		func(t *transcript.Transcript, obs stream.Observer) error {
			return a.driver.Upload(ctx, t, req, obs)
		})
}

// run executes one driver turn against a private copy of the session
// transcript, persisting each observed change under the session id captured
// at the start, so switching sessions mid-stream cannot misroute messages.
func (a *App) run(
	ctx context.Context,
	sess llm.Session,
	state appstate.State,
	kind string,
	observe stream.Observer,
	do func(*transcript.Transcript, stream.Observer) error,
) (Turn, error) {
	t := transcript.Transcript(sess.Messages).Clone()
	start := len(t)
	started := a.now()

	// Persistence must survive cancellation of the stream itself.
	persistCtx := context.WithoutCancel(ctx)
	persist := func(cur transcript.Transcript) {
		if _, err := a.store.SyncTranscript(persistCtx, sess.ID, cur); err != nil {
			a.logger.Error("persisting transcript", "session_id", sess.ID, "error", err)
		}
	}

	err := do(&t, func(cur transcript.Transcript) {
		persist(cur)
		if observe != nil {
			observe(cur)
		}
	})
	if errors.Is(err, stream.ErrInFlight) {
		return Turn{}, err
	}
	persist(t)

	turn := Turn{SessionID: sess.ID}
	if len(t) > start {
		turn.User = t[start]
	}
	if last := t.Last(); last != nil && len(t) > start+1 && last.Role == llm.RoleAssistant {
		turn.Assistant = *last
	}

	a.emit(started, kind, state, turn, err)
	return turn, err
}

func (a *App) emit(started time.Time, kind string, state appstate.State, turn Turn, err error) {
	if a.pool == nil {
		return
	}

	meta := eventstream.TurnMeta{
		SessionID:   turn.SessionID,
		Kind:        kind,
		Model:       state.API.Model,
		Outcome:     eventstream.OutcomeOK,
		StartedAt:   started,
		CompletedAt: a.now(),
	}
	if err != nil {
		meta.Outcome = eventstream.OutcomeFailed
		meta.Error = err.Error()
	}

	event := eventstream.NewTurnCompletedEvent(
		a.now(),
		eventstream.EventSource{Client: "xingling", ServerURL: a.serverURL},
		meta,
		turn.User,
		turn.Assistant,
	)
	a.pool.Enqueue(worker.Job{Event: event})
}

// Clear asks the service to forget the session, then empties the local
// transcript. The remote call is best effort.
func (a *App) Clear(ctx context.Context, sessionID string) error {
	if err := a.driver.ClearSession(ctx, sessionID); err != nil {
		a.logger.Warn("clearing remote session", "session_id", sessionID, "error", err)
	}
	return a.store.ClearTranscript(ctx, sessionID)
}

// Status probes the completion service.
func (a *App) Status(ctx context.Context) (map[string]any, error) {
	return a.driver.Status(ctx)
}

// Close drains the event pool and releases storage.
func (a *App) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}

	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
