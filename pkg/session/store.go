// Package session keeps the durable collection of chat sessions and the
// currently selected session.
//
// Every mutating operation updates memory first and then synchronously
// writes the affected keys to the backing storage.KV.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhyuuka/xingling-chat/pkg/llm"
	"github.com/zhyuuka/xingling-chat/pkg/logger"
	"github.com/zhyuuka/xingling-chat/pkg/storage"
	"github.com/zhyuuka/xingling-chat/pkg/transcript"
)

// Storage keys.
const (
	KeySessions = "chat_sessions"
	KeyCurrent  = "current_session_id"
)

const (
	DefaultSessionID   = "default"
	DefaultSessionName = "Default session"

	newSessionPrefix = "New chat "
)

// Options configures a Store.
type Options struct {
	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time

	// NewID defaults to a time-ordered UUIDv7.
	NewID func() string
}

// Store is the session collection plus the selected session id.
type Store struct {
	kv     storage.KV
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu        sync.Mutex
	sessions  []llm.Session
	currentID string
}

// Open loads the collection from kv. When nothing is stored yet a default
// session is created and persisted, so the collection is never empty.
func Open(ctx context.Context, kv storage.KV, opts Options) (*Store, error) {
	s := &Store{
		kv:     kv,
		logger: opts.Logger,
		now:    opts.Now,
		newID:  opts.NewID,
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}

	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return nil, err
	}

	bootstrapped := false
	if len(sessions) == 0 {
		sessions = []llm.Session{{
			ID:        DefaultSessionID,
			Name:      DefaultSessionName,
			Messages:  []llm.Message{},
			CreatedAt: s.now().UnixMilli(),
		}}
		bootstrapped = true
	}
	s.sessions = sessions

	current, err := kv.Get(ctx, KeyCurrent)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("loading current session: %w", err)
	}
	if s.indexOf(current) < 0 {
		current = sessions[0].ID
	}
	s.currentID = current

	if bootstrapped {
		s.logger.Debug("bootstrapped default session")
		if err := s.persist(ctx); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Store) loadSessions(ctx context.Context) ([]llm.Session, error) {
	raw, err := s.kv.Get(ctx, KeySessions)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}

	var sessions []llm.Session
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return nil, fmt.Errorf("decoding sessions: %w", err)
	}
	for i := range sessions {
		if sessions[i].Messages == nil {
			sessions[i].Messages = []llm.Message{}
		}
	}
	return sessions, nil
}

// List returns a copy of every session in creation order.
func (s *Store) List() []llm.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]llm.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = clone(sess)
	}
	return out
}

// CurrentID returns the selected session id.
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Current returns a copy of the selected session.
func (s *Store) Current() llm.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.sessions[s.indexOf(s.currentID)])
}

// Get returns a copy of the session with id.
func (s *Store) Get(id string) (llm.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return llm.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(s.sessions[i]), nil
}

// Transcript returns a copy of the selected session's messages.
func (s *Store) Transcript() transcript.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return transcript.Transcript(s.sessions[s.indexOf(s.currentID)].Messages).Clone()
}

// Create adds a new empty session that inherits systemPrompt as its
// override, selects it and returns it.
func (s *Store) Create(ctx context.Context, systemPrompt string) (llm.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := llm.Session{
		ID:           s.newID(),
		Name:         newSessionPrefix + now.Format("15:04:05"),
		Messages:     []llm.Message{},
		SystemPrompt: systemPrompt,
		CreatedAt:    now.UnixMilli(),
	}

	s.sessions = append(s.sessions, sess)
	s.currentID = sess.ID

	s.logger.Debug("created session", "session_id", sess.ID)
	return clone(sess), s.persist(ctx)
}

// Switch selects id. It reports whether the selection changed; callers
// reload the transcript only when it did.
func (s *Store) Switch(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if id == s.currentID {
		return false, nil
	}

	s.currentID = id
	if err := s.kv.Put(ctx, KeyCurrent, id); err != nil {
		return true, fmt.Errorf("persisting current session: %w", err)
	}
	return true, nil
}

// Delete removes id. Deleting the only remaining session is rejected with
// ErrLastSession and changes nothing. When the selected session is deleted
// another one is selected.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if len(s.sessions) == 1 {
		return ErrLastSession
	}

	s.sessions = slices.Delete(s.sessions, i, i+1)
	if s.currentID == id {
		s.currentID = s.sessions[0].ID
	}

	s.logger.Debug("deleted session", "session_id", id, "current", s.currentID)
	return s.persist(ctx)
}

// Rename sets the session name. A name that is empty after trimming is
// ignored.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	return s.update(ctx, id, func(sess *llm.Session) {
		sess.Name = name
	})
}

// SetSystemPrompt overwrites the session's prompt override.
func (s *Store) SetSystemPrompt(ctx context.Context, id, prompt string) error {
	return s.update(ctx, id, func(sess *llm.Session) {
		sess.SystemPrompt = prompt
	})
}

// SyncTranscript stores t as the messages of session id. The write is
// skipped when t is structurally identical to what is stored; the returned
// bool reports whether anything was written.
func (s *Store) SyncTranscript(ctx context.Context, id string, t transcript.Transcript) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if transcript.Transcript(s.sessions[i].Messages).Equal(t) {
		return false, nil
	}

	s.sessions[i].Messages = t.Clone()
	return true, s.persistSessions(ctx)
}

// ClearTranscript removes every message from session id.
func (s *Store) ClearTranscript(ctx context.Context, id string) error {
	return s.update(ctx, id, func(sess *llm.Session) {
		sess.Messages = []llm.Message{}
	})
}

// DeleteMessage removes the message at index from session id.
func (s *Store) DeleteMessage(ctx context.Context, id string, index int) error {
	var rangeErr error
	err := s.update(ctx, id, func(sess *llm.Session) {
		if index < 0 || index >= len(sess.Messages) {
			rangeErr = fmt.Errorf("message index %d out of range [0, %d)", index, len(sess.Messages))
			return
		}
		sess.Messages = slices.Delete(sess.Messages, index, index+1)
	})
	if rangeErr != nil {
		return rangeErr
	}
	return err
}

// Replace swaps in a whole collection, as done by a backup import.
// currentID falls back to the first session when it is unknown.
func (s *Store) Replace(ctx context.Context, sessions []llm.Session, currentID string) error {
	if len(sessions) == 0 {
		return ErrNoSessions
	}

	seen := make(map[string]bool, len(sessions))
	next := make([]llm.Session, len(sessions))
	for i, sess := range sessions {
		if sess.ID == "" {
			return fmt.Errorf("session at index %d has no id", i)
		}
		if seen[sess.ID] {
			return fmt.Errorf("duplicate session id %q", sess.ID)
		}
		seen[sess.ID] = true
		next[i] = clone(sess)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevSessions, prevCurrent := s.sessions, s.currentID
	s.sessions = next
	s.currentID = currentID
	if s.indexOf(currentID) < 0 {
		s.currentID = next[0].ID
	}
	if err := s.persist(ctx); err != nil {
		s.sessions, s.currentID = prevSessions, prevCurrent
		return err
	}
	return nil
}

// update applies fn to session id under the lock and persists the collection.
func (s *Store) update(ctx context.Context, id string, fn func(*llm.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	before := clone(s.sessions[i])
	fn(&s.sessions[i])
	if sessionsEqual(before, s.sessions[i]) {
		return nil
	}
	return s.persistSessions(ctx)
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.sessions, func(sess llm.Session) bool { return sess.ID == id })
}

func (s *Store) persist(ctx context.Context) error {
	if err := s.persistSessions(ctx); err != nil {
		return err
	}
	if err := s.kv.Put(ctx, KeyCurrent, s.currentID); err != nil {
		return fmt.Errorf("persisting current session: %w", err)
	}
	return nil
}

func (s *Store) persistSessions(ctx context.Context) error {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return fmt.Errorf("encoding sessions: %w", err)
	}
	if err := s.kv.Put(ctx, KeySessions, string(data)); err != nil {
		return fmt.Errorf("persisting sessions: %w", err)
	}
	return nil
}

func clone(sess llm.Session) llm.Session {
	sess.Messages = transcript.Transcript(sess.Messages).Clone()
	return sess
}

func sessionsEqual(a, b llm.Session) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.SystemPrompt == b.SystemPrompt &&
		a.CreatedAt == b.CreatedAt &&
		transcript.Transcript(a.Messages).Equal(b.Messages)
}
