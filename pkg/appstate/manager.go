package appstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/zhyuuka/xingling-chat/pkg/llm"
	"github.com/zhyuuka/xingling-chat/pkg/logger"
	"github.com/zhyuuka/xingling-chat/pkg/storage"
)

// Manager owns the application State. It is loaded once at startup and
// every change is written through to the backing storage.KV.
type Manager struct {
	kv     storage.KV
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// Load reads every stored setting from kv, falling back to defaults for
// anything missing. A stored value that cannot be decoded is logged and
// replaced by its default.
func Load(ctx context.Context, kv storage.KV, l *slog.Logger) (*Manager, error) {
	if l == nil {
		l = logger.Nop()
	}

	m := &Manager{
		kv:     kv,
		logger: l,
		state:  NewDefaultState(),
	}

	for _, key := range storageKeys {
		raw, err := kv.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", key, err)
		}
		if err := decodeField(&m.state, key, raw); err != nil {
			l.Warn("ignoring stored setting", "key", key, "error", err)
		}
	}

	return m, nil
}

// State returns a snapshot of the current settings.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Get returns the string form of the named setting.
func (m *Manager) Get(key string) (string, error) {
	info, ok := settingKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown setting: %q", key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return info.get(&m.state), nil
}

// Set parses value into the named setting and persists it.
func (m *Manager) Set(ctx context.Context, key, value string) error {
	info, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("unknown setting: %q", key)
	}

	return m.apply(ctx, func(s *State) error {
		return info.set(s, value)
	}, info.storageKey)
}

// SetAPI replaces the API configuration.
func (m *Manager) SetAPI(ctx context.Context, api llm.APIConfig) error {
	return m.apply(ctx, func(s *State) error {
		s.API = api
		return nil
	}, KeyAPIConfig)
}

// SetSearch replaces the search configuration.
func (m *Manager) SetSearch(ctx context.Context, search llm.SearchConfig) error {
	return m.apply(ctx, func(s *State) error {
		s.Search = search
		return nil
	}, KeySearchConfig)
}

// SetShowReasoning toggles reasoning visibility.
func (m *Manager) SetShowReasoning(ctx context.Context, show bool) error {
	return m.apply(ctx, func(s *State) error {
		s.ShowReasoning = show
		return nil
	}, KeyShowReasoning)
}

// Replace swaps in a whole State and persists every key.
func (m *Manager) Replace(ctx context.Context, state State) error {
	return m.apply(ctx, func(s *State) error {
		*s = state
		return nil
	}, storageKeys...)
}

// apply mutates a copy of the state and commits it only after every
// affected key has been written.
func (m *Manager) apply(ctx context.Context, fn func(*State) error, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.state
	if err := fn(&next); err != nil {
		return err
	}

	for i, key := range keys {
		raw, err := encodeField(&next, key)
		if err != nil {
			m.restore(ctx, keys[:i])
			return err
		}
		if err := m.kv.Put(ctx, key, raw); err != nil {
			m.restore(ctx, keys[:i])
			return fmt.Errorf("persisting %s: %w", key, err)
		}
	}

	m.state = next
	m.logger.Debug("settings updated", "keys", keys)
	return nil
}

// restore rewrites keys with the committed state after a failed apply.
func (m *Manager) restore(ctx context.Context, keys []string) {
	for _, key := range keys {
		raw, err := encodeField(&m.state, key)
		if err == nil {
			err = m.kv.Put(ctx, key, raw)
		}
		if err != nil {
			m.logger.Warn("restoring setting", "key", key, "error", err)
		}
	}
}

var storageKeys = []string{
	KeyAssistantName,
	KeyAssistantAvatar,
	KeyUserName,
	KeyUserAvatar,
	KeyWallpaper,
	KeyAPIConfig,
	KeySearchConfig,
	KeyShowReasoning,
}

func encodeField(s *State, key string) (string, error) {
	switch key {
	case KeyAssistantName:
		return s.AssistantName, nil
	case KeyAssistantAvatar:
		return s.AssistantAvatar, nil
	case KeyUserName:
		return s.UserName, nil
	case KeyUserAvatar:
		return s.UserAvatar, nil
	case KeyWallpaper:
		return s.Wallpaper, nil
	case KeyAPIConfig:
		return encodeJSON(s.API)
	case KeySearchConfig:
		return encodeJSON(s.Search)
	case KeyShowReasoning:
		return strconv.FormatBool(s.ShowReasoning), nil
	default:
		return "", fmt.Errorf("unknown storage key: %q", key)
	}
}

// decodeField applies a stored value onto s. Empty names keep the default;
// JSON objects are decoded over the defaults so missing fields survive.
func decodeField(s *State, key, raw string) error {
	switch key {
	case KeyAssistantName:
		if raw != "" {
			s.AssistantName = raw
		}
	case KeyAssistantAvatar:
		s.AssistantAvatar = raw
	case KeyUserName:
		if raw != "" {
			s.UserName = raw
		}
	case KeyUserAvatar:
		s.UserAvatar = raw
	case KeyWallpaper:
		s.Wallpaper = raw
	case KeyAPIConfig:
		api := s.API
		if err := json.Unmarshal([]byte(raw), &api); err != nil {
			return err
		}
		s.API = api
	case KeySearchConfig:
		search := s.Search
		if err := json.Unmarshal([]byte(raw), &search); err != nil {
			return err
		}
		s.Search = search
	case KeyShowReasoning:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		s.ShowReasoning = b
	default:
		return fmt.Errorf("unknown storage key: %q", key)
	}
	return nil
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
