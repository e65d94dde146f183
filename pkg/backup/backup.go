// Package backup exports and imports the whole client state (sessions,
// selection and settings) as a single JSON document compatible with the
// web client's backup files.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/zhyuuka/xingling-chat/pkg/appstate"
	"github.com/zhyuuka/xingling-chat/pkg/llm"
	"github.com/zhyuuka/xingling-chat/pkg/session"
)

// ErrMalformed is returned when an import document cannot be used.
// Nothing is applied when it is returned.
var ErrMalformed = errors.New("malformed backup")

// Document is the backup file layout. Optional objects are pointers so
// Decode can tell an absent field from a zero one.
type Document struct {
	Sessions         []llm.Session     `json:"sessions"`
	CurrentSessionID string            `json:"currentSessionId"`
	AssistantName    string            `json:"assistantName"`
	AssistantAvatar  string            `json:"assistantAvatar"`
	UserName         string            `json:"userName"`
	UserAvatar       string            `json:"userAvatar"`
	Wallpaper        string            `json:"wallpaper"`
	APIConfig        *llm.APIConfig    `json:"apiConfig"`
	SearchConfig     *llm.SearchConfig `json:"searchConfig"`
	ShowReasoning    *bool             `json:"showReasoning"`
}

// FileName returns the conventional backup file name for day t.
func FileName(t time.Time) string {
	return "xingling-backup-" + t.Format(time.DateOnly) + ".json"
}

// NewDocument snapshots the session collection and settings.
func NewDocument(store *session.Store, state appstate.State) Document {
	api := state.API
	search := state.Search
	show := state.ShowReasoning

	return Document{
		Sessions:         store.List(),
		CurrentSessionID: store.CurrentID(),
		AssistantName:    state.AssistantName,
		AssistantAvatar:  state.AssistantAvatar,
		UserName:         state.UserName,
		UserAvatar:       state.UserAvatar,
		Wallpaper:        state.Wallpaper,
		APIConfig:        &api,
		SearchConfig:     &search,
		ShowReasoning:    &show,
	}
}

// Export writes the current state to w as indented JSON.
func Export(w io.Writer, store *session.Store, state appstate.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(store, state)); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

// Decode reads a backup document and fills every absent field with its
// default. An empty session list is replaced by the default session.
// The input must hold exactly one JSON object.
func Decode(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("reading backup: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Document{}, fmt.Errorf("%w: top level is not an object", ErrMalformed)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if len(doc.Sessions) == 0 {
		doc.Sessions = []llm.Session{{
			ID:        session.DefaultSessionID,
			Name:      session.DefaultSessionName,
			Messages:  []llm.Message{},
			CreatedAt: time.Now().UnixMilli(),
		}}
	}

	seen := make(map[string]bool, len(doc.Sessions))
	for i := range doc.Sessions {
		id := doc.Sessions[i].ID
		if id == "" {
			return Document{}, fmt.Errorf("%w: session at index %d has no id", ErrMalformed, i)
		}
		if seen[id] {
			return Document{}, fmt.Errorf("%w: duplicate session id %q", ErrMalformed, id)
		}
		seen[id] = true

		if doc.Sessions[i].Messages == nil {
			doc.Sessions[i].Messages = []llm.Message{}
		}
	}

	if doc.CurrentSessionID == "" {
		doc.CurrentSessionID = session.DefaultSessionID
	}
	if doc.AssistantName == "" {
		doc.AssistantName = appstate.DefaultAssistantName
	}
	if doc.UserName == "" {
		doc.UserName = appstate.DefaultUserName
	}
	if doc.APIConfig == nil {
		api := appstate.DefaultAPIConfig()
		doc.APIConfig = &api
	}
	if doc.SearchConfig == nil {
		search := appstate.DefaultSearchConfig()
		doc.SearchConfig = &search
	}
	if doc.ShowReasoning == nil {
		show := true
		doc.ShowReasoning = &show
	}

	return doc, nil
}

// State returns the settings carried by a decoded document.
func (d Document) State() appstate.State {
	state := appstate.State{
		AssistantName:   d.AssistantName,
		AssistantAvatar: d.AssistantAvatar,
		UserName:        d.UserName,
		UserAvatar:      d.UserAvatar,
		Wallpaper:       d.Wallpaper,
	}
	if d.APIConfig != nil {
		state.API = *d.APIConfig
	}
	if d.SearchConfig != nil {
		state.Search = *d.SearchConfig
	}
	if d.ShowReasoning != nil {
		state.ShowReasoning = *d.ShowReasoning
	}
	return state
}

// Import decodes r and replaces the session collection and settings with
// its contents. The document is fully validated before anything is applied,
// and the previous settings are restored when the sessions cannot be written.
func Import(ctx context.Context, r io.Reader, store *session.Store, settings *appstate.Manager) (Document, error) {
	doc, err := Decode(r)
	if err != nil {
		return Document{}, err
	}

	prev := settings.State()
	if err := settings.Replace(ctx, doc.State()); err != nil {
		return Document{}, fmt.Errorf("importing settings: %w", err)
	}
	if err := store.Replace(ctx, doc.Sessions, doc.CurrentSessionID); err != nil {
		err = fmt.Errorf("importing sessions: %w", err)
		if rerr := settings.Replace(ctx, prev); rerr != nil {
			err = errors.Join(err, fmt.Errorf("restoring settings: %w", rerr))
		}
		return Document{}, err
	}

	return doc, nil
}
