package appstate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zhyuuka/xingling-chat/pkg/llm"
)

// Storage keys, one per persisted setting.
const (
	KeyAssistantName   = "assistant_name"
	KeyAssistantAvatar = "assistant_avatar"
	KeyUserName        = "user_name"
	KeyUserAvatar      = "user_avatar"
	KeyWallpaper       = "chat_wallpaper"
	KeyAPIConfig       = "api_config"
	KeySearchConfig    = "search_config"
	KeyShowReasoning   = "show_reasoning"
)

// settingKey maps a dotted setting name onto a field of State and the
// storage key that field is persisted under.
type settingKey struct {
	storageKey string
	secret     bool
	get        func(*State) string
	set        func(*State, string) error
}

var settingKeys = map[string]settingKey{
	"assistant.name": {
		storageKey: KeyAssistantName,
		get:        func(s *State) string { return s.AssistantName },
		set:        setName(func(s *State) *string { return &s.AssistantName }),
	},
	"assistant.avatar": {
		storageKey: KeyAssistantAvatar,
		get:        func(s *State) string { return s.AssistantAvatar },
		set:        setImage(func(s *State) *string { return &s.AssistantAvatar }),
	},
	"user.name": {
		storageKey: KeyUserName,
		get:        func(s *State) string { return s.UserName },
		set:        setName(func(s *State) *string { return &s.UserName }),
	},
	"user.avatar": {
		storageKey: KeyUserAvatar,
		get:        func(s *State) string { return s.UserAvatar },
		set:        setImage(func(s *State) *string { return &s.UserAvatar }),
	},
	"wallpaper": {
		storageKey: KeyWallpaper,
		get:        func(s *State) string { return s.Wallpaper },
		set:        setImage(func(s *State) *string { return &s.Wallpaper }),
	},
	"api.key": {
		storageKey: KeyAPIConfig,
		secret:     true,
		get:        func(s *State) string { return s.API.APIKey },
		set:        func(s *State, v string) error { s.API.APIKey = strings.TrimSpace(v); return nil },
	},
	"api.base_url": {
		storageKey: KeyAPIConfig,
		get:        func(s *State) string { return s.API.BaseURL },
		set:        func(s *State, v string) error { s.API.BaseURL = strings.TrimSpace(v); return nil },
	},
	"api.model": {
		storageKey: KeyAPIConfig,
		get:        func(s *State) string { return s.API.Model },
		set:        func(s *State, v string) error { s.API.Model = strings.TrimSpace(v); return nil },
	},
	"api.system_prompt": {
		storageKey: KeyAPIConfig,
		get:        func(s *State) string { return s.API.SystemPrompt },
		set:        func(s *State, v string) error { s.API.SystemPrompt = v; return nil },
	},
	"search.enabled": {
		storageKey: KeySearchConfig,
		get:        func(s *State) string { return strconv.FormatBool(s.Search.Enabled) },
		set: func(s *State, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for search.enabled: %q (expected true or false)", v)
			}
			s.Search.Enabled = b
			return nil
		},
	},
	"search.provider": {
		storageKey: KeySearchConfig,
		get:        func(s *State) string { return s.Search.Provider },
		set: func(s *State, v string) error {
			switch v {
			case llm.SearchProviderTavily, llm.SearchProviderGoogleSerper:
				s.Search.Provider = v
				return nil
			default:
				return fmt.Errorf("invalid search provider: %q (available: %s, %s)",
					v, llm.SearchProviderTavily, llm.SearchProviderGoogleSerper)
			}
		},
	},
	"search.api_key": {
		storageKey: KeySearchConfig,
		secret:     true,
		get:        func(s *State) string { return s.Search.APIKey },
		set:        func(s *State, v string) error { s.Search.APIKey = strings.TrimSpace(v); return nil },
	},
	"search.result_count": {
		storageKey: KeySearchConfig,
		get:        func(s *State) string { return strconv.Itoa(s.Search.ResultCount) },
		set: func(s *State, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid value for search.result_count: %q (expected a positive integer)", v)
			}
			s.Search.ResultCount = n
			return nil
		},
	},
	"show_reasoning": {
		storageKey: KeyShowReasoning,
		get:        func(s *State) string { return strconv.FormatBool(s.ShowReasoning) },
		set: func(s *State, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for show_reasoning: %q (expected true or false)", v)
			}
			s.ShowReasoning = b
			return nil
		},
	},
}

func setName(field func(*State) *string) func(*State, string) error {
	return func(s *State, v string) error {
		v = strings.TrimSpace(v)
		if v == "" {
			return errors.New("name must not be empty")
		}
		*field(s) = v
		return nil
	}
}

func setImage(field func(*State) *string) func(*State, string) error {
	return func(s *State, v string) error {
		uri, err := resolveImage(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(s) = uri
		return nil
	}
}

// ValidKeys returns every setting name in display order.
func ValidKeys() []string {
	return []string{
		"assistant.name",
		"assistant.avatar",
		"user.name",
		"user.avatar",
		"wallpaper",
		"api.key",
		"api.base_url",
		"api.model",
		"api.system_prompt",
		"search.enabled",
		"search.provider",
		"search.api_key",
		"search.result_count",
		"show_reasoning",
	}
}

// IsValidKey reports whether key names a setting.
func IsValidKey(key string) bool {
	_, ok := settingKeys[key]
	return ok
}

// IsSecretKey reports whether key holds a credential that should not be
// echoed back in full.
func IsSecretKey(key string) bool {
	return settingKeys[key].secret
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
