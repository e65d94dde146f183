// Package appstate holds the user-facing application settings: display
// names, avatars, the chat wallpaper, API and search configuration and the
// reasoning visibility flag.
package appstate

import (
	"github.com/zhyuuka/xingling-chat/pkg/llm"
)

const (
	DefaultAssistantName = "Xingling"
	DefaultUserName      = "Me"
	DefaultBaseURL       = "https://api.deepseek.com"
	DefaultModel         = "deepseek-chat"
	DefaultSystemPrompt  = "You are a friendly AI assistant named Xingling."
	DefaultResultCount   = 3
)

// State is a snapshot of every application setting.
type State struct {
	AssistantName   string
	AssistantAvatar string
	UserName        string
	UserAvatar      string
	Wallpaper       string
	API             llm.APIConfig
	Search          llm.SearchConfig
	ShowReasoning   bool
}

// NewDefaultState returns the settings used before anything is stored.
func NewDefaultState() State {
	return State{
		AssistantName: DefaultAssistantName,
		UserName:      DefaultUserName,
		API:           DefaultAPIConfig(),
		Search:        DefaultSearchConfig(),
		ShowReasoning: true,
	}
}

func DefaultAPIConfig() llm.APIConfig {
	return llm.APIConfig{
		BaseURL:      DefaultBaseURL,
		Model:        DefaultModel,
		SystemPrompt: DefaultSystemPrompt,
	}
}

func DefaultSearchConfig() llm.SearchConfig {
	return llm.SearchConfig{
		Provider:    llm.SearchProviderTavily,
		ResultCount: DefaultResultCount,
	}
}
