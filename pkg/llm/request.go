package llm

// APIConfig holds the model credentials forwarded to the completion service.
// Empty fields are sent as absent so the service falls back to its own
// defaults.
type APIConfig struct {
	APIKey       string `json:"apiKey"`
	BaseURL      string `json:"baseUrl"`
	Model        string `json:"model"`
	SystemPrompt string `json:"systemPrompt"`
}

// Search providers understood by the completion service.
const (
	SearchProviderTavily       = "tavily"
	SearchProviderGoogleSerper = "google_serper"
)

// SearchConfig controls web search augmentation.
type SearchConfig struct {
	Enabled     bool   `json:"enabled"`
	Provider    string `json:"provider"`
	APIKey      string `json:"apiKey"`
	ResultCount int    `json:"resultCount"`
}

// ChatRequest is the JSON body of POST /chat_stream.
type ChatRequest struct {
	Message           string  `json:"message"`
	SessionID         string  `json:"session_id"`
	APIKey            *string `json:"api_key,omitempty"`
	BaseURL           *string `json:"base_url,omitempty"`
	Model             *string `json:"model,omitempty"`
	SystemPrompt      *string `json:"system_prompt,omitempty"`
	SearchEnabled     bool    `json:"search_enabled"`
	SearchProvider    string  `json:"search_provider"`
	SearchAPIKey      *string `json:"search_api_key,omitempty"`
	SearchResultCount int     `json:"search_result_count"`
}

// NewChatRequest composes a request body from the resolved configuration.
// systemPrompt should already be the effective prompt for the session.
func NewChatRequest(message, sessionID, systemPrompt string, api APIConfig, search SearchConfig) ChatRequest {
	return ChatRequest{
		Message:           message,
		SessionID:         sessionID,
		APIKey:            optional(api.APIKey),
		BaseURL:           optional(api.BaseURL),
		Model:             optional(api.Model),
		SystemPrompt:      optional(systemPrompt),
		SearchEnabled:     search.Enabled,
		SearchProvider:    search.Provider,
		SearchAPIKey:      optional(search.APIKey),
		SearchResultCount: search.ResultCount,
	}
}

// ClearSessionRequest is the JSON body of POST /clear_session.
type ClearSessionRequest struct {
	SessionID string `json:"session_id"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
