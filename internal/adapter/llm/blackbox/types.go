package blackbox

// chatMessage is one message in the chat payload.
type chatMessage struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Role    string `json:"role"`
}

// chatRequest is the wire format the inference endpoint expects. Most
// fields are fixed flags the endpoint requires to be present.
type chatRequest struct {
	Messages          []chatMessage `json:"messages"`
	ID                string        `json:"id"`
	PreviewToken      string        `json:"previewToken"`
	UserID            *string       `json:"userId"`
	CodeModelMode     bool          `json:"codeModelMode"`
	AgentMode         struct{}      `json:"agentMode"`
	TrendingAgentMode struct{}      `json:"trendingAgentMode"`
	IsMicMode         bool          `json:"isMicMode"`
	UserSystemPrompt  *string       `json:"userSystemPrompt"`
	MaxTokens         int           `json:"maxTokens"`
	IsChromeExt       bool          `json:"isChromeExt"`
	MobileClient      bool          `json:"mobileClient"`
	Validated         string        `json:"validated"`
}
