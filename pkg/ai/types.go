package ai

import "context"

// IntentRequest carries a free-text question and the dataset columns it may refer to.
type IntentRequest struct {
	Query   string
	Columns []string
}

// IntentResponse is the raw structured answer produced by a language model.
// Content is expected to hold a JSON object but is not guaranteed to.
type IntentResponse struct {
	Content string                 `json:"content"`
	Model   string                 `json:"model"`
	Raw     map[string]interface{} `json:"raw,omitempty"`
}

// IntentParser describes a language model capable of turning questions into query intents.
type IntentParser interface {
	ParseIntent(ctx context.Context, req IntentRequest) (IntentResponse, error)
}
