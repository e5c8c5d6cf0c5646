package llm

import (
	"encoding/json"
	"fmt"
)

// Role represents the role of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Role) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	role := Role(str)
	if !role.IsValid() {
		return fmt.Errorf("invalid role: %s", str)
	}
	*r = role
	return nil
}

// Message represents a single message in a conversation with the completion
// service.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Validate checks if the message is valid.
func (m Message) Validate() error {
	if !m.Role.IsValid() {
		return fmt.Errorf("invalid role: %s", m.Role)
	}
	if m.Content == "" {
		return fmt.Errorf("message content cannot be empty")
	}
	return nil
}

// CompletionRequest describes one completion call.
type CompletionRequest struct {
	// Messages is the conversation so far, system instruction first.
	Messages []Message `json:"messages"`

	// Temperature controls sampling randomness (0.0-1.0).
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens bounds the generated output length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// ResponseSchema, when set, declares the JSON shape the caller
	// expects. Providers that support native structured output should
	// honor it; others receive it rendered into the prompt.
	ResponseSchema map[string]any `json:"response_schema,omitempty"`
}

// Validate checks if the request is well formed.
func (r CompletionRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("completion request requires at least one message")
	}
	for i, m := range r.Messages {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	if r.Temperature < 0 || r.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0.0 and 1.0, got %f", r.Temperature)
	}
	return nil
}

// TokenUsage reports token consumption for one completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the full (non-streaming) result of one completion.
type CompletionResponse struct {
	Model   string     `json:"model"`
	Content string     `json:"content"`
	Usage   TokenUsage `json:"usage"`
}

// StreamChunk is one increment of a streamed completion. Streaming exists
// for presentation layers; orchestration always consumes Complete.
type StreamChunk struct {
	// Content is the partial text for this chunk.
	Content string `json:"content,omitempty"`

	// Done marks the final chunk. Final contains the assembled response.
	Done  bool                `json:"done,omitempty"`
	Final *CompletionResponse `json:"final,omitempty"`

	// Err carries a mid-stream failure; the channel closes after it.
	Err error `json:"-"`
}
