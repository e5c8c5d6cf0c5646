package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		role Role
	}{
		{"system", NewSystemMessage("follow the rules"), RoleSystem},
		{"user", NewUserMessage("book a flight"), RoleUser},
		{"assistant", NewAssistantMessage("done"), RoleAssistant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.role, tt.msg.Role)
			assert.NoError(t, tt.msg.Validate())
		})
	}
}

func TestMessageValidate(t *testing.T) {
	assert.Error(t, Message{Role: "narrator", Content: "x"}.Validate())
	assert.Error(t, NewUserMessage("").Validate())
}

func TestRoleUnmarshalRejectsUnknown(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"role": "assistant", "content": "ok"}`), &m))
	assert.Equal(t, RoleAssistant, m.Role)

	err := json.Unmarshal([]byte(`{"role": "narrator", "content": "x"}`), &m)
	assert.Error(t, err)
}

func TestCompletionRequestValidate(t *testing.T) {
	valid := CompletionRequest{
		Messages: []Message{
			NewSystemMessage("instructions"),
			NewUserMessage("question"),
			NewAssistantMessage("partial answer"),
		},
		Temperature: 0.2,
	}
	require.NoError(t, valid.Validate())

	assert.Error(t, CompletionRequest{}.Validate())
	assert.Error(t, CompletionRequest{
		Messages:    []Message{NewUserMessage("q")},
		Temperature: 1.5,
	}.Validate())
	assert.Error(t, CompletionRequest{
		Messages: []Message{NewUserMessage("")},
	}.Validate())
}
