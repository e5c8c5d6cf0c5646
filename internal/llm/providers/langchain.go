package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/praxos/cortex/internal/llm"
	"github.com/praxos/cortex/internal/types"
)

// langchainProvider adapts a langchaingo model to the llm.Provider contract.
// The vendor-specific constructors below differ only in client setup.
type langchainProvider struct {
	name   string
	model  string
	client llms.Model
}

// Name returns the provider name.
func (p *langchainProvider) Name() string {
	return p.name
}

// Complete sends a blocking completion request.
func (p *langchainProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, types.WrapError(llm.ErrCodeCompletionFailed, "invalid completion request", err)
	}

	resp, err := p.client.GenerateContent(ctx, toMessageContent(req), p.callOptions(req)...)
	if err != nil {
		return nil, llm.TranslateError(p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewCompletionError(p.name, fmt.Errorf("empty response"))
	}

	choice := resp.Choices[0]
	return &llm.CompletionResponse{
		Model:   p.model,
		Content: choice.Content,
		Usage:   usageFromGenerationInfo(choice.GenerationInfo),
	}, nil
}

// Stream emits partial chunks followed by a final assembled response.
func (p *langchainProvider) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	if err := req.Validate(); err != nil {
		return nil, types.WrapError(llm.ErrCodeCompletionFailed, "invalid completion request", err)
	}

	out := make(chan llm.StreamChunk)

	go func() {
		defer close(out)

		var assembled []byte
		opts := append(p.callOptions(req), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			assembled = append(assembled, chunk...)
			select {
			case out <- llm.StreamChunk{Content: string(chunk)}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}))

		resp, err := p.client.GenerateContent(ctx, toMessageContent(req), opts...)
		if err != nil {
			out <- llm.StreamChunk{Err: llm.TranslateError(p.name, err)}
			return
		}

		final := &llm.CompletionResponse{Model: p.model, Content: string(assembled)}
		if len(resp.Choices) > 0 {
			if final.Content == "" {
				final.Content = resp.Choices[0].Content
			}
			final.Usage = usageFromGenerationInfo(resp.Choices[0].GenerationInfo)
		}
		out <- llm.StreamChunk{Done: true, Final: final}
	}()

	return out, nil
}

// Health performs a minimal one-token completion to verify connectivity.
func (p *langchainProvider) Health(ctx context.Context) types.HealthStatus {
	_, err := p.client.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(schema.ChatMessageTypeHuman, "ping")},
		llms.WithMaxTokens(1),
	)
	if err != nil {
		return types.Unhealthy(fmt.Sprintf("%s provider unreachable: %v", p.name, err))
	}
	return types.Healthy(fmt.Sprintf("%s provider operational (model: %s)", p.name, p.model))
}

func (p *langchainProvider) callOptions(req llm.CompletionRequest) []llms.CallOption {
	opts := []llms.CallOption{}
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.ResponseSchema != nil {
		opts = append(opts, llms.WithJSONMode())
	}
	return opts
}

// toMessageContent converts cortex messages to langchaingo message content.
// When a response schema is declared it is appended to the system
// instruction so providers without native structured output still see it.
func toMessageContent(req llm.CompletionRequest) []llms.MessageContent {
	schemaSuffix := ""
	if req.ResponseSchema != nil {
		if data, err := json.MarshalIndent(req.ResponseSchema, "", "  "); err == nil {
			schemaSuffix = "\n\nRespond with a single JSON object matching this schema:\n" + string(data)
		}
	}

	msgs := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := schema.ChatMessageTypeHuman
		content := m.Content
		switch m.Role {
		case llm.RoleSystem:
			role = schema.ChatMessageTypeSystem
			if schemaSuffix != "" {
				content += schemaSuffix
				schemaSuffix = ""
			}
		case llm.RoleAssistant:
			role = schema.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, content))
	}

	// No system message to attach the schema to; prepend one.
	if schemaSuffix != "" {
		msgs = append([]llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, schemaSuffix),
		}, msgs...)
	}

	return msgs
}

// usageFromGenerationInfo pulls token counts out of the backend-specific
// generation info map. Absent keys report zero.
func usageFromGenerationInfo(info map[string]any) llm.TokenUsage {
	usage := llm.TokenUsage{
		PromptTokens:     intFromInfo(info, "PromptTokens", "input_tokens"),
		CompletionTokens: intFromInfo(info, "CompletionTokens", "output_tokens"),
		TotalTokens:      intFromInfo(info, "TotalTokens", "total_tokens"),
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return usage
}

func intFromInfo(info map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := info[key].(type) {
		case int:
			return v
		case float64:
			return int(v)
		}
	}
	return 0
}
