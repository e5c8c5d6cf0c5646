package providers

import (
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/praxos/cortex/internal/config"
	"github.com/praxos/cortex/internal/llm"
	"github.com/praxos/cortex/internal/types"
)

// New creates a completion provider from configuration.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropic(cfg)
	case "openai":
		return NewOpenAI(cfg)
	case "ollama":
		return NewOllama(cfg)
	case "mock":
		return NewMock(), nil
	default:
		return nil, types.NewError(llm.ErrCodeUnknownProvider,
			fmt.Sprintf("unknown provider type: %s", cfg.Provider))
	}
}

// NewAnthropic creates a provider backed by Anthropic's Claude models.
func NewAnthropic(cfg config.LLMConfig) (llm.Provider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, llm.NewAuthError("anthropic")
	}

	opts := []anthropic.Option{anthropic.WithToken(apiKey)}
	if cfg.Model != "" {
		opts = append(opts, anthropic.WithModel(cfg.Model))
	}

	client, err := anthropic.New(opts...)
	if err != nil {
		return nil, llm.TranslateError("anthropic", err)
	}
	return &langchainProvider{name: "anthropic", model: cfg.Model, client: client}, nil
}

// NewOpenAI creates a provider backed by OpenAI models.
func NewOpenAI(cfg config.LLMConfig) (llm.Provider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, llm.NewAuthError("openai")
	}

	opts := []openai.Option{openai.WithToken(apiKey)}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, llm.TranslateError("openai", err)
	}
	return &langchainProvider{name: "openai", model: cfg.Model, client: client}, nil
}

// NewOllama creates a provider backed by a local ollama server.
func NewOllama(cfg config.LLMConfig) (llm.Provider, error) {
	opts := []ollama.Option{}
	if cfg.Model != "" {
		opts = append(opts, ollama.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}

	client, err := ollama.New(opts...)
	if err != nil {
		return nil, llm.TranslateError("ollama", err)
	}
	return &langchainProvider{name: "ollama", model: cfg.Model, client: client}, nil
}
