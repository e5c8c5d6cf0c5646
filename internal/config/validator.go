package config

import (
	"fmt"

	"github.com/praxos/cortex/internal/types"
)

// Validate checks a loaded configuration for inconsistencies that would
// surface as confusing runtime failures.
func Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "config is nil")
	}

	if cfg.Storage.RootDir == "" {
		return invalid("storage.root_dir cannot be empty")
	}
	if cfg.Storage.KnowledgeDB == "" {
		return invalid("storage.knowledge_db cannot be empty")
	}
	if cfg.Storage.IndexDB == "" {
		return invalid("storage.index_db cannot be empty")
	}

	switch cfg.LLM.Provider {
	case "anthropic", "openai", "ollama", "mock":
	default:
		return invalid(fmt.Sprintf("unknown llm.provider %q", cfg.LLM.Provider))
	}
	if cfg.LLM.TimeoutSeconds < 0 {
		return invalid("llm.timeout_seconds must be non-negative")
	}

	switch cfg.Embedder.Provider {
	case "openai", "ollama", "hash":
	default:
		return invalid(fmt.Sprintf("unknown embedder.provider %q", cfg.Embedder.Provider))
	}
	if cfg.Embedder.Dims <= 0 {
		return invalid("embedder.dims must be positive")
	}

	if cfg.Coordinator.MaxTurns <= 0 {
		return invalid("coordinator.max_turns must be positive")
	}
	if cfg.Coordinator.RetrievalLimit <= 0 {
		return invalid("coordinator.retrieval_limit must be positive")
	}

	if cfg.Specialist.MaxRetries < 0 {
		return invalid("specialist.max_retries must be non-negative")
	}
	if cfg.Specialist.BackoffMillis < 0 {
		return invalid("specialist.backoff_millis must be non-negative")
	}

	return nil
}

func invalid(msg string) error {
	return types.NewError(types.CONFIG_VALIDATION_FAILED, msg)
}
