package config

// DefaultConfig returns the configuration used when no config file is
// present. The mock/hash backends keep a fresh checkout functional without
// credentials.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			RootDir:     "~/.cortex",
			KnowledgeDB: "knowledge.db",
			IndexDB:     "index.db",
		},
		LLM: LLMConfig{
			Provider:       "anthropic",
			Model:          "claude-sonnet-4-20250514",
			TimeoutSeconds: 60,
		},
		Embedder: EmbedderConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
			Dims:     1536,
		},
		Coordinator: CoordinatorConfig{
			MaxTurns:       8,
			RetrievalLimit: 5,
		},
		Specialist: SpecialistConfig{
			MaxRetries:    3,
			BackoffMillis: 250,
		},
	}
}
