package config

// Config is the root configuration for the cortex runtime.
type Config struct {
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Embedder    EmbedderConfig    `yaml:"embedder" mapstructure:"embedder"`
	Coordinator CoordinatorConfig `yaml:"coordinator" mapstructure:"coordinator"`
	Specialist  SpecialistConfig  `yaml:"specialist" mapstructure:"specialist"`
}

// StorageConfig configures the durable stores.
type StorageConfig struct {
	// RootDir is the base directory for all persisted state. Workspace
	// documents live under <root>/workspaces, sqlite databases directly
	// under <root>.
	RootDir string `yaml:"root_dir" mapstructure:"root_dir"`

	// KnowledgeDB is the sqlite database file for knowledge entries,
	// relative to RootDir unless absolute.
	KnowledgeDB string `yaml:"knowledge_db" mapstructure:"knowledge_db"`

	// IndexDB is the sqlite database file for the similarity index,
	// relative to RootDir unless absolute.
	IndexDB string `yaml:"index_db" mapstructure:"index_db"`
}

// LLMConfig configures the completion service provider.
type LLMConfig struct {
	// Provider selects the completion backend: "anthropic", "openai",
	// "ollama", or "mock".
	Provider string `yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier passed to the provider.
	Model string `yaml:"model" mapstructure:"model"`

	// APIKey authenticates with the provider. Supports ${ENV_VAR}
	// interpolation; falls back to the provider's conventional
	// environment variable when empty.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (ollama, proxies).
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// TimeoutSeconds bounds a single completion call.
	TimeoutSeconds int `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// EmbedderConfig configures embedding generation for the similarity index.
type EmbedderConfig struct {
	// Provider selects the embedding backend: "openai", "ollama", or
	// "hash" (deterministic, for tests and offline development).
	Provider string `yaml:"provider" mapstructure:"provider"`

	// Model is the embedding model identifier.
	Model string `yaml:"model" mapstructure:"model"`

	// Dims is the embedding dimensionality the index is built for.
	Dims int `yaml:"dims" mapstructure:"dims"`
}

// CoordinatorConfig configures the coordination loop.
type CoordinatorConfig struct {
	// MaxTurns bounds the number of stage transitions in one Advance
	// call before the coordinator gives up with a blocked decision.
	MaxTurns int `yaml:"max_turns" mapstructure:"max_turns"`

	// RetrievalLimit caps similarity search results per stage.
	RetrievalLimit int `yaml:"retrieval_limit" mapstructure:"retrieval_limit"`
}

// SpecialistConfig configures the specialist task harness.
type SpecialistConfig struct {
	// MaxRetries is the number of attempts for schema violations before
	// a specialist failure is surfaced.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`

	// BackoffMillis is the linear backoff unit between retries.
	BackoffMillis int `yaml:"backoff_millis" mapstructure:"backoff_millis"`
}
