package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "memo-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the AI model identifier (e.g. "gpt-4-turbo-preview").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint (e.g. for Azure-compatible gateways).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ResearchConfig holds settings for the web-research gathering stage.
type ResearchConfig struct {
	AIConfig `yaml:",inline"`
}

// EmbeddingConfig holds settings for the embedding stage.
type EmbeddingConfig struct {
	AIConfig `yaml:",inline"`

	// Dimensions is the embedding vector length (default 1536).
	Dimensions int `json:"dimensions" yaml:"dimensions"`

	// BatchSize is the maximum number of texts per embedding call (default 100).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// GenerationConfig holds settings for the memo generation stage.
type GenerationConfig struct {
	AIConfig `yaml:",inline"`

	// TopK is the number of chunks retrieved per section (default 8).
	TopK int `json:"top_k" yaml:"top_k"`

	// PromptsFile optionally overrides the embedded section prompt catalog.
	PromptsFile string `json:"prompts_file,omitempty" yaml:"prompts_file,omitempty"`

	// OutputDir is the directory for compiled memos (e.g. "output/memos/").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// StoreConfig holds settings for the persistence layer.
type StoreConfig struct {
	// DataDir is the base directory for persistent data (contains memo.db).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Research   ResearchConfig   `json:"research" yaml:"research"`
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}
