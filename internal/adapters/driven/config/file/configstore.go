package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/contracta-cli/internal/chunker"
	"github.com/custodia-labs/contracta-cli/internal/core/services"
)

// Config is the typed on-disk configuration.
// Zero or missing values fall back to the documented defaults when the
// services are constructed.
type Config struct {
	// Owner identifies the local user; it partitions documents, caches
	// and conversation memory.
	Owner string `toml:"owner"`

	// DataDir overrides the SQLite data directory
	// (default: ~/.contracta/data).
	DataDir string `toml:"data_dir,omitempty"`

	OpenAI    OpenAIConfig    `toml:"openai"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Answer    AnswerConfig    `toml:"answer"`
	Memory    MemoryConfig    `toml:"memory"`
}

// OpenAIConfig configures the provider adapters. Empty model and URL
// values use the adapter defaults.
type OpenAIConfig struct {
	// APIKey authenticates against the API. The OPENAI_API_KEY
	// environment variable takes precedence when set.
	APIKey string `toml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint, e.g. for Azure OpenAI.
	BaseURL string `toml:"base_url,omitempty"`

	// EmbeddingModel and LLMModel select the models.
	EmbeddingModel string `toml:"embedding_model,omitempty"`
	LLMModel       string `toml:"llm_model,omitempty"`
}

// ChunkingConfig controls document splitting.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// RetrievalConfig controls context retrieval and index building.
type RetrievalConfig struct {
	TopK             int     `toml:"top_k"`
	MinScore         float64 `toml:"min_score"`
	EmbedBatchSize   int     `toml:"embed_batch_size"`
	EmbedConcurrency int     `toml:"embed_concurrency"`
}

// AnswerConfig controls answer generation.
type AnswerConfig struct {
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// MemoryConfig controls conversation memory.
type MemoryConfig struct {
	// Window is the number of recent turns retained per session.
	Window int `toml:"window"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() Config {
	return Config{
		Owner: "default",
		Chunking: ChunkingConfig{
			Size:    chunker.DefaultChunkSize,
			Overlap: chunker.DefaultChunkOverlap,
		},
		Retrieval: RetrievalConfig{
			TopK:             services.DefaultTopK,
			MinScore:         services.DefaultMinScore,
			EmbedBatchSize:   services.DefaultEmbedBatchSize,
			EmbedConcurrency: services.DefaultEmbedConcurrency,
		},
		Answer: AnswerConfig{
			MaxTokens:   services.DefaultMaxAnswerTokens,
			Temperature: services.DefaultTemperature,
		},
		Memory: MemoryConfig{
			Window: services.DefaultMemoryWindow,
		},
	}
}

// APIKey resolves the effective API key: the OPENAI_API_KEY environment
// variable when set, otherwise the configured value.
func (c *Config) APIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return c.OpenAI.APIKey
}

// ConfigStore is a file-based configuration store using TOML.
// Configuration is stored in a TOML file within the contracta config
// directory.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	cfg      Config
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.contracta/config.toml.
// A missing file yields the defaults; nothing is written until Update
// or Save is called.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".contracta")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		cfg:      DefaultConfig(),
	}

	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Config returns a copy of the current configuration.
func (s *ConfigStore) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update applies fn to the configuration and persists the result.
func (s *ConfigStore) Update(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.cfg)
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Write with restricted permissions; the file may hold an API key
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file. Values present in the
// file override the defaults; absent values keep them.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet - that's fine, keep defaults
			return nil
		}
		return err
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}
	s.cfg = cfg
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
