package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"enhanced-search/internal/models"
)

type Config struct {
	EmbedLLM  LLMConfig       `yaml:"embed_llm"`
	Search    SearchConfig    `yaml:"search"`
	Highlight HighlightConfig `yaml:"highlight"`
	Log       LogConfig       `yaml:"log"`
}

// LLMConfig describes the embedding capability
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai, openai-direct, ollama, hash
	BaseURL   string `yaml:"base_url"`
	Key       string `yaml:"key"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

type SearchConfig struct {
	Mode         models.SearchMode `yaml:"mode"`
	ChunkSize    int               `yaml:"chunk_size"` // words per chunk
	TopK         int               `yaml:"top_k"`
	Threshold    models.Threshold  `yaml:"threshold"`
	Debounce     time.Duration     `yaml:"debounce"`
	LiteralRegex bool              `yaml:"literal_regex"` // treat literal queries as raw regular expressions
}

type HighlightConfig struct {
	Sink    string        `yaml:"sink"` // websocket, log, terminal
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	defaultProvider         = "hash"
	defaultDimension        = 256
	defaultHighlightSink    = "terminal"
	defaultHighlightTimeout = 2 * time.Second
	defaultLogLevel         = "info"
)

// LoadConfig reads a YAML config file. Values of the form ${VAR} are expanded
// from the environment, which is first populated from a .env file if present.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML and fills defaults for unset values
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a config that runs fully offline
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

func (c *Config) ApplyDefaults() {
	if c.EmbedLLM.Provider == "" {
		c.EmbedLLM.Provider = defaultProvider
	}
	if c.EmbedLLM.Dimension <= 0 {
		c.EmbedLLM.Dimension = defaultDimension
	}
	if c.Search.Mode == "" {
		c.Search.Mode = models.ModeSemantic
	}
	if c.Search.ChunkSize <= 0 {
		c.Search.ChunkSize = models.DefaultChunkSize
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = models.DefaultTopK
	}
	if c.Search.Debounce <= 0 {
		c.Search.Debounce = models.DefaultDebounce
	}
	if c.Highlight.Sink == "" {
		c.Highlight.Sink = defaultHighlightSink
	}
	if c.Highlight.Timeout <= 0 {
		c.Highlight.Timeout = defaultHighlightTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
}

func (c *Config) Validate() error {
	switch c.EmbedLLM.Provider {
	case "hash":
	case "openai", "openai-direct", "ollama":
		if c.EmbedLLM.Model == "" {
			return fmt.Errorf("embed_llm.model is required for provider %s", c.EmbedLLM.Provider)
		}
	default:
		return fmt.Errorf("unsupported embed_llm.provider: %s", c.EmbedLLM.Provider)
	}
	if c.Search.Mode != models.ModeSemantic && c.Search.Mode != models.ModeLiteral {
		return fmt.Errorf("unsupported search.mode: %s", c.Search.Mode)
	}
	if !c.Search.Threshold.Valid() {
		return fmt.Errorf("search.threshold must be one of %v", models.Thresholds)
	}
	switch c.Highlight.Sink {
	case "log", "terminal":
	case "websocket":
		if c.Highlight.URL == "" {
			return fmt.Errorf("highlight.url is required for the websocket sink")
		}
	default:
		return fmt.Errorf("unsupported highlight.sink: %s", c.Highlight.Sink)
	}
	return nil
}
