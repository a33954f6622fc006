// Package config loads the service and runner configuration from YAML
// with environment-variable overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/thc1006/tmf921-intent-bridge/pkg/logging"
	"github.com/thc1006/tmf921-intent-bridge/pkg/rag"
)

// Config is the root configuration document.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Logging logging.Config `yaml:"logging"`
	LLM     LLMConfig      `yaml:"llm"`
	RAG     rag.Config     `yaml:"rag"`
	GST     GSTConfig      `yaml:"gst"`
	Output  OutputConfig   `yaml:"output"`
	ICM     ICMConfig      `yaml:"icm"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LLMConfig holds the Ollama connection and decoding settings.
type LLMConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	MaxRetries  int     `yaml:"max_retries"`
}

// GSTConfig points at an optional catalog override file. When Path is
// empty the embedded catalog is used.
type GSTConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig controls where batch artifacts land.
type OutputConfig struct {
	Dir                string `yaml:"dir"`
	CheckpointInterval int    `yaml:"checkpoint_interval"`
}

// ICMConfig controls the Simple to ICM export pass.
type ICMConfig struct {
	Export       bool   `yaml:"export"`
	ResourceType string `yaml:"resource_type"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Logging: logging.Config{
			Level:   "info",
			Format:  "json",
			Service: "tmf921-intent-bridge",
		},
		LLM: LLMConfig{
			Endpoint:    "http://localhost:11434",
			Model:       "mistral:7b",
			Temperature: 0.2,
			MaxTokens:   2048,
			MaxRetries:  3,
		},
		RAG: rag.Config{
			Backend:      "lexical",
			TopK:         5,
			CacheEnabled: false,
			Cache: rag.CacheConfig{
				Address: "localhost:6379",
				TTL:     time.Hour,
			},
			Weaviate: rag.WeaviateConfig{
				Host:   "localhost:8080",
				Scheme: "http",
			},
		},
		Output: OutputConfig{
			Dir:                "results",
			CheckpointInterval: 10,
		},
		ICM: ICMConfig{
			Export:       true,
			ResourceType: "NetworkSlice",
		},
	}
}

// Load reads an optional YAML file over the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Address = getEnvOrDefault("BRIDGE_LISTEN_ADDR", c.Server.Address)
	c.Logging.Level = getEnvOrDefault("BRIDGE_LOG_LEVEL", c.Logging.Level)
	c.LLM.Endpoint = getEnvOrDefault("BRIDGE_OLLAMA_ENDPOINT", c.LLM.Endpoint)
	c.LLM.Model = getEnvOrDefault("BRIDGE_OLLAMA_MODEL", c.LLM.Model)
	c.RAG.Backend = getEnvOrDefault("BRIDGE_RAG_BACKEND", c.RAG.Backend)
	c.RAG.Weaviate.Host = getEnvOrDefault("BRIDGE_WEAVIATE_HOST", c.RAG.Weaviate.Host)
	c.RAG.Cache.Address = getEnvOrDefault("BRIDGE_REDIS_ADDR", c.RAG.Cache.Address)
	c.RAG.CacheEnabled = getEnvBool("BRIDGE_RAG_CACHE", c.RAG.CacheEnabled)
	c.Output.Dir = getEnvOrDefault("BRIDGE_OUTPUT_DIR", c.Output.Dir)
	c.ICM.Export = getEnvBool("BRIDGE_ICM_EXPORT", c.ICM.Export)
}

func (c *Config) validate() error {
	switch c.RAG.Backend {
	case "", "lexical", "weaviate":
	default:
		return fmt.Errorf("unknown rag backend %q", c.RAG.Backend)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.Output.CheckpointInterval <= 0 {
		return fmt.Errorf("checkpoint interval must be positive, got %d", c.Output.CheckpointInterval)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
