package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/carelane/previsit/internal/llm"
	"github.com/carelane/previsit/internal/store"
)

type SpeechConfig struct {
	Language string  `toml:"language"` // default language hint, e.g. "en"
	Voice    string  `toml:"voice"`    // TTS voice id, e.g. "alloy"
	Speed    float64 `toml:"speed"`
}

type GraphConfig struct {
	Enabled  bool   `toml:"enabled"`
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// PromptsConfig overrides the built-in prompt templates. Empty fields
// fall back to the defaults compiled into each consumer package.
type PromptsConfig struct {
	Conversation    string `toml:"conversation"`
	Report          string `toml:"report"`
	Explain         string `toml:"explain"`
	GraphExtraction string `toml:"graph_extraction"`
	NodeSummary     string `toml:"node_summary"`
}

type Config struct {
	LLM     llm.Config    `toml:"llm"`
	Speech  SpeechConfig  `toml:"speech"`
	Graph   GraphConfig   `toml:"graph"`
	Store   store.Config  `toml:"store"`
	Prompts PromptsConfig `toml:"prompts"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a usable config when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.Speech.Language == "" {
		c.Speech.Language = "en"
	}
	if c.Speech.Voice == "" {
		c.Speech.Voice = "alloy"
	}
	if c.Speech.Speed == 0 {
		c.Speech.Speed = 1.0
	}
}

// ApplyEnv overrides file-based settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("NEO4J_URI"); v != "" {
		c.Graph.Enabled = true
		c.Graph.URI = v
	}
	if v := os.Getenv("NEO4J_USER"); v != "" {
		c.Graph.User = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		c.Graph.Password = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		c.Store.Path = v
	}
}
