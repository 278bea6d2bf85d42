// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/artdrop/internal/logging"
	"github.com/jeranaias/artdrop/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete artdrop configuration.
type Config struct {
	// Catalog assistant and its generative fallback
	Assistant AssistantConfig `toml:"assistant" json:"assistant"`

	// Where the catalog comes from
	Catalog CatalogConfig `toml:"catalog" json:"catalog"`

	// Chain and wallet used for claim requests
	Chain ChainConfig `toml:"chain" json:"chain"`

	// HTTP API
	Server ServerConfig `toml:"server" json:"server"`

	// Claim ledger
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Logging
	Log LogConfig `toml:"log" json:"log"`
}

// AssistantConfig configures the external answer fallback.
// An empty APIKey disables the fallback entirely.
type AssistantConfig struct {
	Provider        string  `toml:"provider" json:"provider"`
	APIKey          string  `toml:"api_key" json:"api_key"`
	Model           string  `toml:"model" json:"model"`
	BaseURL         string  `toml:"base_url" json:"base_url"`
	Temperature     float64 `toml:"temperature" json:"temperature"`
	TopK            float64 `toml:"top_k" json:"top_k"`
	TopP            float64 `toml:"top_p" json:"top_p"`
	MaxOutputTokens int     `toml:"max_output_tokens" json:"max_output_tokens"`
	TimeoutSecs     int     `toml:"timeout_secs" json:"timeout_secs"`

	// HistoryTurns is how many prior chat messages are sent along with the
	// persona preamble. Zero sends only the preamble and the new input.
	HistoryTurns int `toml:"history_turns" json:"history_turns"`

	// Greeting replaces the built-in greeting seeded into every new session.
	Greeting string `toml:"greeting" json:"greeting"`
}

// CatalogConfig locates the catalog file. An empty Path uses the built-in
// collection.
type CatalogConfig struct {
	Path  string `toml:"path" json:"path"`
	Watch bool   `toml:"watch" json:"watch"`
}

// ChainConfig describes where claim requests are meant to land.
type ChainConfig struct {
	Name   string `toml:"name" json:"name"`
	Wallet string `toml:"wallet" json:"wallet"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host                   string   `toml:"host" json:"host"`
	Port                   int      `toml:"port" json:"port"`
	RateLimit              float64  `toml:"rate_limit" json:"rate_limit"` // requests per second per client, 0 disables
	RateBurst              int      `toml:"rate_burst" json:"rate_burst"`
	CORSOrigins            []string `toml:"cors_origins" json:"cors_origins"`
	SessionIdleTimeoutMins int      `toml:"session_idle_timeout_mins" json:"session_idle_timeout_mins"`
}

// StorageConfig configures the claim ledger.
type StorageConfig struct {
	LedgerPath string `toml:"ledger_path" json:"ledger_path"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `toml:"level" json:"level"`
	Development bool   `toml:"development" json:"development"`
	File        string `toml:"file" json:"file"`
}

// Supported fallback providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Default model per provider, used when assistant.model is empty.
const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Assistant: AssistantConfig{
			Provider:        ProviderGemini,
			Temperature:     0.7,
			TopK:            1,
			TopP:            1,
			MaxOutputTokens: 2048,
			TimeoutSecs:     30,
			HistoryTurns:    0,
		},

		Catalog: CatalogConfig{
			Watch: true,
		},

		Chain: ChainConfig{
			Name: "polygon",
		},

		Server: ServerConfig{
			Host:                   "127.0.0.1",
			Port:                   8787,
			RateLimit:              5,
			RateBurst:              10,
			SessionIdleTimeoutMins: 30,
		},

		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// ModelName returns the configured model, or the provider's default.
func (a AssistantConfig) ModelName() string {
	if a.Model != "" {
		return a.Model
	}
	if strings.EqualFold(a.Provider, ProviderOpenAI) {
		return DefaultOpenAIModel
	}
	return DefaultGeminiModel
}

// Timeout returns the fallback call deadline.
func (a AssistantConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// Enabled reports whether a fallback credential is configured.
func (a AssistantConfig) Enabled() bool {
	return strings.TrimSpace(a.APIKey) != ""
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IdleTimeout returns how long an untouched HTTP session survives.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.SessionIdleTimeoutMins) * time.Minute
}

// ResolveLedgerPath returns the ledger path, defaulting to claims.db in the
// config directory.
func (s StorageConfig) ResolveLedgerPath() (string, error) {
	if s.LedgerPath != "" {
		return s.LedgerPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "claims.db"), nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the artdrop configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".artdrop"), nil
}

// ExportDir returns the directory chat transcripts are exported to.
func ExportDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "exports"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load builds the effective configuration.
//
// A .env file in the working directory is read first without overriding the
// existing environment. When path is empty, ~/.artdrop/config.toml is tried,
// then config.json, then built-in defaults. Environment overrides are applied
// last and the result is validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else {
		for _, candidate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
			p, err := candidate()
			if err != nil {
				continue
			}
			if _, statErr := os.Stat(p); statErr != nil {
				continue
			}
			if err := loadFile(cfg, p); err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", p, err)
			}
			break
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(cfg, path)
	}
	return LoadTOML(cfg, path)
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg as TOML. Config files hold API keys, so they are written
// 0600.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# artdrop configuration file\n")
	buf.WriteString("# Environment variables (ARTDROP_*) take precedence over this file.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and returns all problems at once as
// ValidateErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Assistant
	switch strings.ToLower(c.Assistant.Provider) {
	case ProviderGemini, ProviderOpenAI:
	default:
		add("assistant.provider", "invalid provider '%s', must be one of: gemini, openai", c.Assistant.Provider)
	}
	if c.Assistant.Temperature < 0 || c.Assistant.Temperature > 2 {
		add("assistant.temperature", "must be between 0 and 2, got %g", c.Assistant.Temperature)
	}
	if c.Assistant.TopP < 0 || c.Assistant.TopP > 1 {
		add("assistant.top_p", "must be between 0 and 1, got %g", c.Assistant.TopP)
	}
	if c.Assistant.TopK < 0 {
		add("assistant.top_k", "cannot be negative")
	}
	if c.Assistant.MaxOutputTokens <= 0 {
		add("assistant.max_output_tokens", "must be positive")
	}
	if c.Assistant.TimeoutSecs <= 0 {
		add("assistant.timeout_secs", "must be positive")
	}
	if c.Assistant.HistoryTurns < 0 {
		add("assistant.history_turns", "cannot be negative")
	}

	// Chain
	if strings.TrimSpace(c.Chain.Name) == "" {
		add("chain.name", "cannot be empty")
	}
	if c.Chain.Wallet != "" && !util.IsAddress(c.Chain.Wallet) {
		add("chain.wallet", "'%s' is not a 0x address", c.Chain.Wallet)
	}

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		add("server.rate_limit", "cannot be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		add("server.rate_burst", "must be at least 1 when rate_limit is set")
	}
	if c.Server.SessionIdleTimeoutMins <= 0 {
		add("server.session_idle_timeout_mins", "must be positive")
	}

	// Log
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "%v", err)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that would otherwise fail validation, and
// normalizes casing.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Assistant.Provider == "" {
		c.Assistant.Provider = defaults.Assistant.Provider
	}
	c.Assistant.Provider = strings.ToLower(c.Assistant.Provider)
	if c.Assistant.MaxOutputTokens == 0 {
		c.Assistant.MaxOutputTokens = defaults.Assistant.MaxOutputTokens
	}
	if c.Assistant.TimeoutSecs == 0 {
		c.Assistant.TimeoutSecs = defaults.Assistant.TimeoutSecs
	}
	if c.Chain.Name == "" {
		c.Chain.Name = defaults.Chain.Name
	}
	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.SessionIdleTimeoutMins == 0 {
		c.Server.SessionIdleTimeoutMins = defaults.Server.SessionIdleTimeoutMins
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// apiKeyVars are checked in order; the first non-empty one wins.
var apiKeyVars = []string{"ARTDROP_API_KEY", "GOOGLE_AI_API_KEY", "VITE_GOOGLE_AI_API_KEY"}

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - ARTDROP_API_KEY, GOOGLE_AI_API_KEY, VITE_GOOGLE_AI_API_KEY: assistant.api_key
//   - ARTDROP_PROVIDER: assistant.provider
//   - ARTDROP_MODEL: assistant.model
//   - ARTDROP_CATALOG: catalog.path
//   - ARTDROP_WALLET: chain.wallet
//   - ARTDROP_PORT: server.port (ignored unless numeric)
//   - ARTDROP_LEDGER: storage.ledger_path
//   - ARTDROP_LOG_LEVEL: log.level
func (c *Config) ApplyEnvOverrides() {
	for _, name := range apiKeyVars {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			c.Assistant.APIKey = key
			break
		}
	}

	if provider := os.Getenv("ARTDROP_PROVIDER"); provider != "" {
		c.Assistant.Provider = provider
	}

	if model := os.Getenv("ARTDROP_MODEL"); model != "" {
		c.Assistant.Model = model
	}

	if path := os.Getenv("ARTDROP_CATALOG"); path != "" {
		c.Catalog.Path = path
	}

	if wallet := os.Getenv("ARTDROP_WALLET"); wallet != "" {
		c.Chain.Wallet = wallet
	}

	if port := os.Getenv("ARTDROP_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Server.Port = n
		}
	}

	if ledger := os.Getenv("ARTDROP_LEDGER"); ledger != "" {
		c.Storage.LedgerPath = ledger
	}

	if level := os.Getenv("ARTDROP_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// UTILITY
// =============================================================================

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	}
	return &out
}

// Redacted returns a copy that is safe to print, with the API key masked.
func (c *Config) Redacted() *Config {
	out := c.Clone()
	if key := out.Assistant.APIKey; key != "" {
		if len(key) > 8 {
			out.Assistant.APIKey = key[:4] + "..." + key[len(key)-4:]
		} else {
			out.Assistant.APIKey = "****"
		}
	}
	return out
}

// String renders the redacted config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c.Redacted()); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}
