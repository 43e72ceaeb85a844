// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (NOMADGRID_ prefix, plus GEMINI_API_KEY)
//  2. Config file (~/.nomadgrid/config.yaml or ./config.yaml)
//  3. Default values
//
// Sensitive values (the Gemini API key) are never written to the config file
// and are masked in String()/MarshalJSON() output.
//
// Error handling uses sentinel errors so callers can check with errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Model defaults. The text model streams section HTML, the chat model backs
// the assistant, and the speech model synthesizes spoken playback.
const (
	DefaultTextModel   = "gemini-2.5-flash"
	DefaultChatModel   = "gemini-2.5-flash"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"

	// DefaultVoice is the prebuilt voice used for spoken responses.
	DefaultVoice = "Zephyr"

	// DefaultAddr is the default listen address for the web server.
	DefaultAddr = "127.0.0.1:8970"
)

// APIKeyEnv is the environment variable holding the Gemini API credential.
// It is the only required external configuration for remote calls.
const APIKeyEnv = "GEMINI_API_KEY"

// Config stores application configuration.
// SECURITY: APIKey is masked in MarshalJSON and String.
type Config struct {
	// Model configuration
	TextModel   string  `mapstructure:"text_model" json:"text_model"`
	ChatModel   string  `mapstructure:"chat_model" json:"chat_model"`
	SpeechModel string  `mapstructure:"speech_model" json:"speech_model"`
	Voice       string  `mapstructure:"voice" json:"voice"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`

	// Server configuration
	Addr string `mapstructure:"addr" json:"addr"`

	// Outbound request rate limit (requests per second across all model
	// calls; overlapping generations share this budget).
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second"`
	RequestBurst      int     `mapstructure:"request_burst" json:"request_burst"`

	// Geolocation resolve budget in milliseconds. Resolution past this
	// deadline degrades silently to ungrounded generation.
	GeoTimeoutMS int `mapstructure:"geo_timeout_ms" json:"geo_timeout_ms"`

	// Tracing (optional; empty host disables the exporter)
	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`

	// APIKey is read from the environment, never from the config file.
	APIKey string `mapstructure:"-" json:"-"`
}

// TracingConfig holds the OTLP exporter settings.
type TracingConfig struct {
	AgentHost   string `mapstructure:"agent_host" json:"agent_host"`
	Environment string `mapstructure:"environment" json:"environment"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

// Dir returns the configuration directory (~/.nomadgrid).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}
	return filepath.Join(home, ".nomadgrid"), nil
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("NOMADGRID")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults and env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	cfg.APIKey = os.Getenv(APIKeyEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("text_model", DefaultTextModel)
	v.SetDefault("chat_model", DefaultChatModel)
	v.SetDefault("speech_model", DefaultSpeechModel)
	v.SetDefault("voice", DefaultVoice)
	v.SetDefault("temperature", 0.7)

	v.SetDefault("addr", DefaultAddr)

	v.SetDefault("requests_per_second", 2.0)
	v.SetDefault("request_burst", 8)

	v.SetDefault("geo_timeout_ms", 5000)

	v.SetDefault("tracing.agent_host", "")
	v.SetDefault("tracing.environment", "dev")
	v.SetDefault("tracing.service_name", "nomadgrid")
}

// maskSecret masks a secret for display, keeping only a short prefix.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

// MarshalJSON masks sensitive fields.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // avoid recursion
	return json.Marshal(struct {
		alias
		APIKey string `json:"api_key"`
	}{
		alias:  alias(c),
		APIKey: maskSecret(c.APIKey),
	})
}

// String returns a loggable representation with secrets masked.
func (c Config) String() string {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config{marshal error: %v}", err)
	}
	return string(b)
}
