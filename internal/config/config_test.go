package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		TextModel:         DefaultTextModel,
		ChatModel:         DefaultChatModel,
		SpeechModel:       DefaultSpeechModel,
		Voice:             DefaultVoice,
		Temperature:       0.7,
		Addr:              DefaultAddr,
		RequestsPerSecond: 2.0,
		RequestBurst:      8,
		GeoTimeoutMS:      5000,
		APIKey:            "test-key-1234",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"empty text model", func(c *Config) { c.TextModel = " " }, ErrInvalidModelName},
		{"empty speech model", func(c *Config) { c.SpeechModel = "" }, ErrInvalidModelName},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, ErrInvalidTemperature},
		{"temperature negative", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"bad addr", func(c *Config) { c.Addr = "no-port" }, ErrInvalidAddr},
		{"zero rate", func(c *Config) { c.RequestsPerSecond = 0 }, ErrInvalidRateLimit},
		{"zero burst", func(c *Config) { c.RequestBurst = 0 }, ErrInvalidRateLimit},
		{"geo timeout too small", func(c *Config) { c.GeoTimeoutMS = 50 }, ErrInvalidGeoTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	var cfg *Config
	if !errors.Is(cfg.Validate(), ErrConfigNil) {
		t.Fatal("nil config should fail validation")
	}
}

func TestValidateServe_RequiresAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.APIKey = ""
	if !errors.Is(cfg.ValidateServe(), ErrMissingAPIKey) {
		t.Fatal("ValidateServe should require API key")
	}

	cfg.APIKey = "k-1234"
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("ValidateServe() = %v, want nil", err)
	}
}

func TestString_MasksAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.APIKey = "super-secret-key"

	s := cfg.String()
	if strings.Contains(s, "super-secret-key") {
		t.Errorf("String() leaked the API key: %s", s)
	}
	if !strings.Contains(s, "supe****") {
		t.Errorf("String() should contain masked key, got: %s", s)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "****"},
		{"abcdefgh", "abcd****"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
