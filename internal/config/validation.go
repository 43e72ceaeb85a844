package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the Gemini API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates a model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidAddr indicates the listen address is malformed.
	ErrInvalidAddr = errors.New("invalid listen address")

	// ErrInvalidRateLimit indicates the outbound rate limit is out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")

	// ErrInvalidGeoTimeout indicates the geolocation timeout is out of range.
	ErrInvalidGeoTimeout = errors.New("invalid geolocation timeout")
)

// Validate checks structural configuration. It does not require the API key;
// commands that make remote calls must additionally call ValidateServe.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	for _, m := range []struct{ name, value string }{
		{"text_model", c.TextModel},
		{"chat_model", c.ChatModel},
		{"speech_model", c.SpeechModel},
	} {
		if strings.TrimSpace(m.value) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidModelName, m.name)
		}
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %.2f (must be 0.0-2.0)", ErrInvalidTemperature, c.Temperature)
	}

	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddr, c.Addr, err)
	}

	if c.RequestsPerSecond <= 0 || c.RequestBurst < 1 {
		return fmt.Errorf("%w: rps=%.2f burst=%d", ErrInvalidRateLimit,
			c.RequestsPerSecond, c.RequestBurst)
	}

	if c.GeoTimeoutMS < 100 || c.GeoTimeoutMS > 60_000 {
		return fmt.Errorf("%w: %dms (must be 100-60000)", ErrInvalidGeoTimeout, c.GeoTimeoutMS)
	}

	return nil
}

// ValidateServe checks everything serve mode needs, including the API key.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: set %s", ErrMissingAPIKey, APIKeyEnv)
	}
	return nil
}
