package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// defaultConfigYAML is the starter file written by `nomadgrid config init`.
// The API key deliberately stays out of the file; it is read from the
// environment only.
const defaultConfigYAML = `# nomadgrid configuration
# The Gemini API key is read from the GEMINI_API_KEY environment variable.

text_model: ` + DefaultTextModel + `
chat_model: ` + DefaultChatModel + `
speech_model: ` + DefaultSpeechModel + `
voice: ` + DefaultVoice + `
temperature: 0.7

addr: ` + DefaultAddr + `

requests_per_second: 2.0
request_burst: 8

geo_timeout_ms: 5000

tracing:
  agent_host: ""     # e.g. localhost:4318 to enable OTLP export
  environment: dev
  service_name: nomadgrid
`

// WriteDefault writes the starter config file to the config directory.
// An existing file is left untouched unless overwrite is set. The write is
// guarded by a file lock so concurrent invocations cannot interleave.
func WriteDefault(overwrite bool) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("locking config file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o600); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}
