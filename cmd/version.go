package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nomadgrid/nomadgrid/internal/config"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	fmt.Printf("NomadGrid %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Text model: %s\n", cfg.TextModel)
	fmt.Printf("  Chat model: %s\n", cfg.ChatModel)
	fmt.Printf("  Speech model: %s (voice %s)\n", cfg.SpeechModel, cfg.Voice)
	fmt.Printf("  Temperature: %.2f\n", cfg.Temperature)
	fmt.Printf("  Address: %s\n", cfg.Addr)

	// Check API key from environment (never display full content)
	key := os.Getenv(config.APIKeyEnv)
	if key != "" && len(key) >= 8 {
		fmt.Printf("  %s: %s...%s (configured)\n", config.APIKeyEnv, key[:4], key[len(key)-4:])
	} else if key != "" {
		fmt.Printf("  %s: (configured)\n", config.APIKeyEnv)
	} else {
		fmt.Printf("  %s: Not set\n", config.APIKeyEnv)
		fmt.Println()
		fmt.Printf("Hint: export %s=your-api-key\n", config.APIKeyEnv)
	}

	return nil
}
