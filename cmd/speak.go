package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nomadgrid/nomadgrid/internal/config"
	"github.com/nomadgrid/nomadgrid/internal/llm"
	"github.com/nomadgrid/nomadgrid/internal/speech"
)

var flagSpeakOut string

var speakCmd = &cobra.Command{
	Use:   "speak [text]",
	Short: "Synthesize speech to a WAV file",
	Long: `Sends text through the speech model and writes the result as a
16-bit PCM WAV file. Useful for checking voice and credentials without
starting the server.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSpeak(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	speakCmd.Flags().StringVarP(&flagSpeakOut, "out", "o", "speech.wav", "output WAV path")
	rootCmd.AddCommand(speakCmd)
}

func runSpeak(ctx context.Context, text string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := newLogger()
	gemini, err := llm.NewGemini(ctx, llm.Config{
		APIKey:            cfg.APIKey,
		TextModel:         cfg.TextModel,
		ChatModel:         cfg.ChatModel,
		SpeechModel:       cfg.SpeechModel,
		Voice:             cfg.Voice,
		Temperature:       cfg.Temperature,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.RequestBurst,
	}, logger.With("component", "llm"))
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}

	f, err := os.Create(flagSpeakOut)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	player := speech.NewPlayer(gemini, logger.With("component", "speech"))
	if err := player.Speak(ctx, text, speech.NewWAVOutput(f)); err != nil {
		return fmt.Errorf("synthesizing: %w", err)
	}

	fmt.Printf("Wrote %s\n", flagSpeakOut)
	return nil
}
