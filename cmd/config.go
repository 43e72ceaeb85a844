package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nomadgrid/nomadgrid/internal/config"
)

var flagConfigForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Writes a commented default configuration to ~/.nomadgrid/config.yaml.
Existing files are left untouched unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.WriteDefault(flagConfigForce)
		if err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&flagConfigForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
