// Package cli provides the command-line interface for webbridge.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/liteclaw/webbridge/internal/cli/commands"
	"github.com/liteclaw/webbridge/internal/version"
)

// NewRootCommand builds the webbridge command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "webbridge",
		Short: "webbridge - HTTP web channel for chat bots",
		Long: `webbridge answers chat messages posted over HTTP.
Every request is matched to a channel driver, handed to the bot and
answered with a single JSON envelope holding all replies.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve --config: %w", err)
			}
			return os.Setenv("WEBBRIDGE_CONFIG_PATH", abs)
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewSendCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ~/.webbridge/webbridge.json)")

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
