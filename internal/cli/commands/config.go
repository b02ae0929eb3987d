package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/liteclaw/webbridge/internal/config"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Config helpers (show/path/get/set)",
		Long:  `Inspect the effective configuration and edit values in the active config file.`,
		Example: `  # Show effective configuration
  webbridge config show

  # Set config value
  webbridge config set gateway.port 8080`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigPathCommand())
	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Short:   "Print the effective configuration as YAML",
		Example: `  webbridge config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			cmd.Print(string(data))
			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "path",
		Short:   "Print the config file path",
		Example: `  webbridge config path`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(config.ConfigPath())
		},
	}
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get [key]",
		Short:   "Get a configuration value",
		Example: `  webbridge config get gateway.port`,
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			v, err := config.LoadViper()
			if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
				cmd.Printf("Failed to load config: %v\n", err)
				return
			}

			val := v.Get(args[0])
			if val == nil {
				cmd.Println("null")
				return
			}
			cmd.Printf("%v\n", val)
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set a configuration value",
		Example: `  webbridge config set gateway.port 9000
  webbridge config set web.attachments.probeMime false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.LoadViper()
			if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
				return fmt.Errorf("failed to load config: %w", err)
			}

			key, valStr := args[0], args[1]
			var val any = valStr
			if vInt, err := strconv.Atoi(valStr); err == nil {
				val = vInt
			} else if vBool, err := strconv.ParseBool(valStr); err == nil {
				val = vBool
			}

			v.Set(key, val)

			target := v.ConfigFileUsed()
			if target == "" {
				target = config.ConfigPath()
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := v.WriteConfigAs(target); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			cmd.Printf("Updated %s = %v\n", key, val)
			return nil
		},
	}
}
