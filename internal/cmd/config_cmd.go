package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runeberg/flare/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config [key] [value]",
	Short:   "Get or set configuration values",
	GroupID: groupSetup,
	Long: `Get or set flare configuration values.

Without arguments, lists all configuration keys.
With one argument, shows the value of that key.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/flare/config.yaml (XDG compliant).

Keys are in the format: section.key
Sections: engine, cache, storage, log

Examples:
  flare config                        # List all keys
  flare config engine.max_results     # Get engine.max_results value
  flare config engine.max_results 15  # Show up to 15 results
  flare config log.log_level debug`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch len(args) {
	case 0:
		return listConfig(cfg, paths)
	case 1:
		return getConfig(cfg, args[0])
	case 2:
		return setConfig(cfg, paths, args[0], args[1])
	}

	return nil
}

func listConfig(cfg *config.Config, paths *config.Paths) error {
	fmt.Printf("%sConfiguration Keys%s\n", colorBold, colorReset)
	fmt.Println(strings.Repeat("-", 40))
	fmt.Println()

	for _, key := range config.ListKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		displayValue := value
		if displayValue == "" {
			displayValue = colorDim + "(not set)" + colorReset
		}
		fmt.Printf("  %-24s %s\n", key, displayValue)
	}

	fmt.Println()
	fmt.Printf("%sConfig file: %s%s\n", colorDim, paths.ConfigFile(), colorReset)
	return nil
}

func getConfig(cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

func setConfig(cfg *config.Config, paths *config.Paths, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}

	for _, w := range cfg.ValidateAndFix() {
		fmt.Printf("%swarning: %s: %s%s\n", colorYellow, w.Field, w.Message, colorReset)
	}

	if err := cfg.SaveToFile(paths.ConfigFile()); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	applied, err := cfg.Get(key)
	if err != nil {
		return err
	}
	fmt.Printf("%s%s = %s%s\n", colorGreen, key, applied, colorReset)
	return nil
}
