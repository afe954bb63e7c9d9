package cmd

import (
	"github.com/spf13/cobra"
)

// Command groups for help output.
const (
	groupCore  = "core"
	groupSetup = "setup"
)

var rootCmd = &cobra.Command{
	Use:   "flare",
	Short: "relevance-ranked quick-launcher search engine",
	Long: `flare - the ranking engine behind a quick-launcher search bar
  - flare search <query> → one ranked, deduplicated result round
  - flare tui → interactive launcher bar driving the async engine`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Core Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(quicklinkCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}
