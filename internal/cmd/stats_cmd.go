package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	statsLimit          int
	statsPruneThreshold float64
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show usage statistics feeding the ranker",
	GroupID: groupSetup,
	Long: `Show the decayed launch frequencies that boost frequently used
results in the ranking. Scores decay exponentially, so an item
launched daily stays warm while one last used months ago fades out.

Examples:
  flare stats                  # Top entries by decayed score
  flare stats prune            # Drop entries that decayed to noise`,
	RunE: runStats,
}

var statsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove entries whose decayed score fell below the threshold",
	Args:  cobra.NoArgs,
	RunE:  runStatsPrune,
}

func init() {
	statsCmd.Flags().IntVarP(&statsLimit, "limit", "n", 20, "Maximum number of entries to show")
	statsPruneCmd.Flags().Float64Var(&statsPruneThreshold, "threshold", 0.05, "Decayed-score cutoff")
	statsCmd.AddCommand(statsPruneCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	entries := a.tracker.Top(statsLimit)
	if len(entries) == 0 {
		fmt.Println("No launches recorded yet.")
		return nil
	}

	fmt.Printf("%s%-12s %-32s %8s  %s%s\n", colorBold, "CATEGORY", "IDENTIFIER", "SCORE", "LAST USED", colorReset)
	for _, e := range entries {
		last := time.UnixMilli(e.LastTSMs).Format("2006-01-02 15:04")
		fmt.Printf("%-12s %-32s %8.2f  %s%s%s\n",
			string(e.Category), e.Identifier, e.Score, colorDim, last, colorReset)
	}
	return nil
}

func runStatsPrune(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.tracker.Prune(cmd.Context(), statsPruneThreshold)
	if err != nil {
		return err
	}
	fmt.Printf("%sPruned %d entry(ies)%s\n", colorGreen, removed, colorReset)
	return nil
}
