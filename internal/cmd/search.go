package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runeberg/flare/internal/provider"
	"github.com/runeberg/flare/internal/rank"
	"github.com/runeberg/flare/internal/tui"
)

var (
	searchFull bool
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	Short:   "Run one ranked search round",
	GroupID: groupCore,
	Long: `Run one search round against the registered providers and print the
ranked, deduplicated result list.

By default only the fast providers are consulted, matching what the
launcher bar does on every keystroke. Use --full to include the slow
providers under their longer budget.

Tool queries short-circuit the same way they do in the launcher:

  flare search "2+2"              # calculator
  flare search "100 km to miles"  # unit conversion
  flare search "time in tokyo"    # time-zone clock
  flare search "> echo hi"        # shell command, bypasses providers`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchFull, "full", false, "Include slow providers")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Emit results as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	a, err := openApp(cmd.Context(), searchJSON)
	if err != nil {
		return err
	}
	defer a.Close()

	var results []rank.Scored
	if searchFull {
		results = a.engine.Search(cmd.Context(), query)
	} else {
		results = a.engine.SearchFast(cmd.Context(), query)
	}

	if searchJSON {
		return printResultsJSON(results)
	}
	printResults(query, results)
	return nil
}

// resultRecord is the JSON shape of one result row.
type resultRecord struct {
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle,omitempty"`
	Category string  `json:"category"`
	Source   string  `json:"source"`
	Score    float64 `json:"score"`
	Match    string  `json:"match"`
}

func printResultsJSON(results []rank.Scored) error {
	records := make([]resultRecord, 0, len(results))
	for _, r := range results {
		records = append(records, resultRecord{
			Title:    r.Title,
			Subtitle: r.Subtitle,
			Category: string(r.Category),
			Source:   string(r.Source),
			Score:    r.Score,
			Match:    r.Match.Type.String(),
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func printResults(query string, results []rank.Scored) {
	if len(results) == 0 {
		fmt.Printf("No results for %q\n", query)
		return
	}

	width := termWidth()
	for i, r := range results {
		title := tui.MiddleTruncate(tui.Display(r.Title), width-24)
		marker := " "
		if r.Source == provider.SourceTool {
			marker = colorYellow + "*" + colorReset
		}
		fmt.Printf("%2d %s %s%-7.0f%s %s%-11s%s %s\n",
			i+1, marker,
			colorCyan, r.Score, colorReset,
			colorDim, string(r.Category), colorReset,
			title)
		if r.Subtitle != "" {
			sub := tui.MiddleTruncate(tui.Display(r.Subtitle), width-24)
			fmt.Printf("     %s%s%s\n", colorDim, sub, colorReset)
		}
	}

	fmt.Println()
	fmt.Printf("%s%d result(s)%s\n", colorDim, len(results), colorReset)
}

// termWidth returns the terminal width, preferring ioctl, then
// $COLUMNS, then a conservative default.
func termWidth() int {
	if w := getTermWidthIoctl(); w > 0 {
		return w
	}
	if v := os.Getenv("COLUMNS"); v != "" {
		if w, err := strconv.Atoi(v); err == nil && w > 0 {
			return w
		}
	}
	return 80
}
