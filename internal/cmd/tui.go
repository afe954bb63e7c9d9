package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runeberg/flare/internal/tui"
)

var (
	tuiQuery  string
	tuiScores bool
	tuiLaunch bool
)

var tuiCmd = &cobra.Command{
	Use:     "tui",
	Short:   "Interactive launcher bar",
	GroupID: groupCore,
	Long: `Open the interactive launcher bar: type to search, arrows to move,
enter to pick, esc to cancel. Every keystroke goes through the
debounced async search path, exactly like the launcher front end.

Examples:
  flare tui                  # Empty bar
  flare tui --query firefox  # Prefilled query
  flare tui --launch         # Execute the picked result's action`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiQuery, "query", "q", "", "Prefill the search bar")
	tuiCmd.Flags().BoolVar(&tuiScores, "scores", false, "Show numeric scores next to results")
	tuiCmd.Flags().BoolVar(&tuiLaunch, "launch", false, "Execute the picked result's action")
	lipgloss.SetColorProfile(termenv.ColorProfile())
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	model := tui.NewModel(a.engine)
	if tuiQuery != "" {
		model = model.WithQuery(tuiQuery)
	}
	if tuiScores {
		model = model.WithScores()
	}

	prog := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(cmd.Context()))
	final, err := prog.Run()
	if err != nil {
		return err
	}

	m, ok := final.(tui.Model)
	if !ok || m.IsCancelled() {
		return nil
	}
	picked, ok := m.Picked()
	if !ok {
		return nil
	}

	if tuiLaunch {
		return a.engine.Launch(cmd.Context(), picked)
	}
	fmt.Println(picked.Title)
	return nil
}
