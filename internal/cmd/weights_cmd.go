package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runeberg/flare/internal/provider"
	"github.com/runeberg/flare/internal/weights"
)

var weightsCmd = &cobra.Command{
	Use:     "weights",
	Short:   "Inspect or tune category scoring weights",
	GroupID: groupSetup,
	Long: `Inspect or tune the per-category scoring multipliers.

Weights shift whole categories up or down in the ranking without
touching match quality: an application weighted 1.2 outranks a file
weighted 0.5 when both match equally well.

Examples:
  flare weights                 # Show current weights
  flare weights set file 0.7    # Boost files
  flare weights reset           # Back to built-in defaults`,
	RunE: runWeightsList,
}

var weightsSetCmd = &cobra.Command{
	Use:   "set <category> <multiplier>",
	Short: "Set one category multiplier and persist it",
	Args:  cobra.ExactArgs(2),
	RunE:  runWeightsSet,
}

var weightsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore and persist the built-in default weights",
	Args:  cobra.NoArgs,
	RunE:  runWeightsReset,
}

func init() {
	weightsCmd.AddCommand(weightsSetCmd)
	weightsCmd.AddCommand(weightsResetCmd)
}

func runWeightsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	w := weights.LoadOrDefaults(cmd.Context(), a.weights, a.logger)

	fmt.Printf("%sCategory weights%s\n", colorBold, colorReset)
	fmt.Println(strings.Repeat("-", 32))
	for _, cat := range provider.Categories() {
		marker := ""
		if w.For(cat) != cat.BuiltinWeight() {
			marker = colorYellow + " (custom)" + colorReset
		}
		fmt.Printf("  %-12s %.2f%s\n", string(cat), w.For(cat), marker)
	}
	return nil
}

func runWeightsSet(cmd *cobra.Command, args []string) error {
	cat := provider.Category(strings.ToLower(args[0]))
	if !cat.Valid() {
		return fmt.Errorf("unknown category %q (one of: %s)", args[0], categoryNames())
	}
	mult, err := strconv.ParseFloat(args[1], 64)
	if err != nil || mult <= 0 {
		return fmt.Errorf("multiplier must be a positive number, got %q", args[1])
	}

	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	w := weights.LoadOrDefaults(cmd.Context(), a.weights, a.logger).Set(cat, mult)
	if err := a.weights.Save(cmd.Context(), w); err != nil {
		return err
	}
	a.engine.UpdateWeights(w)

	fmt.Printf("%s%s = %.2f%s\n", colorGreen, string(cat), mult, colorReset)
	return nil
}

func runWeightsReset(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	w := weights.Defaults()
	if err := a.weights.Save(cmd.Context(), w); err != nil {
		return err
	}
	a.engine.UpdateWeights(w)

	fmt.Printf("%sWeights reset to defaults%s\n", colorGreen, colorReset)
	return nil
}

func categoryNames() string {
	cats := provider.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
