package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runeberg/flare/internal/quicklink"
)

var (
	quicklinkKeyword string
	quicklinkKind    string
)

var quicklinkCmd = &cobra.Command{
	Use:     "quicklink",
	Short:   "Manage user-defined quicklinks",
	GroupID: groupSetup,
	Long: `Manage quicklinks: user-defined bookmarks and commands surfaced as
search candidates.

URL quicklinks open in the platform browser; command quicklinks run
the stored command line. A {query} placeholder in the target expands
to whatever follows the keyword in the search bar.

Examples:
  flare quicklink add "GitHub search" https://github.com/search?q={query} --keyword gh
  flare quicklink add "Lock screen" "loginctl lock-session" --kind command
  flare quicklink list
  flare quicklink remove "Lock screen"`,
}

var quicklinkAddCmd = &cobra.Command{
	Use:   "add <name> <target>",
	Short: "Add a quicklink",
	Args:  cobra.ExactArgs(2),
	RunE:  runQuicklinkAdd,
}

var quicklinkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List quicklinks",
	Args:  cobra.NoArgs,
	RunE:  runQuicklinkList,
}

var quicklinkRemoveCmd = &cobra.Command{
	Use:   "remove <name-or-id>",
	Short: "Remove a quicklink",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuicklinkRemove,
}

func init() {
	quicklinkAddCmd.Flags().StringVar(&quicklinkKeyword, "keyword", "", "Expansion trigger (e.g. \"gh\" in \"gh cobra\")")
	quicklinkAddCmd.Flags().StringVar(&quicklinkKind, "kind", string(quicklink.KindURL), "Quicklink kind: url or command")
	quicklinkCmd.AddCommand(quicklinkAddCmd)
	quicklinkCmd.AddCommand(quicklinkListCmd)
	quicklinkCmd.AddCommand(quicklinkRemoveCmd)
}

func runQuicklinkAdd(cmd *cobra.Command, args []string) error {
	kind := quicklink.Kind(strings.ToLower(quicklinkKind))
	if !kind.Valid() {
		return fmt.Errorf("unknown kind %q (url or command)", quicklinkKind)
	}

	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	ql, err := a.links.Add(cmd.Context(), quicklink.Quicklink{
		Name:    args[0],
		Keyword: quicklinkKeyword,
		Kind:    kind,
		Target:  args[1],
	})
	if err != nil {
		return err
	}

	fmt.Printf("%sAdded %q%s %s(%s)%s\n", colorGreen, ql.Name, colorReset, colorDim, ql.ID, colorReset)
	return nil
}

func runQuicklinkList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	links, err := a.links.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(links) == 0 {
		fmt.Println("No quicklinks defined.")
		return nil
	}

	for _, ql := range links {
		keyword := ""
		if ql.Keyword != "" {
			keyword = fmt.Sprintf(" %s[%s]%s", colorCyan, ql.Keyword, colorReset)
		}
		fmt.Printf("%s%-24s%s%s %s%-7s%s %s\n",
			colorBold, ql.Name, colorReset, keyword,
			colorDim, string(ql.Kind), colorReset,
			ql.Target)
	}

	fmt.Println()
	fmt.Printf("%s%d quicklink(s)%s\n", colorDim, len(links), colorReset)
	return nil
}

func runQuicklinkRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.links.Remove(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("%sRemoved %q%s\n", colorGreen, args[0], colorReset)
	return nil
}
