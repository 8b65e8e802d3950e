package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/headline-goat/intent-goat/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List variant assignments",
	Long:  `List every intent that has been assigned a variant, oldest first.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		assignments, err := s.ListVariants(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list variants: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(assignments) == 0 {
			fmt.Fprintln(out, "No intents tracked yet.")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Assignments are created on the first page load of an intent:")
			fmt.Fprintln(out, "  igt track --page help.html")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INTENT\tVARIANT\tASSIGNED")
		for _, a := range assignments {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				strings.TrimPrefix(a.Key, cfg.StoragePrefix),
				a.Value,
				a.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	})
}
