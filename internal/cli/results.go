package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/headline-goat/intent-goat/internal/stats"
	"github.com/headline-goat/intent-goat/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show ticket rates per variant",
	Long:  `Show impressions, tickets and resolutions per variant with 95% confidence intervals.`,
	Args:  cobra.NoArgs,
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		variantStats, err := s.GetVariantStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		printResults(cmd.OutOrStdout(), stats.Analyze(variantStats))
		return nil
	})
}

func printResults(out io.Writer, result *stats.Result) {
	fmt.Fprintln(out, "VARIANT  IMPRESSIONS  TICKETS  RESOLVED  OPEN   TICKET RATE  95% CI")
	fmt.Fprintln(out, strings.Repeat("─", 72))

	total := 0
	for _, v := range result.Variants {
		total += v.Impressions

		indicator := ""
		if v.Variant == result.Leading && v.Impressions > 0 {
			indicator = " ← LEADING"
		}

		ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", v.CILower*100, v.CIUpper*100)
		if v.Impressions == 0 {
			ciStr = "N/A"
		}

		fmt.Fprintf(out, "%-7s  %-11s  %-7s  %-8s  %-5s  %-11s  %s%s\n",
			v.Variant,
			formatNumber(v.Impressions),
			formatNumber(v.Tickets),
			formatNumber(v.Resolutions),
			formatNumber(v.Open),
			formatPercent(v.TicketRate),
			ciStr,
			indicator,
		)
	}

	fmt.Fprintln(out)

	if total == 0 {
		fmt.Fprintln(out, "No impressions yet. Run 'igt track' against a page to generate some.")
		return
	}

	confPct := result.ConfidenceLevel * 100
	switch {
	case result.Confident:
		fmt.Fprintf(out, "Statistical significance: %.1f%% confident variant %s has the higher ticket rate\n", confPct, result.Leading)
	case confPct >= 90:
		fmt.Fprintf(out, "Statistical significance: %.1f%% confident variant %s has the higher ticket rate (not yet significant)\n", confPct, result.Leading)
	default:
		fmt.Fprintln(out, "Statistical significance: Not enough data to determine a winner")
	}
}
