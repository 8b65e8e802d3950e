package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show results URL with access token",
	Long: `Show the results API URL with the collector's access token.

Use this when you've scrolled past the startup message.

Example:
  igt token`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(getTokenFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no collector running. Start with: igt collect")
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return fmt.Errorf("token file is empty. Restart the collector with: igt collect")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Results: http://localhost:%d/api/results?token=%s\n", cfg.Port, token)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Tip: run 'igt token' anytime.")
	return nil
}
