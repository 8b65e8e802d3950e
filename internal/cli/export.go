package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/headline-goat/intent-goat/internal/store"
)

var (
	exportFormat string
	exportIntent string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export raw event data",
	Long: `Export raw event data in CSV or JSON format.

Examples:
  igt export --format csv > events.csv
  igt export --intent t-42 --format json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	exportCmd.Flags().StringVar(&exportIntent, "intent", "", "only events for this intent id")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		events, err := s.GetEvents(cmd.Context(), exportIntent)
		if err != nil {
			return fmt.Errorf("failed to get events: %w", err)
		}

		if exportFormat == "csv" {
			return exportCSV(cmd.OutOrStdout(), events)
		}
		return exportJSON(cmd.OutOrStdout(), events)
	})
}

func exportCSV(out io.Writer, events []*store.Event) error {
	w := csv.NewWriter(out)

	// Write header
	if err := w.Write([]string{"timestamp", "type", "intent_id", "variant"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, e := range events {
		row := []string{
			strconv.FormatInt(e.CreatedAt.Unix(), 10),
			e.Type,
			e.IntentID,
			e.Variant,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

type jsonExport struct {
	Events []jsonEvent `json:"events"`
}

type jsonEvent struct {
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
	IntentID  string `json:"intent_id"`
	Variant   string `json:"variant"`
}

func exportJSON(out io.Writer, events []*store.Event) error {
	export := jsonExport{
		Events: make([]jsonEvent, len(events)),
	}

	for i, e := range events {
		export.Events[i] = jsonEvent{
			Timestamp: e.CreatedAt.Unix(),
			Type:      e.Type,
			IntentID:  e.IntentID,
			Variant:   e.Variant,
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
