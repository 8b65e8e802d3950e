package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/headline-goat/intent-goat/internal/server"
	"github.com/headline-goat/intent-goat/internal/store"
)

var collectPort int

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run the event collector",
	Long: `Run the collection sink the widget sends its events to.

The collector provides:
  - POST /events for impression, resolution and ticket_created events
  - GET /health
  - GET /api/results (token protected)

Example:
  igt collect --port 8080`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().IntVarP(&collectPort, "port", "p", 8080, "port to listen on (IGT_PORT)")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("port") {
		cfg.Port = collectPort
	}

	return withStore(func(s *store.SQLiteStore) error {
		srv := server.New(s, cfg.Port, getTokenFilePath(), logger)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Collector running at http://localhost:%d/events\n", cfg.Port)
		fmt.Fprintf(out, "Results: http://localhost:%d/api/results?token=%s\n", cfg.Port, srv.Token())
		fmt.Fprintln(out, "Press Ctrl+C to stop")

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			return srv.Run(ctx)
		})
		g.Go(func() error {
			reportProgress(ctx, s, time.Minute)
			return nil
		})
		return g.Wait()
	})
}

// reportProgress logs the stored event count whenever it changes.
func reportProgress(ctx context.Context, s *store.SQLiteStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := s.CountEvents(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("failed to count events", zap.Error(err))
			}
			continue
		}
		if n != last {
			logger.Info("collector progress", zap.Int("events", n))
			last = n
		}
	}
}
