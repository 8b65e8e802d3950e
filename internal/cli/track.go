package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/headline-goat/intent-goat/internal/emitter"
	"github.com/headline-goat/intent-goat/internal/identity"
	"github.com/headline-goat/intent-goat/internal/intent"
	"github.com/headline-goat/intent-goat/internal/page"
	"github.com/headline-goat/intent-goat/internal/store"
	"github.com/headline-goat/intent-goat/internal/surface"
	"github.com/headline-goat/intent-goat/internal/telemetry"
	"github.com/headline-goat/intent-goat/internal/variant"
	"github.com/headline-goat/intent-goat/internal/widget"
)

var (
	trackPage      string
	trackIntent    string
	trackEndpoint  string
	trackDelay     time.Duration
	trackEphemeral bool
	trackTicket    bool
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Run the widget for one page load",
	Long: `Load a host page, resolve its intent, assign a variant and send the
tracking events to the collector.

The intent id is read from the first element carrying the marker attribute
(data-intent-id by default), or from --intent when the page has none.

Examples:
  igt track --page help.html
  igt track --page help.html --ticket
  igt track --page help.html --delay 30s --ephemeral`,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().StringVar(&trackPage, "page", "", "host page HTML file")
	trackCmd.Flags().StringVar(&trackIntent, "intent", "", "intent id published by the host")
	trackCmd.Flags().StringVar(&trackEndpoint, "endpoint", "", "collector URL (IGT_ENDPOINT)")
	trackCmd.Flags().DurationVar(&trackDelay, "delay", 0, "resolution window (IGT_RESOLUTION_DELAY)")
	trackCmd.Flags().BoolVar(&trackEphemeral, "ephemeral", false, "keep variant assignments in memory only")
	trackCmd.Flags().BoolVar(&trackTicket, "ticket", false, "report a ticket without prompting")
	_ = trackCmd.MarkFlagRequired("page")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if cmd.Flags().Changed("endpoint") {
		cfg.Endpoint = trackEndpoint
	}
	if cmd.Flags().Changed("delay") {
		cfg.ResolutionDelay = trackDelay
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	doc, err := loadPage(trackPage)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, "intent-goat", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	var storage variant.Storage = variant.NewMemoryStorage()
	if !trackEphemeral {
		s, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer s.Close()
		storage = s
	}

	sf := surface.New()
	if trackIntent != "" {
		sf.SetIntent(trackIntent)
	}

	em := emitter.New(cfg.Endpoint,
		emitter.WithTimeout(cfg.SendTimeout),
		emitter.WithLogger(logger),
	)
	defer em.Wait()

	w := widget.New(widget.Config{
		Resolver: identity.NewResolver(logger,
			identity.DOMSource{Doc: doc, Marker: cfg.MarkerAttr},
			identity.GlobalSource{Surface: sf},
		),
		Assigner: variant.NewAssigner(storage, variant.WithPrefix(cfg.StoragePrefix)),
		Emitter:  em,
		Surface:  sf,
		Delay:    cfg.ResolutionDelay,
		Logger:   logger,
	})
	w.Start(ctx, doc)
	doc.MarkReady()

	id, v, ok := w.Intent()
	if !ok {
		fmt.Fprintln(out, "No intent tracked. Check the page for a marker or pass --intent.")
		return nil
	}
	fmt.Fprintf(out, "Tracking intent %s (variant %s) via %s\n", id, v, em.Endpoint())

	ticket := trackTicket
	if !ticket {
		ticket, err = promptOutcome(cfg.ResolutionDelay)
		if errors.Is(err, promptui.ErrInterrupt) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	if ticket {
		sf.TicketCreated()
	}

	state, err := waitTerminal(ctx, w, 250*time.Millisecond)
	if err != nil {
		fmt.Fprintln(out, "Interrupted before the intent settled.")
		return nil
	}
	fmt.Fprintf(out, "Intent %s is %s\n", id, state)
	return nil
}

func loadPage(path string) (*page.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	return page.Parse(f)
}

func promptOutcome(window time.Duration) (ticket bool, err error) {
	prompt := promptui.Select{
		Label: "Outcome",
		Items: []string{
			"Report a ticket now",
			fmt.Sprintf("Wait for the resolution window (%s)", window),
		},
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return false, err
	}
	return idx == 0, nil
}

type stateReporter interface {
	State() (intent.State, bool)
}

// waitTerminal polls until the intent leaves the armed state or ctx ends.
func waitTerminal(ctx context.Context, w stateReporter, every time.Duration) (intent.State, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if state, ok := w.State(); ok && state != intent.StateArmed {
			return state, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
