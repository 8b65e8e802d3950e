package widget_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/headline-goat/intent-goat/internal/clock"
	"github.com/headline-goat/intent-goat/internal/emitter"
	"github.com/headline-goat/intent-goat/internal/identity"
	"github.com/headline-goat/intent-goat/internal/intent"
	"github.com/headline-goat/intent-goat/internal/page"
	"github.com/headline-goat/intent-goat/internal/server"
	"github.com/headline-goat/intent-goat/internal/store"
	"github.com/headline-goat/intent-goat/internal/surface"
	"github.com/headline-goat/intent-goat/internal/testutil"
	"github.com/headline-goat/intent-goat/internal/variant"
	"github.com/headline-goat/intent-goat/internal/widget"
)

type stored struct {
	Type, IntentID, Variant string
}

// pageLoad runs one widget lifecycle against a live collector. Variant
// assignments and collected events share the same database.
func pageLoad(t *testing.T, db *store.SQLiteStore, endpoint string, draw intent.Variant, finish func(*widget.Widget, *clock.Fake)) {
	t.Helper()

	doc, err := page.Parse(strings.NewReader(ticketPage))
	require.NoError(t, err)

	fake := clock.NewFake(time.Unix(0, 0))
	em := emitter.New(endpoint)
	sf := surface.New()

	w := widget.New(widget.Config{
		Resolver: identity.NewResolver(nil, identity.DOMSource{Doc: doc}, identity.GlobalSource{Surface: sf}),
		Assigner: variant.NewAssigner(db, variant.WithRand(variant.Fixed(draw))),
		Emitter:  em,
		Surface:  sf,
		Clock:    fake,
	})
	w.Start(context.Background(), doc)
	doc.MarkReady()

	finish(w, fake)
	em.Wait()
}

func collected(t *testing.T, db *store.SQLiteStore) []stored {
	t.Helper()
	events, err := db.GetEvents(context.Background(), "t-42")
	require.NoError(t, err)

	out := make([]stored, len(events))
	for i, e := range events {
		out[i] = stored{e.Type, e.IntentID, e.Variant}
	}
	return out
}

func TestPipeline_TicketThenResolutionAcrossLoads(t *testing.T) {
	db := testutil.SetupTestStore(t)
	ts := httptest.NewServer(server.New(db, 0, "", nil).Handler())
	defer ts.Close()
	endpoint := ts.URL + "/events"

	pageLoad(t, db, endpoint, intent.VariantB, func(w *widget.Widget, _ *clock.Fake) {
		w.Surface().TicketCreated()
	})

	// The second load draws A but must keep the persisted B.
	pageLoad(t, db, endpoint, intent.VariantA, func(_ *widget.Widget, c *clock.Fake) {
		c.Advance(10 * time.Minute)
	})

	want := []stored{
		{"impression", "t-42", "B"},
		{"ticket_created", "t-42", "B"},
		{"impression", "t-42", "B"},
		{"resolution", "t-42", "B"},
	}
	if diff := cmp.Diff(want, collected(t, db)); diff != "" {
		t.Errorf("collected events mismatch (-want +got):\n%s", diff)
	}

	vs, err := db.GetVariantStats(context.Background())
	require.NoError(t, err)
	require.Len(t, vs, 1)
	if vs[0].Impressions != 1 || vs[0].Tickets != 1 || vs[0].Resolutions != 1 {
		t.Errorf("unexpected stats: %+v", vs[0])
	}
}
