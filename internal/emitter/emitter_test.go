package emitter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/headline-goat/intent-goat/internal/emitter"
	"github.com/headline-goat/intent-goat/internal/intent"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Keep-alive connections would outlive the test servers and trip goleak.
func newEmitter(url string, opts ...emitter.Option) *emitter.Emitter {
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	return emitter.New(url, append([]emitter.Option{emitter.WithClient(client)}, opts...)...)
}

type captured struct {
	contentType string
	body        map[string]any
}

func newCollector(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var mu sync.Mutex
	var got []captured

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("invalid JSON body: %v", err)
		}
		mu.Lock()
		got = append(got, captured{contentType: r.Header.Get("Content-Type"), body: body})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), got...)
	}
}

func TestEmit_PostsJSON(t *testing.T) {
	srv, received := newCollector(t, http.StatusNoContent)
	e := newEmitter(srv.URL)

	e.Emit(context.Background(), intent.NewEvent(intent.EventImpression, "t-42", intent.VariantB))
	e.Wait()

	got := received()
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if got[0].contentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", got[0].contentType)
	}
	want := map[string]any{"type": "impression", "intent_id": "t-42", "variant": "B"}
	for k, v := range want {
		if got[0].body[k] != v {
			t.Errorf("field %s: expected %v, got %v", k, v, got[0].body[k])
		}
	}
	if len(got[0].body) != len(want) {
		t.Errorf("unexpected extra fields: %v", got[0].body)
	}
}

func TestEmit_SurvivesCallerCancellation(t *testing.T) {
	srv, received := newCollector(t, http.StatusNoContent)
	e := newEmitter(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	e.Emit(ctx, intent.NewEvent(intent.EventResolution, "t-1", intent.VariantA))
	cancel()
	e.Wait()

	if len(received()) != 1 {
		t.Error("delivery should not be aborted by caller cancellation")
	}
}

func TestEmit_NonSuccessStatusIsNotAnError(t *testing.T) {
	srv, received := newCollector(t, http.StatusInternalServerError)
	core, logs := observer.New(zapcore.DebugLevel)
	e := newEmitter(srv.URL, emitter.WithLogger(zap.New(core)))

	e.Emit(context.Background(), intent.NewEvent(intent.EventTicketCreated, "t-1", intent.VariantA))
	e.Wait()

	if len(received()) != 1 {
		t.Fatal("expected exactly one attempt")
	}
	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 0 {
		t.Errorf("expected no error logs, got %d", n)
	}
}

func TestEmit_NetworkFailureLogsErrorWithoutRetry(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	e := newEmitter(url, emitter.WithLogger(zap.New(core)))

	e.Emit(context.Background(), intent.NewEvent(intent.EventResolution, "t-42", intent.VariantB))
	e.Wait()

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error log, got %d", len(errs))
	}
	if errs[0].ContextMap()["type"] != "resolution" {
		t.Errorf("expected error log to carry event type, got %v", errs[0].ContextMap())
	}
}

func TestEmit_DeliversInIssueOrder(t *testing.T) {
	srv, received := newCollector(t, http.StatusNoContent)
	e := newEmitter(srv.URL)

	types := []intent.EventType{intent.EventImpression, intent.EventTicketCreated, intent.EventResolution}
	for _, typ := range types {
		e.Emit(context.Background(), intent.NewEvent(typ, "t-42", intent.VariantA))
	}
	e.Wait()

	got := received()
	if len(got) != len(types) {
		t.Fatalf("expected %d requests, got %d", len(types), len(got))
	}
	for i, typ := range types {
		if got[i].body["type"] != string(typ) {
			t.Errorf("request %d: expected %s, got %v", i, typ, got[i].body["type"])
		}
	}
}

type countingTransport struct {
	base  http.RoundTripper
	count atomic.Int32
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.count.Add(1)
	return c.base.RoundTrip(r)
}

func TestWithTimeout_KeepsConfiguredClient(t *testing.T) {
	srv, received := newCollector(t, http.StatusNoContent)
	transport := &countingTransport{base: &http.Transport{DisableKeepAlives: true}}
	client := &http.Client{Transport: transport}

	e := emitter.New(srv.URL, emitter.WithClient(client), emitter.WithTimeout(5*time.Second))
	e.Emit(context.Background(), intent.NewEvent(intent.EventImpression, "t-42", intent.VariantB))
	e.Wait()

	if len(received()) != 1 {
		t.Fatal("expected one delivery")
	}
	if n := transport.count.Load(); n != 1 {
		t.Errorf("expected the configured transport to carry the request, got %d round trips", n)
	}
	if client.Timeout != 0 {
		t.Errorf("caller's client was mutated: timeout %s", client.Timeout)
	}
}
