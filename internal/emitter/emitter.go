// Package emitter delivers tracking events to the collection endpoint.
// Delivery is best effort: one attempt per event, never retried, never
// awaited by the caller.
package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/headline-goat/intent-goat/internal/intent"
)

const tracerName = "github.com/headline-goat/intent-goat/internal/emitter"

type Emitter struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
	tracer   trace.Tracer

	inflight sync.WaitGroup
	mu       sync.Mutex
	last     chan struct{}
}

type Option func(*Emitter)

func WithClient(c *http.Client) Option {
	return func(e *Emitter) { e.client = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Emitter) { e.logger = l }
}

// WithTimeout bounds a single delivery attempt. Zero means no bound. It
// applies to a copy of the client configured so far.
func WithTimeout(d time.Duration) Option {
	return func(e *Emitter) {
		c := *e.client
		c.Timeout = d
		e.client = &c
	}
}

func New(endpoint string, opts ...Option) *Emitter {
	e := &Emitter{
		endpoint: endpoint,
		client:   http.DefaultClient,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Emitter) Endpoint() string { return e.endpoint }

// Emit posts evt on a detached goroutine and returns immediately. The
// caller's cancellation does not abort a delivery already issued.
// Deliveries start in the order Emit was called.
func (e *Emitter) Emit(ctx context.Context, evt intent.Event) {
	body, err := json.Marshal(evt)
	if err != nil {
		e.logger.Error("failed to encode event", zap.String("type", string(evt.Type)), zap.Error(err))
		return
	}

	ctx = context.WithoutCancel(ctx)
	done := make(chan struct{})

	e.mu.Lock()
	prev := e.last
	e.last = done
	e.mu.Unlock()

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		e.send(ctx, evt, body)
	}()
}

// Wait blocks until every delivery issued so far has finished.
func (e *Emitter) Wait() {
	e.inflight.Wait()
}

func (e *Emitter) send(ctx context.Context, evt intent.Event, body []byte) {
	ctx, span := e.tracer.Start(ctx, "emit "+string(evt.Type),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("intent.id", evt.IntentID),
			attribute.String("intent.variant", string(evt.Variant)),
			attribute.String("event.type", string(evt.Type)),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		e.fail(span, evt, fmt.Errorf("failed to build request: %w", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.fail(span, evt, err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 300 {
		e.logger.Debug("collector answered with non-success status",
			zap.String("type", string(evt.Type)),
			zap.Int("status", resp.StatusCode),
		)
	}
}

func (e *Emitter) fail(span trace.Span, evt intent.Event, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	e.logger.Error("failed to deliver event",
		zap.String("type", string(evt.Type)),
		zap.String("intent_id", evt.IntentID),
		zap.Error(err),
	)
}
