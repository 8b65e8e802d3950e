// Package widget wires identity, variant assignment, delivery and the
// resolution timer into the tracking lifecycle of one page load.
package widget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/headline-goat/intent-goat/internal/clock"
	"github.com/headline-goat/intent-goat/internal/identity"
	"github.com/headline-goat/intent-goat/internal/intent"
	"github.com/headline-goat/intent-goat/internal/resolution"
	"github.com/headline-goat/intent-goat/internal/surface"
	"github.com/headline-goat/intent-goat/internal/variant"
)

// Emitter delivers one event without blocking the caller.
type Emitter interface {
	Emit(ctx context.Context, evt intent.Event)
}

// Page is the readiness signal of the host document.
type Page interface {
	Loading() bool
	OnReady(fn func())
}

type Config struct {
	Resolver *identity.Resolver
	Assigner *variant.Assigner
	Emitter  Emitter
	Surface  *surface.Surface

	// Clock and Delay drive the resolution window. Zero values mean the
	// real clock and resolution.DefaultDelay.
	Clock clock.Clock
	Delay time.Duration

	Logger *zap.Logger
}

// Widget owns the state of one page load. It tracks at most one intent.
type Widget struct {
	resolver *identity.Resolver
	assigner *variant.Assigner
	emitter  Emitter
	surface  *surface.Surface
	clock    clock.Clock
	delay    time.Duration
	logger   *zap.Logger

	once sync.Once
	mu   sync.Mutex
	run  *run
}

// run is the state of an initialized page load, written once by init.
type run struct {
	ctx     context.Context
	id      string
	variant intent.Variant
	timer   *resolution.Timer
}

func New(cfg Config) *Widget {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sf := cfg.Surface
	if sf == nil {
		sf = surface.New()
	}
	return &Widget{
		resolver: cfg.Resolver,
		assigner: cfg.Assigner,
		emitter:  cfg.Emitter,
		surface:  sf,
		clock:    cfg.Clock,
		delay:    cfg.Delay,
		logger:   logger.With(zap.String("load_id", uuid.NewString())),
	}
}

func (w *Widget) Surface() *surface.Surface { return w.surface }

// Start initializes tracking once. If the page is still loading,
// initialization is deferred to its ready signal; otherwise it runs before
// Start returns. Later calls do nothing.
func (w *Widget) Start(ctx context.Context, p Page) {
	w.once.Do(func() {
		if p != nil && p.Loading() {
			w.logger.Debug("page loading, deferring initialization")
			p.OnReady(func() { w.init(ctx) })
			return
		}
		w.init(ctx)
	})
}

func (w *Widget) init(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			w.logger.Error("initialization aborted", zap.Error(fmt.Errorf("panic: %v", p)))
		}
	}()

	id, ok := w.resolver.Resolve()
	if !ok {
		return
	}

	v, err := w.assigner.Assign(ctx, id)
	if err != nil {
		w.logger.Error("initialization aborted", zap.String("intent_id", id), zap.Error(err))
		return
	}

	r := &run{
		ctx:     ctx,
		id:      id,
		variant: v,
		timer:   resolution.New(w.clock, w.delay),
	}

	// Held until the timer is armed so a concurrent completion call cannot
	// observe a published but unarmed run.
	w.mu.Lock()
	defer w.mu.Unlock()
	w.run = r

	armed := false
	defer func() {
		if !armed {
			w.run = nil
			w.surface.Withdraw()
		}
	}()

	w.surface.Publish(surface.Capability{
		Intent:        id,
		Variant:       v,
		TicketCreated: w.TicketCreated,
	})

	w.emitter.Emit(ctx, intent.NewEvent(intent.EventImpression, id, v))

	if err := r.timer.Arm(func() {
		w.logger.Info("resolution window elapsed", zap.String("intent_id", id))
		w.emitter.Emit(r.ctx, intent.NewEvent(intent.EventResolution, id, v))
	}); err != nil {
		w.logger.Error("initialization aborted", zap.String("intent_id", id), zap.Error(err))
		return
	}
	armed = true

	w.logger.Info("tracking intent",
		zap.String("intent_id", id),
		zap.String("variant", string(v)),
		zap.Duration("window", r.timer.Delay()),
	)
}

// TicketCreated is the host's completion hook. It cancels the resolution
// timer and emits ticket_created; if no timer is armed it does nothing.
func (w *Widget) TicketCreated() {
	w.mu.Lock()
	r := w.run
	w.mu.Unlock()

	if r == nil || r.id == "" || r.variant == "" {
		return
	}
	if !r.timer.Cancel() {
		return
	}

	w.logger.Info("ticket created", zap.String("intent_id", r.id))
	w.emitter.Emit(r.ctx, intent.NewEvent(intent.EventTicketCreated, r.id, r.variant))
}

// Intent reports the tracked intent. ok is false until initialization has
// succeeded.
func (w *Widget) Intent() (id string, v intent.Variant, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.run == nil {
		return "", "", false
	}
	return w.run.id, w.run.variant, true
}

// State reports the lifecycle state of the tracked intent.
func (w *Widget) State() (intent.State, bool) {
	w.mu.Lock()
	r := w.run
	w.mu.Unlock()
	if r == nil {
		return "", false
	}

	switch r.timer.State() {
	case resolution.Armed:
		return intent.StateArmed, true
	case resolution.Fired:
		return intent.StateResolved, true
	case resolution.Cancelled:
		return intent.StateTicketed, true
	default:
		return "", false
	}
}
