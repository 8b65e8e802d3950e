// Package surface is the host-facing integration object. The host may create
// it and set an intent before the widget starts; the widget later publishes
// its capability into the same object.
package surface

import (
	"sync"

	"github.com/headline-goat/intent-goat/internal/intent"
)

// Capability is what the widget exposes to the host after initialization.
type Capability struct {
	Intent        string
	Variant       intent.Variant
	TicketCreated func()
}

type Surface struct {
	mu            sync.RWMutex
	hostIntent    string
	intent        string
	variant       intent.Variant
	ticketCreated func()
	published     bool
	fields        map[string]any
}

func New() *Surface {
	return &Surface{fields: make(map[string]any)}
}

// SetIntent records an intent id supplied by the host ahead of the widget.
func (s *Surface) SetIntent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hostIntent = id
	s.intent = id
}

func (s *Surface) Intent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.intent
}

func (s *Surface) Variant() intent.Variant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.variant
}

func (s *Surface) Published() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.published
}

// Set stores an arbitrary host field. Publish never touches these.
func (s *Surface) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[key] = value
}

func (s *Surface) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.fields[key]
	return v, ok
}

// Publish merges c into the surface. Only intent, variant and the completion
// hook are written; other host fields survive.
func (s *Surface) Publish(c Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.intent = c.Intent
	s.variant = c.Variant
	s.ticketCreated = c.TicketCreated
	s.published = true
}

// Withdraw undoes Publish. The intent reverts to whatever the host set and
// host fields are left alone.
func (s *Surface) Withdraw() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.intent = s.hostIntent
	s.variant = ""
	s.ticketCreated = nil
	s.published = false
}

// TicketCreated is the host's completion call. Before a capability has been
// published it does nothing.
func (s *Surface) TicketCreated() {
	s.mu.RLock()
	hook := s.ticketCreated
	s.mu.RUnlock()

	if hook != nil {
		hook()
	}
}
