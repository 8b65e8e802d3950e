// Package variant buckets intent ids into experiment variants and keeps the
// assignment stable across page loads.
package variant

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/headline-goat/intent-goat/internal/intent"
)

// DefaultPrefix namespaces assignment keys in shared storage.
const DefaultPrefix = "igt_variant_"

// Storage persists assignments. Load reports found=false for a missing key.
type Storage interface {
	LoadVariant(ctx context.Context, key string) (value string, found bool, err error)
	SaveVariant(ctx context.Context, key, value string) error
}

type Assigner struct {
	storage Storage
	prefix  string
	rand    func() float64
}

type Option func(*Assigner)

// WithRand replaces the random source. fn must return values in [0, 1).
func WithRand(fn func() float64) Option {
	return func(a *Assigner) { a.rand = fn }
}

func WithPrefix(prefix string) Option {
	return func(a *Assigner) { a.prefix = prefix }
}

func NewAssigner(storage Storage, opts ...Option) *Assigner {
	a := &Assigner{
		storage: storage,
		prefix:  DefaultPrefix,
		rand:    rand.Float64,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assigner) Key(id string) string {
	return a.prefix + id
}

// Assign returns the stored variant for id, or draws one 50/50 and stores
// it. Stored values are returned verbatim.
func (a *Assigner) Assign(ctx context.Context, id string) (intent.Variant, error) {
	key := a.Key(id)

	stored, found, err := a.storage.LoadVariant(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to load variant: %w", err)
	}
	if found {
		return intent.Variant(stored), nil
	}

	v := intent.VariantA
	if a.rand() >= 0.5 {
		v = intent.VariantB
	}

	if err := a.storage.SaveVariant(ctx, key, string(v)); err != nil {
		return "", fmt.Errorf("failed to save variant: %w", err)
	}
	return v, nil
}

// Fixed returns a random source that always draws v.
func Fixed(v intent.Variant) func() float64 {
	if v == intent.VariantB {
		return func() float64 { return 0.75 }
	}
	return func() float64 { return 0.25 }
}

// MemoryStorage keeps assignments for the life of the process.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) LoadVariant(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// SaveVariant keeps the first value written for a key.
func (m *MemoryStorage) SaveVariant(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		m.values[key] = value
	}
	return nil
}

func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
