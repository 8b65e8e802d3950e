package variant_test

import (
	"context"
	"errors"
	"testing"

	"github.com/headline-goat/intent-goat/internal/intent"
	"github.com/headline-goat/intent-goat/internal/variant"
)

func TestAssign_Idempotent(t *testing.T) {
	ctx := context.Background()
	storage := variant.NewMemoryStorage()

	draws := 0
	a := variant.NewAssigner(storage, variant.WithRand(func() float64 {
		draws++
		return 0.9
	}))

	first, err := a.Assign(ctx, "t-42")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if !first.Valid() {
		t.Fatalf("expected A or B, got %q", first)
	}

	for i := 0; i < 5; i++ {
		got, err := a.Assign(ctx, "t-42")
		if err != nil {
			t.Fatalf("assign %d failed: %v", i, err)
		}
		if got != first {
			t.Errorf("assign %d: expected %s, got %s", i, first, got)
		}
	}

	if draws != 1 {
		t.Errorf("expected exactly 1 random draw, got %d", draws)
	}
	if storage.Len() != 1 {
		t.Errorf("expected 1 stored entry, got %d", storage.Len())
	}
}

func TestAssign_ForcedDraws(t *testing.T) {
	tests := []struct {
		draw float64
		want intent.Variant
	}{
		{0.0, intent.VariantA},
		{0.49, intent.VariantA},
		{0.5, intent.VariantB},
		{0.99, intent.VariantB},
	}

	for _, tc := range tests {
		a := variant.NewAssigner(variant.NewMemoryStorage(), variant.WithRand(func() float64 { return tc.draw }))
		got, err := a.Assign(context.Background(), "t-1")
		if err != nil {
			t.Fatalf("draw %v: %v", tc.draw, err)
		}
		if got != tc.want {
			t.Errorf("draw %v: expected %s, got %s", tc.draw, tc.want, got)
		}
	}
}

func TestAssign_StableAcrossAssigners(t *testing.T) {
	ctx := context.Background()
	storage := variant.NewMemoryStorage()

	first, _ := variant.NewAssigner(storage, variant.WithRand(variant.Fixed(intent.VariantB))).Assign(ctx, "t-42")
	// A later page load with a different draw still sees the stored value.
	second, _ := variant.NewAssigner(storage, variant.WithRand(variant.Fixed(intent.VariantA))).Assign(ctx, "t-42")

	if first != intent.VariantB || second != intent.VariantB {
		t.Errorf("expected B twice, got %s then %s", first, second)
	}
}

func TestAssign_ReturnsStoredValueVerbatim(t *testing.T) {
	ctx := context.Background()
	storage := variant.NewMemoryStorage()
	_ = storage.SaveVariant(ctx, variant.DefaultPrefix+"t-42", "tampered")

	got, err := variant.NewAssigner(storage).Assign(ctx, "t-42")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if got != "tampered" {
		t.Errorf("expected stored value verbatim, got %q", got)
	}
}

func TestAssign_Prefix(t *testing.T) {
	ctx := context.Background()
	storage := variant.NewMemoryStorage()
	a := variant.NewAssigner(storage, variant.WithPrefix("helpdesk:"), variant.WithRand(variant.Fixed(intent.VariantA)))

	if _, err := a.Assign(ctx, "t-3"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	v, found, _ := storage.LoadVariant(ctx, "helpdesk:t-3")
	if !found || v != "A" {
		t.Errorf("expected A under helpdesk:t-3, got %q found=%v", v, found)
	}
}

type failingStorage struct{ loadErr, saveErr error }

func (f failingStorage) LoadVariant(context.Context, string) (string, bool, error) {
	return "", false, f.loadErr
}

func (f failingStorage) SaveVariant(context.Context, string, string) error {
	return f.saveErr
}

func TestAssign_StorageErrors(t *testing.T) {
	boom := errors.New("quota exceeded")

	_, err := variant.NewAssigner(failingStorage{loadErr: boom}).Assign(context.Background(), "t-1")
	if !errors.Is(err, boom) {
		t.Errorf("expected load error to wrap %v, got %v", boom, err)
	}

	_, err = variant.NewAssigner(failingStorage{saveErr: boom}).Assign(context.Background(), "t-1")
	if !errors.Is(err, boom) {
		t.Errorf("expected save error to wrap %v, got %v", boom, err)
	}
}
