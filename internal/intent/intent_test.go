package intent_test

import (
	"encoding/json"
	"testing"

	"github.com/headline-goat/intent-goat/internal/intent"
)

func TestVariant_Valid(t *testing.T) {
	tests := []struct {
		v    intent.Variant
		want bool
	}{
		{intent.VariantA, true},
		{intent.VariantB, true},
		{"C", false},
		{"a", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.v.Valid(); got != tt.want {
			t.Errorf("Variant(%q).Valid() = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestEventType_Valid(t *testing.T) {
	for _, typ := range []intent.EventType{intent.EventImpression, intent.EventResolution, intent.EventTicketCreated} {
		if !typ.Valid() {
			t.Errorf("expected %q to be valid", typ)
		}
	}
	if intent.EventType("click").Valid() {
		t.Error("expected unknown type to be invalid")
	}
}

func TestNewEvent_WireShape(t *testing.T) {
	evt := intent.NewEvent(intent.EventTicketCreated, "t-42", intent.VariantB)

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	want := `{"type":"ticket_created","intent_id":"t-42","variant":"B"}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
	if evt.String() != "ticket_created(t-42/B)" {
		t.Errorf("unexpected string form: %s", evt.String())
	}
}
