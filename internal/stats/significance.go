package stats

import (
	"math"

	"github.com/headline-goat/intent-goat/internal/intent"
	"github.com/headline-goat/intent-goat/internal/store"
)

// Result is the outcome comparison between the two variants.
type Result struct {
	Variants        []VariantResult
	Confident       bool    // >= 95% confidence
	ConfidenceLevel float64 // 0-1
	Leading         intent.Variant
}

// VariantResult summarizes the intents tracked under one variant.
type VariantResult struct {
	Variant     intent.Variant
	Impressions int
	Tickets     int
	Resolutions int
	Open        int // impressions with no terminal event yet
	TicketRate  float64
	CILower     float64
	CIUpper     float64
}

// SignificanceTest performs a two-proportion z-test and returns the
// confidence (0-1) that the first proportion exceeds the second.
func SignificanceTest(aHits, aTrials, bHits, bTrials int) float64 {
	if aTrials == 0 || bTrials == 0 {
		return 0.5
	}

	pA := float64(aHits) / float64(aTrials)
	pB := float64(bHits) / float64(bTrials)
	pooled := float64(aHits+bHits) / float64(aTrials+bTrials)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(aTrials) + 1/float64(bTrials)))
	if se == 0 {
		switch {
		case pA > pB:
			return 1
		case pA < pB:
			return 0
		}
		return 0.5
	}

	return normalCDF((pA - pB) / se)
}

// Analyze compares ticket rates of variants A and B. Stored rows for any
// other variant value are ignored.
func Analyze(variantStats []store.VariantStats) *Result {
	byVariant := make(map[string]store.VariantStats, len(variantStats))
	for _, vs := range variantStats {
		byVariant[vs.Variant] = vs
	}

	order := []intent.Variant{intent.VariantA, intent.VariantB}
	variants := make([]VariantResult, len(order))
	for i, v := range order {
		vs := byVariant[string(v)]

		rate := 0.0
		if vs.Impressions > 0 {
			rate = float64(vs.Tickets) / float64(vs.Impressions)
		}
		lower, upper := WilsonInterval(vs.Tickets, vs.Impressions, 0.95)

		variants[i] = VariantResult{
			Variant:     v,
			Impressions: vs.Impressions,
			Tickets:     vs.Tickets,
			Resolutions: vs.Resolutions,
			Open:        max(0, vs.Impressions-vs.Tickets-vs.Resolutions),
			TicketRate:  rate,
			CILower:     lower,
			CIUpper:     upper,
		}
	}

	a, b := variants[0], variants[1]
	leading, trailing := a, b
	if b.TicketRate > a.TicketRate {
		leading, trailing = b, a
	}
	confidence := SignificanceTest(leading.Tickets, leading.Impressions, trailing.Tickets, trailing.Impressions)

	return &Result{
		Variants:        variants,
		Confident:       confidence >= 0.95,
		ConfidenceLevel: confidence,
		Leading:         leading.Variant,
	}
}
