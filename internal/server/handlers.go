package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/headline-goat/intent-goat/internal/intent"
	"github.com/headline-goat/intent-goat/internal/stats"
)

type HealthResponse struct {
	Status        string `json:"status"`
	EventsCount   int    `json:"events_count"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := s.store.CountEvents(r.Context())
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := HealthResponse{
		Status:        "ok",
		EventsCount:   count,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	// Set CORS headers for all responses
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var evt intent.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&evt); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if evt.IntentID == "" {
		http.Error(w, "Missing intent_id", http.StatusBadRequest)
		return
	}
	if !evt.Type.Valid() {
		http.Error(w, "Invalid event type", http.StatusBadRequest)
		return
	}
	if !evt.Variant.Valid() {
		http.Error(w, "Invalid variant", http.StatusBadRequest)
		return
	}

	if err := s.store.RecordEvent(r.Context(), string(evt.Type), evt.IntentID, string(evt.Variant)); err != nil {
		s.logger.Error("failed to record event", zap.Stringer("event", evt), zap.Error(err))
		http.Error(w, "Failed to record event", http.StatusInternalServerError)
		return
	}

	s.logger.Debug("event recorded", zap.Stringer("event", evt))
	w.WriteHeader(http.StatusNoContent)
}

type apiVariantResult struct {
	Variant     string  `json:"variant"`
	Impressions int     `json:"impressions"`
	Tickets     int     `json:"tickets"`
	Resolutions int     `json:"resolutions"`
	Open        int     `json:"open"`
	TicketRate  float64 `json:"ticket_rate"`
	CILower     float64 `json:"ci_lower"`
	CIUpper     float64 `json:"ci_upper"`
}

type apiResults struct {
	Variants        []apiVariantResult `json:"variants"`
	Leading         string             `json:"leading"`
	Confident       bool               `json:"confident"`
	ConfidenceLevel float64            `json:"confidence_level"`
}

func (s *Server) handleResultsAPI(w http.ResponseWriter, r *http.Request) {
	variantStats, err := s.store.GetVariantStats(r.Context())
	if err != nil {
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	result := stats.Analyze(variantStats)

	response := apiResults{
		Variants:        make([]apiVariantResult, len(result.Variants)),
		Leading:         string(result.Leading),
		Confident:       result.Confident,
		ConfidenceLevel: result.ConfidenceLevel,
	}
	for i, v := range result.Variants {
		response.Variants[i] = apiVariantResult{
			Variant:     string(v.Variant),
			Impressions: v.Impressions,
			Tickets:     v.Tickets,
			Resolutions: v.Resolutions,
			Open:        v.Open,
			TicketRate:  v.TicketRate,
			CILower:     v.CILower,
			CIUpper:     v.CIUpper,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
