package store

import "time"

type VariantAssignment struct {
	Key       string
	Value     string
	CreatedAt time.Time
}

type Event struct {
	ID        int64
	Type      string // "impression", "resolution" or "ticket_created"
	IntentID  string
	Variant   string
	CreatedAt time.Time
}

type VariantStats struct {
	Variant     string
	Impressions int
	Resolutions int
	Tickets     int
}
