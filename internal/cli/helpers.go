package cli

import (
	"fmt"
	"path/filepath"

	"github.com/headline-goat/intent-goat/internal/store"
)

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// getTokenFilePath resolves the token file. Relative paths sit alongside the
// database.
func getTokenFilePath() string {
	if filepath.IsAbs(cfg.TokenFile) {
		return cfg.TokenFile
	}
	return filepath.Join(filepath.Dir(cfg.DBPath), cfg.TokenFile)
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}
