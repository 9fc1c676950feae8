package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Indexes the aggregation queries lean on. They are declared on Case so
// the migrator owns their DDL.
var caseIndexes = []string{
	// Per-court time series and top-N derivation
	"idx_cases_court_filing",
	// Latency queries only touch closed cases
	"idx_cases_closing",
}

// RunMigrations executes all database migrations
func RunMigrations(db *gorm.DB) error {
	if err := ensureIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// ensureIndexes creates any named index missing from an existing table,
// e.g. one created before the index was declared.
func ensureIndexes(db *gorm.DB) error {
	m := db.Migrator()
	for _, name := range caseIndexes {
		if m.HasIndex(&Case{}, name) {
			continue
		}
		if err := m.CreateIndex(&Case{}, name); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
