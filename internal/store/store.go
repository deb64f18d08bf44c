// Package store persists review snapshots in a local SQLite database.
package store

import (
	"context"
	"time"

	"github.com/dshills/revaudit/internal/snapshot"
)

// ImportRecord describes one snapshot import.
type ImportRecord struct {
	ID         string
	FilePath   string
	Hash       string
	Reviewers  int
	Reviews    int
	ImportedAt time.Time
}

// Store defines the persistence interface for review snapshots.
type Store interface {
	// Import merges a snapshot into the database. Reviewers are upserted by
	// id and reviews replace any earlier review of the same package version
	// by the same reviewer.
	Import(ctx context.Context, s *snapshot.Snapshot) (*ImportRecord, error)
	// Load materializes the whole database as a snapshot.
	Load(ctx context.Context) (*snapshot.Snapshot, error)
	// Imports lists past imports, newest first.
	Imports(ctx context.Context) ([]ImportRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}
