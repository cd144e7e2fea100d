package backend

import (
	"github.com/smartyoni/inaeFlexbook/internal/services"
)

// Store is the full persistence surface the HTTP server needs. The
// SQLite repository and the in-memory store both satisfy it.
type Store interface {
	services.TransactionStore
	services.TaxonomyStore
	services.ProjectStore
	services.RecurringStore
}

// Backend bundles the wired services over one store.
type Backend struct {
	Store        Store
	Transactions *services.TransactionService
	Taxonomy     *services.TaxonomyService
	Projects     *services.ProjectService
	Recurring    *services.RecurringProcessor
}

// CleanupFunc releases backend resources
type CleanupFunc func() error

// Result contains the backend instance and optional cleanup function
type Result struct {
	Backend *Backend
	Cleanup CleanupFunc
}

// Type selects which backend the factory builds.
type Type string

const (
	// SQLiteType is local-only persistence, no mirror pipeline.
	SQLiteType Type = "sqlite"

	// SyncedType is SQLite plus the AMQP mirror queue.
	SyncedType Type = "synced"

	// MemoryType keeps everything in process memory.
	MemoryType Type = "memory"
)

// IsValid reports whether the type is one the factory knows.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteType, SyncedType, MemoryType:
		return true
	}
	return false
}
