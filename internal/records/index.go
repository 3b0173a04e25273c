package records

import "github.com/starford/visproject/internal/models"

// Store defines the record operations consumers depend on. Aggregation and
// the service layer take this interface so tests can substitute an
// in-memory fake.
type Store interface {
	Add(mode models.Mode, rec models.Record) (int64, error)
	AddBatch(mode models.Mode, recs []models.Record) error
	ByNode(mode models.Mode, nodeID string, rng models.DateRange) ([]models.Record, error)
	All(mode models.Mode, rng models.DateRange) ([]models.Record, error)
	Count(mode models.Mode) (int, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
