package store

import (
	"errors"

	"github.com/josephgoksu/CostWing/models"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("record not found")

// ResultStore persists run results keyed by project id.
// Each Save is atomic: a failed write leaves previously stored records intact.
type ResultStore interface {
	// Initialize configures the store with backend-specific settings such as
	// the data file path and format. It must be called before anything else.
	Initialize(config map[string]string) error

	// Save stores a record. A missing ID is generated and a zero CreatedAt is
	// set to the current time. It returns the stored record.
	Save(rec models.Record) (models.Record, error)

	// Latest returns the newest record for a project, optionally restricted
	// to one kind (empty kind matches all). It returns ErrNotFound if none exist.
	Latest(projectID string, kind models.RecordKind) (models.Record, error)

	// List returns every record of a project, oldest first.
	List(projectID string) ([]models.Record, error)

	// DeleteProject removes all records of a project and returns how many were removed.
	DeleteProject(projectID string) (int, error)

	// Close releases file locks or database connections.
	Close() error
}
