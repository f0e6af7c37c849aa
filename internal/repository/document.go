package repository

import (
	"context"
	"errors"

	"docvault/internal/model"
	"docvault/internal/query"
)

var (
	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("duplicate key")
	// ErrVersionMismatch is returned when an update's expected version is stale.
	ErrVersionMismatch = errors.New("version mismatch")
)

// DocumentRepository defines data access for document records.
// No business logic here; strictly persistence operations. Missing rows are
// reported as sql.ErrNoRows.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns the documents matching c in the order c.Sort requests.
	List(ctx context.Context, c query.Criteria) ([]model.Document, error)

	// Update replaces the mutable fields of doc and bumps its version.
	// A non-zero expectedVersion must match the stored version.
	Update(ctx context.Context, doc *model.Document, expectedVersion int) (*model.Document, error)

	// Delete removes a document by ID and returns sql.ErrNoRows if it did not exist.
	Delete(ctx context.Context, id string) error

	// ReferencedObjectIDs returns the subset of objectIDs referenced by any document.
	ReferencedObjectIDs(ctx context.Context, objectIDs []string) (map[string]bool, error)

	// TagUsage counts how many documents carry each tag.
	TagUsage(ctx context.Context) (map[string]int, error)
}

// TagRepository defines data access for the tag registry.
type TagRepository interface {
	// List returns all tags ordered by usage count desc, then name asc.
	List(ctx context.Context) ([]model.Tag, error)

	// Create inserts a tag with a zero usage count, or returns ErrDuplicate.
	Create(ctx context.Context, name string) (*model.Tag, error)

	// AdjustUsage adds delta to each named tag's count, creating missing tags.
	// Counts never drop below zero.
	AdjustUsage(ctx context.Context, names []string, delta int) error

	// SetUsage overwrites usage counts; tags absent from counts are reset to zero.
	SetUsage(ctx context.Context, counts map[string]int) error
}
