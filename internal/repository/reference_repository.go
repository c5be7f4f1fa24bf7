package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Reference tables owned by the management subsystem.
const (
	ReferenceDiscipline = "discipline"
	ReferenceInstructor = "instructor"
	ReferenceClient     = "client"
)

var referenceTables = map[string]string{
	ReferenceDiscipline: "disciplines",
	ReferenceInstructor: "instructors",
	ReferenceClient:     "clients",
}

// ReferenceRepository resolves whether externally managed entities exist.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository creates a new reference repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Exists reports whether the entity with id is present.
func (r *ReferenceRepository) Exists(ctx context.Context, entity, id string) (bool, error) {
	table, ok := referenceTables[entity]
	if !ok {
		return false, fmt.Errorf("unknown reference entity %q", entity)
	}
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", table)
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check %s exists: %w", entity, err)
	}
	return exists, nil
}
