package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
)

// MembershipRepository answers membership questions owned by the billing subsystem.
type MembershipRepository struct {
	db *sqlx.DB
}

// NewMembershipRepository creates a new membership repository.
func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// MembershipActive reports whether the client holds an active membership covering asOf.
func (r *MembershipRepository) MembershipActive(ctx context.Context, clientID string, asOf models.Date) (bool, error) {
	const query = `SELECT EXISTS (
	SELECT 1 FROM memberships
	WHERE client_id = $1 AND status = 'active' AND start_date <= $2 AND end_date >= $2
)`
	var active bool
	if err := r.db.GetContext(ctx, &active, query, clientID, asOf); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return active, nil
}
