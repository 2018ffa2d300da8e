// internal/profile/store.go

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrProfileNotFound = errors.New("profile not found")

// Store is the read-only surface the matching engine consumes
type Store interface {
	GetProfile(ctx context.Context, id int64) (*Profile, error)
	QueryCandidates(ctx context.Context, excludeID int64, query *CandidateQuery) ([]*Profile, error)
}

// postgresStore implements Store using PostgreSQL
type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgreSQL profile store
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

const profileColumns = `
	id, display_name, age, bio, location, interests, looking_for,
	gender_identity, orientation, genders_sought, relationship_type,
	favorite_asset, experience_tier, portfolio_tier, trading_style,
	is_profile_complete, created_at`

// GetProfile retrieves a single profile by user id
func (s *postgresStore) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	var p Profile
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	err := s.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

// QueryCandidates fetches a bounded set of plausibly matchable profiles.
// The WHERE clauses mirror the pipeline's hard preconditions (complete
// profile, named, adult, stated preference) so scoring cost stays bounded.
func (s *postgresStore) QueryCandidates(ctx context.Context, excludeID int64, query *CandidateQuery) ([]*Profile, error) {
	q := `SELECT ` + profileColumns + `
		FROM profiles
		WHERE id != $1
		      AND is_profile_complete = TRUE
		      AND display_name <> ''
		      AND genders_sought IS NOT NULL
		      AND cardinality(genders_sought) > 0
		      AND age IS NOT NULL AND age >= $2`

	args := []interface{}{excludeID, query.MinAge}

	if query.RequesterGender != nil && *query.RequesterGender != "" {
		args = append(args, *query.RequesterGender)
		q += fmt.Sprintf(" AND $%d ILIKE ANY(genders_sought)", len(args))
	}

	args = append(args, query.Limit)
	q += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))

	var candidates []*Profile
	if err := s.db.SelectContext(ctx, &candidates, q, args...); err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}

	return candidates, nil
}
