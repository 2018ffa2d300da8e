// internal/blocklist/service.go
// Pairwise block relations. Storage is directional (blocker -> blocked)
// but every read treats a block in either direction as exclusion.

package blocklist

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// BlockRelation is a directional block row
type BlockRelation struct {
	BlockerID int64     `json:"blocker_id" db:"blocker_id"`
	BlockedID int64     `json:"blocked_id" db:"blocked_id"`
	Reason    *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Service defines the block list surface
type Service interface {
	Block(ctx context.Context, blockerID, blockedID int64, reason *string) error
	Unblock(ctx context.Context, blockerID, blockedID int64) error
	IsBlockedEitherDirection(ctx context.Context, userA, userB int64) (bool, error)
	ListBlockedIDs(ctx context.Context, userID int64) (map[int64]struct{}, error)
}

// postgresService implements Service using PostgreSQL
type postgresService struct {
	db *sqlx.DB
}

// NewPostgresService creates a new PostgreSQL block list service
func NewPostgresService(db *sqlx.DB) Service {
	return &postgresService{db: db}
}

// Block records a block relation; re-blocking is a no-op
func (s *postgresService) Block(ctx context.Context, blockerID, blockedID int64, reason *string) error {
	if blockerID == blockedID {
		return fmt.Errorf("cannot block yourself")
	}

	query := `
		INSERT INTO user_blocks (blocker_id, blocked_id, reason)
		VALUES ($1, $2, $3)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, blockerID, blockedID, reason); err != nil {
		return fmt.Errorf("failed to block user: %w", err)
	}

	return nil
}

// Unblock removes a block relation in the blocker's direction only
func (s *postgresService) Unblock(ctx context.Context, blockerID, blockedID int64) error {
	query := `DELETE FROM user_blocks WHERE blocker_id = $1 AND blocked_id = $2`

	if _, err := s.db.ExecContext(ctx, query, blockerID, blockedID); err != nil {
		return fmt.Errorf("failed to unblock user: %w", err)
	}

	return nil
}

// IsBlockedEitherDirection reports whether either user has blocked the other
func (s *postgresService) IsBlockedEitherDirection(ctx context.Context, userA, userB int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)
	`

	if err := s.db.GetContext(ctx, &exists, query, userA, userB); err != nil {
		return false, fmt.Errorf("failed to check block relation: %w", err)
	}

	return exists, nil
}

// ListBlockedIDs returns every user id blocked by or blocking the given user
func (s *postgresService) ListBlockedIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	query := `
		SELECT blocked_id FROM user_blocks WHERE blocker_id = $1
		UNION
		SELECT blocker_id FROM user_blocks WHERE blocked_id = $1
	`

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list blocked ids: %w", err)
	}

	blocked := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		blocked[id] = struct{}{}
	}

	return blocked, nil
}
