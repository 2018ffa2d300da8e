package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hodlmatch/hodlmatch-backend/internal/profile"
)

// Repository persists daily batches. Reads are always expiry-filtered;
// expired rows stay on disk until the sweeper removes them but are
// invisible to every read path.
type Repository interface {
	InsertBatch(ctx context.Context, matches []*DailyMatch) (int, error)
	ListActiveMatches(ctx context.Context, userID int64, now time.Time) ([]*DailyMatch, error)
	HasActiveBatch(ctx context.Context, userID int64, batchDate string, now time.Time) (bool, error)
	MarkViewed(ctx context.Context, matchID uuid.UUID, now time.Time) (bool, error)
	MarkLiked(ctx context.Context, matchID uuid.UUID, liked bool, now time.Time) (*DailyMatch, error)
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL match repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// InsertBatch persists a generation run. The unique key on
// (user_id, batch_date, matched_user_id) makes concurrent duplicate runs
// collapse into one batch; the conflict is swallowed, never surfaced.
func (r *postgresRepository) InsertBatch(ctx context.Context, matches []*DailyMatch) (int, error) {
	if len(matches) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin batch insert: %w", err)
	}
	defer tx.Rollback()

	// An expired batch from the same calendar day would otherwise collide
	// with the upsert's conflict key and swallow the regeneration.
	clearExpired := `
		DELETE FROM daily_matches
		WHERE user_id = $1 AND batch_date = $2 AND expires_at <= $3
	`
	if _, err := tx.ExecContext(ctx, clearExpired, matches[0].UserID, matches[0].BatchDate, matches[0].GeneratedAt); err != nil {
		return 0, fmt.Errorf("failed to clear expired batch: %w", err)
	}

	query := `
		INSERT INTO daily_matches (
			id, user_id, matched_user_id, compatibility_score, breakdown,
			batch_date, generated_at, expires_at, viewed, liked
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, NULL)
		ON CONFLICT (user_id, batch_date, matched_user_id) DO NOTHING
	`

	inserted := 0
	for _, m := range matches {
		res, err := tx.ExecContext(
			ctx, query,
			m.ID, m.UserID, m.MatchedUserID, m.CompatibilityScore,
			m.Breakdown, m.BatchDate, m.GeneratedAt, m.ExpiresAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert daily match: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch insert: %w", err)
	}

	return inserted, nil
}

// ListActiveMatches returns the unexpired batch for a user ordered by
// descending score (matched user id ascending on ties), with the matched
// profile joined in for presentation.
func (r *postgresRepository) ListActiveMatches(ctx context.Context, userID int64, now time.Time) ([]*DailyMatch, error) {
	query := `
		SELECT dm.id, dm.user_id, dm.matched_user_id, dm.compatibility_score,
		       dm.breakdown, dm.batch_date, dm.generated_at, dm.expires_at,
		       dm.viewed, dm.liked,
		       p.id, p.display_name, p.age, p.bio, p.location, p.interests,
		       p.looking_for, p.gender_identity, p.orientation, p.genders_sought,
		       p.relationship_type, p.favorite_asset, p.experience_tier,
		       p.portfolio_tier, p.trading_style, p.is_profile_complete, p.created_at
		FROM daily_matches dm
		JOIN profiles p ON dm.matched_user_id = p.id
		WHERE dm.user_id = $1 AND dm.expires_at > $2
		ORDER BY dm.compatibility_score DESC, dm.matched_user_id ASC
	`

	rows, err := r.db.QueryxContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active matches: %w", err)
	}
	defer rows.Close()

	var matches []*DailyMatch
	for rows.Next() {
		var m DailyMatch
		var p profile.Profile

		err := rows.Scan(
			&m.ID, &m.UserID, &m.MatchedUserID, &m.CompatibilityScore,
			&m.Breakdown, &m.BatchDate, &m.GeneratedAt, &m.ExpiresAt,
			&m.Viewed, &m.Liked,
			&p.ID, &p.DisplayName, &p.Age, &p.Bio, &p.Location, &p.Interests,
			&p.LookingFor, &p.GenderIdentity, &p.Orientation, &p.GendersSought,
			&p.RelationshipType, &p.FavoriteAsset, &p.ExperienceTier,
			&p.PortfolioTier, &p.TradingStyle, &p.IsProfileComplete, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily match: %w", err)
		}

		m.MatchedProfile = &p
		matches = append(matches, &m)
	}

	return matches, rows.Err()
}

// HasActiveBatch reports whether any unexpired row exists for the day
func (r *postgresRepository) HasActiveBatch(ctx context.Context, userID int64, batchDate string, now time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM daily_matches
			WHERE user_id = $1 AND batch_date = $2 AND expires_at > $3
		)
	`

	if err := r.db.GetContext(ctx, &exists, query, userID, batchDate, now); err != nil {
		return false, fmt.Errorf("failed to check active batch: %w", err)
	}

	return exists, nil
}

// MarkViewed flags a match as viewed. Returns false when the match is
// expired or unknown. Re-marking an already-viewed match is a no-op.
func (r *postgresRepository) MarkViewed(ctx context.Context, matchID uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE daily_matches
		SET viewed = TRUE
		WHERE id = $1 AND expires_at > $2
	`

	res, err := r.db.ExecContext(ctx, query, matchID, now)
	if err != nil {
		return false, fmt.Errorf("failed to mark viewed: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark viewed: %w", err)
	}

	return n > 0, nil
}

// MarkLiked records a like/pass decision. Liking always implies viewed.
// Returns the updated row, or nil when the match is expired or unknown.
func (r *postgresRepository) MarkLiked(ctx context.Context, matchID uuid.UUID, liked bool, now time.Time) (*DailyMatch, error) {
	query := `
		UPDATE daily_matches
		SET liked = $2, viewed = TRUE
		WHERE id = $1 AND expires_at > $3
		RETURNING id, user_id, matched_user_id, compatibility_score, breakdown,
		          batch_date, generated_at, expires_at, viewed, liked
	`

	var m DailyMatch
	err := r.db.QueryRowxContext(ctx, query, matchID, liked, now).StructScan(&m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to mark liked: %w", err)
	}

	return &m, nil
}

// DeleteExpired removes long-expired rows. Purely a storage sweep; reads
// never depend on it.
func (r *postgresRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM daily_matches WHERE expires_at < $1`

	res, err := r.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired matches: %w", err)
	}

	return res.RowsAffected()
}
