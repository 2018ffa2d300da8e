// internal/matching/batch.go
// Daily batch lifecycle: lazy generation of a frozen top-N snapshot with
// a 24h expiry, a server-owned cursor over it, and idempotent viewed/liked
// transitions. The batch deliberately does not react to profile changes
// within its window; only the live discovery path does.

package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

func batchDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// GetCurrentDailyMatch returns the match at the cursor, generating
// today's batch first if no unexpired one exists. A nil match with a nil
// error means the batch is exhausted or empty.
func (s *service) GetCurrentDailyMatch(ctx context.Context, userID int64) (*DailyMatch, error) {
	matches, err := s.ensureBatch(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	// The cursor is keyed by the batch's own date, not the wall-clock day:
	// a batch window crossing UTC midnight must keep its position.
	idx, err := s.cursors.Get(ctx, userID, matches[0].BatchDate)
	if err != nil {
		// A lost cursor degrades to the top of the batch, never to an error
		log.Printf("matching: cursor read failed for user %d: %v", userID, err)
		idx = 0
	}

	if idx >= len(matches) {
		return nil, nil
	}

	return matches[idx], nil
}

// AdvanceDailyMatch moves the cursor forward by one and returns the match
// now under it, or nil when the batch is exhausted. Advancing is an
// explicit client operation; viewing never advances implicitly.
func (s *service) AdvanceDailyMatch(ctx context.Context, userID int64) (*DailyMatch, error) {
	matches, err := s.ensureBatch(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	idx, err := s.cursors.Advance(ctx, userID, matches[0].BatchDate)
	if err != nil {
		return nil, fmt.Errorf("%w: advance cursor: %v", ErrDataUnavailable, err)
	}

	if idx >= len(matches) {
		return nil, nil
	}

	return matches[idx], nil
}

// MarkViewed flags a daily match as seen. Stale or unknown ids are a
// logged no-op, never an error.
func (s *service) MarkViewed(ctx context.Context, matchID uuid.UUID) error {
	found, err := s.repo.MarkViewed(ctx, matchID, s.now())
	if err != nil {
		return fmt.Errorf("%w: mark viewed: %v", ErrDataUnavailable, err)
	}

	if !found {
		RecordStaleMutation()
		log.Printf("matching: stale viewed mutation for match %s: %v", matchID, ErrMatchNotFound)
	}

	return nil
}

// MarkLiked records a like/pass decision; liking implies viewed. Stale or
// unknown ids are a logged no-op, never an error.
func (s *service) MarkLiked(ctx context.Context, matchID uuid.UUID, liked bool) error {
	match, err := s.repo.MarkLiked(ctx, matchID, liked, s.now())
	if err != nil {
		return fmt.Errorf("%w: mark liked: %v", ErrDataUnavailable, err)
	}

	if match == nil {
		RecordStaleMutation()
		log.Printf("matching: stale liked mutation for match %s: %v", matchID, ErrMatchNotFound)
		return nil
	}

	if s.hub != nil && liked {
		s.hub.NotifyLiked(match.MatchedUserID, match)
	}

	return nil
}

// CleanupExpiredMatches sweeps long-expired rows from storage
func (s *service) CleanupExpiredMatches(ctx context.Context) error {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("matching: swept %d expired daily matches", n)
	}
	return nil
}

// ensureBatch returns the unexpired batch for the user, lazily generating
// one when none exists for today. Concurrent first requests collapse into
// a single generation run.
func (s *service) ensureBatch(ctx context.Context, userID int64) ([]*DailyMatch, error) {
	matches, err := s.repo.ListActiveMatches(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: list active matches: %v", ErrDataUnavailable, err)
	}
	if len(matches) > 0 {
		return matches, nil
	}

	day := batchDay(s.now())
	key := fmt.Sprintf("%d:%s", userID, day)

	if _, err, _ := s.gen.Do(key, func() (interface{}, error) {
		return nil, s.generateBatch(ctx, userID, day)
	}); err != nil {
		return nil, err
	}

	matches, err = s.repo.ListActiveMatches(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: list active matches: %v", ErrDataUnavailable, err)
	}

	return matches, nil
}

// generateBatch runs the pipeline and freezes the top-N as today's batch
func (s *service) generateBatch(ctx context.Context, userID int64, day string) error {
	acquired, err := s.lock.Acquire(ctx, userID, day, s.cfg.LockTTL)
	if err != nil {
		// A lock backend failure must not block matching; the idempotent
		// insert below still collapses duplicate runs.
		log.Printf("matching: generation lock unavailable for user %d: %v", userID, err)
		acquired = true
	} else if !acquired {
		// Another instance is generating; readers will pick its batch up
		return nil
	} else {
		defer func() {
			if err := s.lock.Release(ctx, userID, day); err != nil {
				log.Printf("matching: generation lock release failed for user %d: %v", userID, err)
			}
		}()
	}

	// Double-check under the lock: another run may have finished while we
	// were waiting on it.
	exists, err := s.repo.HasActiveBatch(ctx, userID, day, s.now())
	if err != nil {
		return fmt.Errorf("%w: check active batch: %v", ErrDataUnavailable, err)
	}
	if exists {
		return nil
	}

	user, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: get profile %d: %v", ErrDataUnavailable, userID, err)
	}

	minScore := s.cfg.MinScore
	ranked, err := s.pipeline.BuildRankedCandidates(ctx, user, &CandidateFilters{MinScore: &minScore})
	if err != nil {
		return err
	}

	if len(ranked) > s.cfg.Size {
		ranked = ranked[:s.cfg.Size]
	}
	if len(ranked) == 0 {
		return nil
	}

	now := s.now()
	rows := make([]*DailyMatch, 0, len(ranked))
	for _, match := range ranked {
		breakdown, err := json.Marshal(match.Breakdown)
		if err != nil {
			return fmt.Errorf("failed to marshal breakdown: %w", err)
		}

		rows = append(rows, &DailyMatch{
			ID:                 uuid.New(),
			UserID:             userID,
			MatchedUserID:      match.Candidate.ID,
			CompatibilityScore: match.Score,
			Breakdown:          breakdown,
			BatchDate:          day,
			GeneratedAt:        now,
			ExpiresAt:          now.Add(s.cfg.TTL),
		})
	}

	inserted, err := s.repo.InsertBatch(ctx, rows)
	if err != nil {
		return fmt.Errorf("%w: insert batch: %v", ErrDataUnavailable, err)
	}

	if inserted > 0 {
		RecordBatchGenerated(inserted)
		if s.hub != nil {
			s.hub.NotifyBatchReady(userID, inserted)
		}
	}

	return nil
}
