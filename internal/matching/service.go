// internal/matching/service.go

package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/hodlmatch/hodlmatch-backend/internal/profile"
)

// BatchConfig tunes the daily batch manager
type BatchConfig struct {
	Size     int
	TTL      time.Duration
	LockTTL  time.Duration
	MinScore float64
}

// Service is the engine surface exposed to client-facing handlers and
// the messaging collaborator
type Service interface {
	// Daily batch
	GetCurrentDailyMatch(ctx context.Context, userID int64) (*DailyMatch, error)
	AdvanceDailyMatch(ctx context.Context, userID int64) (*DailyMatch, error)
	MarkViewed(ctx context.Context, matchID uuid.UUID) error
	MarkLiked(ctx context.Context, matchID uuid.UUID, liked bool) error

	// On-demand discovery, independent of the daily batch
	RefreshLiveCandidates(ctx context.Context, userID int64, filters *CandidateFilters) ([]MatchScore, error)

	// Explainability
	CompatibilityBetween(ctx context.Context, userID, otherID int64) (*MatchScore, error)

	// Maintenance
	CleanupExpiredMatches(ctx context.Context) error
}

type service struct {
	repo     Repository
	pipeline *Pipeline
	profiles profile.Store
	lock     GenerationLock
	cursors  CursorStore
	hub      *Hub
	cfg      BatchConfig

	// Collapses concurrent in-process generation for the same user+day;
	// the Redis lock covers other instances.
	gen singleflight.Group

	now func() time.Time
}

// NewService creates the matching service. The hub may be nil when no
// notification surface is attached.
func NewService(repo Repository, pipeline *Pipeline, profiles profile.Store, lock GenerationLock, cursors CursorStore, hub *Hub, cfg BatchConfig) Service {
	if cfg.LockTTL == 0 {
		cfg.LockTTL = time.Minute
	}
	return &service{
		repo:     repo,
		pipeline: pipeline,
		profiles: profiles,
		lock:     lock,
		cursors:  cursors,
		hub:      hub,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RefreshLiveCandidates runs the candidate pipeline on demand
func (s *service) RefreshLiveCandidates(ctx context.Context, userID int64, filters *CandidateFilters) ([]MatchScore, error) {
	user, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: get profile %d: %v", ErrDataUnavailable, userID, err)
	}

	return s.pipeline.BuildRankedCandidates(ctx, user, filters)
}

// CompatibilityBetween scores an arbitrary pair for explainability views
func (s *service) CompatibilityBetween(ctx context.Context, userID, otherID int64) (*MatchScore, error) {
	user, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: get profile %d: %v", ErrDataUnavailable, userID, err)
	}

	other, err := s.profiles.GetProfile(ctx, otherID)
	if err != nil {
		return nil, fmt.Errorf("%w: get profile %d: %v", ErrDataUnavailable, otherID, err)
	}

	match := Score(user, other)
	return &match, nil
}
