// internal/matching/pipeline.go
// The candidate pipeline: fetch -> exclude blocked -> eligibility ->
// auxiliary filters -> score -> threshold -> rank. The fetch and block
// lookup are the only I/O; everything after is pure and cannot fail.

package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hodlmatch/hodlmatch-backend/internal/blocklist"
	"github.com/hodlmatch/hodlmatch-backend/internal/profile"
)

// PipelineConfig bounds a pipeline run
type PipelineConfig struct {
	CandidateLimit int
	MinScore       float64
	MinAge         int
}

// Pipeline builds ranked candidate lists for one user at a time
type Pipeline struct {
	profiles profile.Store
	blocks   blocklist.Service
	cfg      PipelineConfig
}

// NewPipeline creates a new candidate pipeline
func NewPipeline(profiles profile.Store, blocks blocklist.Service, cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		profiles: profiles,
		blocks:   blocks,
		cfg:      cfg,
	}
}

// BuildRankedCandidates produces the ranked, mutually-eligible candidate
// list for a user. An empty slice with a nil error means "no candidates";
// ErrNoPreferenceSet means the user cannot be matched yet; any store or
// block list failure aborts with ErrDataUnavailable.
func (p *Pipeline) BuildRankedCandidates(ctx context.Context, user *profile.Profile, filters *CandidateFilters) ([]MatchScore, error) {
	if user == nil || len(user.GendersSought) == 0 {
		return nil, ErrNoPreferenceSet
	}

	start := time.Now()
	defer func() {
		pipelineDuration.Observe(time.Since(start).Seconds())
	}()

	// Superset prefilter on the user's own gender identity; the full
	// bidirectional check below is still mandatory.
	query := &profile.CandidateQuery{
		RequesterGender: user.GenderIdentity,
		MinAge:          p.cfg.MinAge,
		Limit:           p.cfg.CandidateLimit,
	}

	candidates, err := p.profiles.QueryCandidates(ctx, user.ID, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query candidates: %v", ErrDataUnavailable, err)
	}

	blocked, err := p.blocks.ListBlockedIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list blocked ids: %v", ErrDataUnavailable, err)
	}

	minScore := p.cfg.MinScore
	if filters != nil && filters.MinScore != nil {
		minScore = *filters.MinScore
	}

	newSince := time.Now().Add(-7 * 24 * time.Hour)

	scored := make([]MatchScore, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ID == user.ID {
			continue
		}

		if _, isBlocked := blocked[candidate.ID]; isBlocked {
			candidatesFiltered.WithLabelValues("blocked").Inc()
			continue
		}

		if !IsMutuallyEligible(user, candidate) {
			candidatesFiltered.WithLabelValues("eligibility").Inc()
			continue
		}

		if filters != nil && !passesAuxFilters(candidate, filters, newSince) {
			candidatesFiltered.WithLabelValues("auxiliary").Inc()
			continue
		}

		match := Score(user, candidate)
		RecordCompatibilityScore(match.Score)

		if match.Score < minScore {
			candidatesFiltered.WithLabelValues("threshold").Inc()
			continue
		}

		scored = append(scored, match)
	}

	// Score descending, candidate id ascending on ties. The tiebreak keeps
	// the ordering reproducible across runs.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Candidate.ID < scored[j].Candidate.ID
	})

	return scored, nil
}

func passesAuxFilters(candidate *profile.Profile, filters *CandidateFilters, newSince time.Time) bool {
	if filters.NewThisWeek && candidate.CreatedAt.Before(newSince) {
		return false
	}

	if filters.MinAge != nil || filters.MaxAge != nil {
		// An explicit age range excludes candidates with no stated age
		if candidate.Age == nil {
			return false
		}
		if filters.MinAge != nil && *candidate.Age < *filters.MinAge {
			return false
		}
		if filters.MaxAge != nil && *candidate.Age > *filters.MaxAge {
			return false
		}
	}

	return true
}
