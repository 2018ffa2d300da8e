package matching

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hodlmatch/hodlmatch-backend/internal/profile"
)

// ScoreBreakdown carries the per-factor sub-scores for explainability.
// Sub-scores are left unrounded; only the aggregate is rounded.
type ScoreBreakdown struct {
	Gender       float64 `json:"gender"`
	Age          float64 `json:"age"`
	Location     float64 `json:"location"`
	Interests    float64 `json:"interests"`
	Crypto       float64 `json:"crypto"`
	Relationship float64 `json:"relationship"`
}

// MatchScore is one scored candidate. Immutable once produced; a
// recomputation supersedes it rather than mutating it.
type MatchScore struct {
	Candidate *profile.Profile `json:"candidate"`
	Score     float64          `json:"score"`
	Breakdown ScoreBreakdown   `json:"breakdown"`
}

// DailyMatch is a frozen snapshot row in a user's daily batch
type DailyMatch struct {
	ID                 uuid.UUID        `json:"id" db:"id"`
	UserID             int64            `json:"user_id" db:"user_id"`
	MatchedUserID      int64            `json:"matched_user_id" db:"matched_user_id"`
	CompatibilityScore float64          `json:"compatibility_score" db:"compatibility_score"`
	Breakdown          json.RawMessage  `json:"breakdown" db:"breakdown"`
	BatchDate          string           `json:"batch_date" db:"batch_date"`
	GeneratedAt        time.Time        `json:"generated_at" db:"generated_at"`
	ExpiresAt          time.Time        `json:"expires_at" db:"expires_at"`
	Viewed             bool             `json:"viewed" db:"viewed"`
	Liked              *bool            `json:"liked" db:"liked"`
	MatchedProfile     *profile.Profile `json:"matched_profile,omitempty"`
}

// CandidateFilters narrows an on-demand discovery run. A nil field means
// "no constraint"; a nil MinScore falls back to the configured default.
type CandidateFilters struct {
	MinAge      *int
	MaxAge      *int
	NewThisWeek bool
	MinScore    *float64
}
