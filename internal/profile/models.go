package profile

import (
	"time"

	"github.com/lib/pq"
)

// Profile is the read model the matching engine consumes. The profile
// service owns the rows; this package never mutates them.
type Profile struct {
	ID                int64          `json:"id" db:"id"`
	DisplayName       string         `json:"display_name" db:"display_name"`
	Age               *int           `json:"age,omitempty" db:"age"`
	Bio               *string        `json:"bio,omitempty" db:"bio"`
	Location          *string        `json:"location,omitempty" db:"location"`
	Interests         pq.StringArray `json:"interests" db:"interests"`
	LookingFor        *string        `json:"looking_for,omitempty" db:"looking_for"`
	GenderIdentity    *string        `json:"gender_identity,omitempty" db:"gender_identity"`
	Orientation       *string        `json:"orientation,omitempty" db:"orientation"`
	GendersSought     pq.StringArray `json:"genders_sought" db:"genders_sought"`
	RelationshipType  *string        `json:"relationship_type,omitempty" db:"relationship_type"`
	FavoriteAsset     *string        `json:"favorite_asset,omitempty" db:"favorite_asset"`
	ExperienceTier    *string        `json:"experience_tier,omitempty" db:"experience_tier"`
	PortfolioTier     *string        `json:"portfolio_tier,omitempty" db:"portfolio_tier"`
	TradingStyle      *string        `json:"trading_style,omitempty" db:"trading_style"`
	IsProfileComplete bool           `json:"is_profile_complete" db:"is_profile_complete"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
}

// CandidateQuery narrows the candidate fetch. RequesterGender is a
// superset prefilter only; the engine still runs the full bidirectional
// eligibility check on every row returned.
type CandidateQuery struct {
	RequesterGender *string
	MinAge          int
	Limit           int
}

// ChangeEvent describes a profile mutation published by the profile service
type ChangeEvent struct {
	Type   string `json:"type"` // "insert", "update", "delete"
	UserID int64  `json:"user_id"`
}
