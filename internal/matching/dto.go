// internal/matching/dto.go
package matching

// DTOs for API requests/responses

type LiveCandidatesParams struct {
	MinAge      *int     `json:"min_age,omitempty" validate:"omitempty,gte=18,lte=120"`
	MaxAge      *int     `json:"max_age,omitempty" validate:"omitempty,gte=18,lte=120"`
	NewThisWeek bool     `json:"new_this_week"`
	MinScore    *float64 `json:"min_score,omitempty" validate:"omitempty,gte=0,lte=1"`
}

type MarkLikedDTO struct {
	Liked *bool `json:"liked" validate:"required"`
}

// DailyMatchResponse distinguishes "no match" outcomes for the client:
// an exhausted or empty batch is not the same as an incomplete profile.
type DailyMatchResponse struct {
	Status string      `json:"status"` // "ok", "exhausted", "setup_incomplete"
	Match  *DailyMatch `json:"match,omitempty"`
}

type LiveCandidatesResponse struct {
	Status     string       `json:"status"` // "ok", "setup_incomplete"
	Candidates []MatchScore `json:"candidates"`
}
