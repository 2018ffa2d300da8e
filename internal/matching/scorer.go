// internal/matching/scorer.go
// Pure compatibility scoring. Given identical inputs the output is
// bit-for-bit reproducible: no randomness, no clock, no I/O.

package matching

import (
	"math"
	"strings"

	"github.com/hodlmatch/hodlmatch-backend/internal/profile"
)

// Factor weights. Must sum to 1.0.
const (
	weightGender       = 0.30
	weightAge          = 0.15
	weightLocation     = 0.10
	weightInterests    = 0.20
	weightCrypto       = 0.15
	weightRelationship = 0.10
)

// Neutral defaults applied when a factor's inputs are missing
const (
	defaultAgeScore          = 0.5
	defaultLocationScore     = 0.3
	defaultInterestsScore    = 0.3
	defaultCryptoScore       = 0.3
	defaultRelationshipScore = 0.5
)

// Ordered tier scales for the crypto factor
var (
	experienceRank = map[string]int{
		"beginner":     0,
		"intermediate": 1,
		"advanced":     2,
		"expert":       3,
	}

	portfolioRank = map[string]int{
		"starter":     0,
		"moderate":    1,
		"substantial": 2,
		"whale":       3,
	}
)

// Acceptable cross-type relationship pairs scoring 0.7
var relationshipCompat = map[string][]string{
	"serious":  {"marriage"},
	"marriage": {"serious"},
	"casual":   {"friends", "open"},
	"friends":  {"casual"},
	"open":     {"casual"},
}

// Score computes the weighted compatibility of a candidate for a
// requester, with the full per-factor breakdown. Intended for pairs that
// already passed IsMutuallyEligible; the gender factor is kept explicit
// anyway so the breakdown stays meaningful in explainability views.
func Score(requester, candidate *profile.Profile) MatchScore {
	breakdown := ScoreBreakdown{
		Gender:       genderScore(requester, candidate),
		Age:          ageScore(requester.Age, candidate.Age),
		Location:     locationScore(requester.Location, candidate.Location),
		Interests:    interestsScore(requester.Interests, candidate.Interests),
		Crypto:       cryptoScore(requester, candidate),
		Relationship: relationshipScore(requester.RelationshipType, candidate.RelationshipType),
	}

	total := breakdown.Gender*weightGender +
		breakdown.Age*weightAge +
		breakdown.Location*weightLocation +
		breakdown.Interests*weightInterests +
		breakdown.Crypto*weightCrypto +
		breakdown.Relationship*weightRelationship

	return MatchScore{
		Candidate: candidate,
		Score:     math.Round(total*100) / 100,
		Breakdown: breakdown,
	}
}

func genderScore(requester, candidate *profile.Profile) float64 {
	if IsMutuallyEligible(requester, candidate) {
		return 1.0
	}
	return 0
}

func ageScore(a, b *int) float64 {
	if a == nil || b == nil {
		return defaultAgeScore
	}

	d := *a - *b
	if d < 0 {
		d = -d
	}

	switch {
	case d <= 2:
		return 1.00
	case d <= 5:
		return 0.90
	case d <= 8:
		return 0.70
	case d <= 12:
		return 0.50
	case d <= 18:
		return 0.30
	default:
		return 0.10
	}
}

func locationScore(a, b *string) float64 {
	if a == nil || b == nil || *a == "" || *b == "" {
		return defaultLocationScore
	}

	locA := strings.TrimSpace(*a)
	locB := strings.TrimSpace(*b)
	if strings.EqualFold(locA, locB) {
		return 1.0
	}

	partsA := strings.Split(locA, ",")
	partsB := strings.Split(locB, ",")

	cityA := strings.TrimSpace(partsA[0])
	cityB := strings.TrimSpace(partsB[0])
	if cityA != "" && strings.EqualFold(cityA, cityB) {
		return 0.9
	}

	regionA := strings.TrimSpace(partsA[len(partsA)-1])
	regionB := strings.TrimSpace(partsB[len(partsB)-1])
	if regionA != "" && strings.EqualFold(regionA, regionB) {
		return 0.6
	}

	return 0.2
}

// interestsScore counts case-insensitive substring overlaps between the
// two tag lists, normalized by the smaller list's size.
func interestsScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return defaultInterestsScore
	}

	shorter, longer := a, b
	if len(b) < len(a) {
		shorter, longer = b, a
	}

	overlap := 0
	for _, tag := range shorter {
		if tagOverlaps(tag, longer) {
			overlap++
		}
	}

	score := float64(overlap) / float64(len(shorter))
	return math.Min(1.0, score)
}

func tagOverlaps(tag string, tags []string) bool {
	lower := strings.ToLower(strings.TrimSpace(tag))
	if lower == "" {
		return false
	}
	for _, other := range tags {
		otherLower := strings.ToLower(strings.TrimSpace(other))
		if otherLower == "" {
			continue
		}
		if strings.Contains(lower, otherLower) || strings.Contains(otherLower, lower) {
			return true
		}
	}
	return false
}

// cryptoScore averages up to three sub-checks, skipping those whose data
// is missing on either side. With nothing computable it falls back to the
// neutral default.
func cryptoScore(a, b *profile.Profile) float64 {
	var sum float64
	var computed int

	if hasValue(a.FavoriteAsset) && hasValue(b.FavoriteAsset) {
		if strings.EqualFold(*a.FavoriteAsset, *b.FavoriteAsset) {
			sum += 1.0
		} else {
			sum += 0.3
		}
		computed++
	}

	if s, ok := tierDistanceScore(a.ExperienceTier, b.ExperienceTier, experienceRank, experienceDistanceScore); ok {
		sum += s
		computed++
	}

	if s, ok := tierDistanceScore(a.PortfolioTier, b.PortfolioTier, portfolioRank, portfolioDistanceScore); ok {
		sum += s
		computed++
	}

	if computed == 0 {
		return defaultCryptoScore
	}

	return sum / float64(computed)
}

func tierDistanceScore(a, b *string, ranks map[string]int, scale func(int) float64) (float64, bool) {
	if !hasValue(a) || !hasValue(b) {
		return 0, false
	}

	rankA, okA := ranks[strings.ToLower(*a)]
	rankB, okB := ranks[strings.ToLower(*b)]
	if !okA || !okB {
		return 0, false
	}

	d := rankA - rankB
	if d < 0 {
		d = -d
	}

	return scale(d), true
}

func experienceDistanceScore(d int) float64 {
	switch d {
	case 0:
		return 1.0
	case 1:
		return 0.8
	case 2:
		return 0.5
	default:
		return 0.3
	}
}

func portfolioDistanceScore(d int) float64 {
	switch d {
	case 0:
		return 1.0
	case 1:
		return 0.7
	default:
		return 0.4
	}
}

func relationshipScore(a, b *string) float64 {
	if !hasValue(a) || !hasValue(b) {
		return defaultRelationshipScore
	}

	typeA := strings.ToLower(strings.TrimSpace(*a))
	typeB := strings.ToLower(strings.TrimSpace(*b))
	if typeA == typeB {
		return 1.0
	}

	for _, compatible := range relationshipCompat[typeA] {
		if compatible == typeB {
			return 0.7
		}
	}

	return 0.2
}

func hasValue(s *string) bool {
	return s != nil && *s != ""
}
