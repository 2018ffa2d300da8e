package matching

import (
	"strings"

	"github.com/hodlmatch/hodlmatch-backend/internal/profile"
)

// IsMutuallyEligible reports whether two profiles mutually match each
// other's stated gender preferences. Both directions must hold; this is
// strict mutual-interest matching, not one-sided discovery.
//
// Fail-closed: a missing or empty genders-sought set (or gender identity)
// on either side yields false. Absence of a stated preference is never
// treated as "open to anyone". A profile is never eligible for itself.
func IsMutuallyEligible(requester, candidate *profile.Profile) bool {
	if requester == nil || candidate == nil {
		return false
	}
	if requester.ID == candidate.ID {
		return false
	}
	return seeks(requester, candidate) && seeks(candidate, requester)
}

// seeks reports whether a's genders-sought set contains b's gender identity
func seeks(a, b *profile.Profile) bool {
	if len(a.GendersSought) == 0 {
		return false
	}
	if b.GenderIdentity == nil || *b.GenderIdentity == "" {
		return false
	}
	for _, g := range a.GendersSought {
		if strings.EqualFold(g, *b.GenderIdentity) {
			return true
		}
	}
	return false
}
