package matching

import (
	"testing"

	"github.com/lib/pq"
)

func TestIsMutuallyEligible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func() (reqGender string, reqSeeks []string, candGender string, candSeeks []string)
		want  bool
	}{
		{
			name: "mutual interest",
			setup: func() (string, []string, string, []string) {
				return "woman", []string{"man"}, "man", []string{"woman"}
			},
			want: true,
		},
		{
			name: "one-sided interest",
			setup: func() (string, []string, string, []string) {
				return "woman", []string{"man"}, "man", []string{"man"}
			},
			want: false,
		},
		{
			name: "reverse one-sided interest",
			setup: func() (string, []string, string, []string) {
				return "woman", []string{"woman"}, "man", []string{"woman"}
			},
			want: false,
		},
		{
			name: "case-insensitive preference",
			setup: func() (string, []string, string, []string) {
				return "Woman", []string{"MAN"}, "man", []string{"woman"}
			},
			want: true,
		},
		{
			name: "multiple sought genders",
			setup: func() (string, []string, string, []string) {
				return "nonbinary", []string{"man", "woman"}, "woman", []string{"nonbinary", "man"}
			},
			want: true,
		},
		{
			name: "requester has no preference",
			setup: func() (string, []string, string, []string) {
				return "woman", nil, "man", []string{"woman"}
			},
			want: false,
		},
		{
			name: "candidate has no preference",
			setup: func() (string, []string, string, []string) {
				return "woman", []string{"man"}, "man", nil
			},
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reqGender, reqSeeks, candGender, candSeeks := tt.setup()
			requester := testProfile(1, 30, reqGender)
			requester.GendersSought = pq.StringArray(reqSeeks)
			candidate := testProfile(2, 30, candGender)
			candidate.GendersSought = pq.StringArray(candSeeks)

			if got := IsMutuallyEligible(requester, candidate); got != tt.want {
				t.Errorf("IsMutuallyEligible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsMutuallyEligibleSelfMatch(t *testing.T) {
	t.Parallel()

	p := testProfile(1, 30, "woman", "woman")
	if IsMutuallyEligible(p, p) {
		t.Fatal("a profile must never be eligible for itself")
	}
}

func TestIsMutuallyEligibleNilProfiles(t *testing.T) {
	t.Parallel()

	p := testProfile(1, 30, "woman", "man")
	if IsMutuallyEligible(nil, p) || IsMutuallyEligible(p, nil) || IsMutuallyEligible(nil, nil) {
		t.Fatal("nil profiles must never be eligible")
	}
}

func TestIsMutuallyEligibleMissingIdentity(t *testing.T) {
	t.Parallel()

	requester := testProfile(1, 30, "woman", "man")
	candidate := testProfile(2, 30, "man", "woman")
	candidate.GenderIdentity = nil

	if IsMutuallyEligible(requester, candidate) {
		t.Fatal("a candidate with no stated identity must not be eligible")
	}

	candidate.GenderIdentity = strPtr("")
	if IsMutuallyEligible(requester, candidate) {
		t.Fatal("a candidate with an empty identity must not be eligible")
	}
}
