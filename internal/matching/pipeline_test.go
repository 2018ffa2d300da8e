package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/hodlmatch/hodlmatch-backend/internal/profile"
)

type fakeProfileStore struct {
	profiles   map[int64]*profile.Profile
	candidates []*profile.Profile
	getErr     error
	queryErr   error
}

func (f *fakeProfileStore) GetProfile(ctx context.Context, id int64) (*profile.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfileStore) QueryCandidates(ctx context.Context, excludeID int64, query *profile.CandidateQuery) ([]*profile.Profile, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.candidates, nil
}

type fakeBlockService struct {
	blocked map[int64]struct{}
	err     error
}

func (f *fakeBlockService) Block(ctx context.Context, blockerID, blockedID int64, reason *string) error {
	if f.blocked == nil {
		f.blocked = make(map[int64]struct{})
	}
	f.blocked[blockedID] = struct{}{}
	return nil
}

func (f *fakeBlockService) Unblock(ctx context.Context, blockerID, blockedID int64) error {
	delete(f.blocked, blockedID)
	return nil
}

func (f *fakeBlockService) IsBlockedEitherDirection(ctx context.Context, userA, userB int64) (bool, error) {
	_, ok := f.blocked[userB]
	return ok, f.err
}

func (f *fakeBlockService) ListBlockedIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.blocked == nil {
		return map[int64]struct{}{}, nil
	}
	return f.blocked, nil
}

func newTestPipeline(candidates []*profile.Profile, blocked map[int64]struct{}) *Pipeline {
	return NewPipeline(
		&fakeProfileStore{candidates: candidates},
		&fakeBlockService{blocked: blocked},
		PipelineConfig{CandidateLimit: 100, MinScore: 0.5, MinAge: 18},
	)
}

func TestBuildRankedCandidatesNoPreference(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(nil, nil)

	user := testProfile(1, 30, "woman")
	user.GendersSought = nil

	if _, err := p.BuildRankedCandidates(context.Background(), user, nil); !errors.Is(err, ErrNoPreferenceSet) {
		t.Fatalf("err = %v, want ErrNoPreferenceSet", err)
	}

	if _, err := p.BuildRankedCandidates(context.Background(), nil, nil); !errors.Is(err, ErrNoPreferenceSet) {
		t.Fatalf("err = %v for nil user, want ErrNoPreferenceSet", err)
	}
}

func TestBuildRankedCandidatesStoreFailure(t *testing.T) {
	t.Parallel()

	p := NewPipeline(
		&fakeProfileStore{queryErr: errors.New("connection refused")},
		&fakeBlockService{},
		PipelineConfig{CandidateLimit: 100, MinScore: 0.5, MinAge: 18},
	)

	user := testProfile(1, 30, "woman", "man")
	if _, err := p.BuildRankedCandidates(context.Background(), user, nil); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestBuildRankedCandidatesBlockFailure(t *testing.T) {
	t.Parallel()

	p := NewPipeline(
		&fakeProfileStore{candidates: []*profile.Profile{testProfile(2, 30, "man", "woman")}},
		&fakeBlockService{err: errors.New("connection refused")},
		PipelineConfig{CandidateLimit: 100, MinScore: 0.5, MinAge: 18},
	)

	user := testProfile(1, 30, "woman", "man")
	if _, err := p.BuildRankedCandidates(context.Background(), user, nil); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestBuildRankedCandidatesExcludesBlockedAndSelf(t *testing.T) {
	t.Parallel()

	user := testProfile(1, 30, "woman", "man")
	blocked := testProfile(2, 30, "man", "woman")
	kept := testProfile(3, 30, "man", "woman")

	p := newTestPipeline(
		[]*profile.Profile{user, blocked, kept}, // self sneaks into the fetch
		map[int64]struct{}{blocked.ID: {}},
	)

	scored, err := p.BuildRankedCandidates(context.Background(), user, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scored) != 1 || scored[0].Candidate.ID != kept.ID {
		t.Fatalf("got %d candidates, want exactly user %d", len(scored), kept.ID)
	}
}

func TestBuildRankedCandidatesExcludesIneligible(t *testing.T) {
	t.Parallel()

	user := testProfile(1, 30, "woman", "man")
	eligible := testProfile(2, 30, "man", "woman")
	oneSided := testProfile(3, 30, "man", "man") // does not seek women

	p := newTestPipeline([]*profile.Profile{eligible, oneSided}, nil)

	scored, err := p.BuildRankedCandidates(context.Background(), user, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scored) != 1 || scored[0].Candidate.ID != eligible.ID {
		t.Fatalf("got %d candidates, want exactly user %d", len(scored), eligible.ID)
	}
}

func TestBuildRankedCandidatesThreshold(t *testing.T) {
	t.Parallel()

	user := testProfile(1, 30, "woman", "man")
	user.Interests = pq.StringArray{"defi", "nfts"}
	user.RelationshipType = strPtr("serious")

	// Close in every factor
	strong := testProfile(2, 31, "man", "woman")
	strong.Interests = pq.StringArray{"defi", "nfts"}
	strong.RelationshipType = strPtr("serious")

	// Eligible but weak everywhere else
	weak := testProfile(3, 55, "man", "woman")
	weak.Interests = pq.StringArray{"golf"}
	weak.RelationshipType = strPtr("casual")

	p := newTestPipeline([]*profile.Profile{strong, weak}, nil)

	minScore := 0.8
	scored, err := p.BuildRankedCandidates(context.Background(), user, &CandidateFilters{MinScore: &minScore})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, m := range scored {
		if m.Score < minScore {
			t.Errorf("candidate %d scored %v, below the %v threshold", m.Candidate.ID, m.Score, minScore)
		}
		if m.Candidate.ID == weak.ID {
			t.Errorf("weak candidate %d survived the threshold", weak.ID)
		}
	}
	if len(scored) == 0 {
		t.Fatal("strong candidate should have survived the threshold")
	}
}

func TestBuildRankedCandidatesOrdering(t *testing.T) {
	t.Parallel()

	user := testProfile(1, 30, "woman", "man")

	// Identical profiles score identically; the tiebreak is ascending id.
	// The slice is fed in descending id order to prove sorting happens.
	c5 := testProfile(5, 30, "man", "woman")
	c4 := testProfile(4, 30, "man", "woman")
	c3 := testProfile(3, 30, "man", "woman")

	p := newTestPipeline([]*profile.Profile{c5, c4, c3}, nil)

	scored, err := p.BuildRankedCandidates(context.Background(), user, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scored) != 3 {
		t.Fatalf("got %d candidates, want 3", len(scored))
	}

	for i, wantID := range []int64{3, 4, 5} {
		if scored[i].Candidate.ID != wantID {
			t.Errorf("position %d: candidate %d, want %d", i, scored[i].Candidate.ID, wantID)
		}
	}
}

func TestBuildRankedCandidatesNewThisWeek(t *testing.T) {
	t.Parallel()

	user := testProfile(1, 30, "woman", "man")

	fresh := testProfile(2, 30, "man", "woman")
	fresh.CreatedAt = time.Now().Add(-2 * 24 * time.Hour)

	stale := testProfile(3, 30, "man", "woman")
	stale.CreatedAt = time.Now().Add(-30 * 24 * time.Hour)

	p := newTestPipeline([]*profile.Profile{fresh, stale}, nil)

	scored, err := p.BuildRankedCandidates(context.Background(), user, &CandidateFilters{NewThisWeek: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scored) != 1 || scored[0].Candidate.ID != fresh.ID {
		t.Fatalf("got %d candidates, want exactly the fresh profile", len(scored))
	}
}

func TestBuildRankedCandidatesAgeRange(t *testing.T) {
	t.Parallel()

	user := testProfile(1, 30, "woman", "man")

	inRange := testProfile(2, 32, "man", "woman")
	tooOld := testProfile(3, 45, "man", "woman")
	noAge := testProfile(4, 0, "man", "woman")
	noAge.Age = nil

	p := newTestPipeline([]*profile.Profile{inRange, tooOld, noAge}, nil)

	scored, err := p.BuildRankedCandidates(context.Background(), user, &CandidateFilters{
		MinAge: intPtr(25),
		MaxAge: intPtr(35),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scored) != 1 || scored[0].Candidate.ID != inRange.ID {
		t.Fatalf("got %d candidates, want exactly the in-range profile", len(scored))
	}
}

func TestBuildRankedCandidatesEmptyResult(t *testing.T) {
	t.Parallel()

	user := testProfile(1, 30, "woman", "man")
	p := newTestPipeline(nil, nil)

	scored, err := p.BuildRankedCandidates(context.Background(), user, nil)
	if err != nil {
		t.Fatalf("no candidates must not be an error, got %v", err)
	}
	if len(scored) != 0 {
		t.Fatalf("got %d candidates, want 0", len(scored))
	}
}
