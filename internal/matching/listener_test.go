package matching

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hodlmatch/hodlmatch-backend/internal/profile"
)

type fakeEngineService struct {
	mu           sync.Mutex
	refreshCalls map[int64]int
	refreshErr   error
	daily        *DailyMatch
	dailyErr     error
	markErr      error
}

func newFakeEngineService() *fakeEngineService {
	return &fakeEngineService{refreshCalls: make(map[int64]int)}
}

func (f *fakeEngineService) RefreshLiveCandidates(ctx context.Context, userID int64, filters *CandidateFilters) ([]MatchScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls[userID]++
	return nil, f.refreshErr
}

func (f *fakeEngineService) calls(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls[userID]
}

func (f *fakeEngineService) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshErr = err
}

func (f *fakeEngineService) GetCurrentDailyMatch(ctx context.Context, userID int64) (*DailyMatch, error) {
	return f.daily, f.dailyErr
}

func (f *fakeEngineService) AdvanceDailyMatch(ctx context.Context, userID int64) (*DailyMatch, error) {
	return f.daily, f.dailyErr
}

func (f *fakeEngineService) MarkViewed(ctx context.Context, matchID uuid.UUID) error {
	return f.markErr
}

func (f *fakeEngineService) MarkLiked(ctx context.Context, matchID uuid.UUID, liked bool) error {
	return f.markErr
}

func (f *fakeEngineService) CompatibilityBetween(ctx context.Context, userID, otherID int64) (*MatchScore, error) {
	return nil, nil
}

func (f *fakeEngineService) CleanupExpiredMatches(ctx context.Context) error { return nil }

func waitForCalls(t *testing.T, svc *fakeEngineService, userID int64, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if svc.calls(userID) >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("user %d: got %d refreshes, want %d", userID, svc.calls(userID), want)
}

func TestListenerDebouncesBursts(t *testing.T) {
	t.Parallel()

	svc := newFakeEngineService()
	listener := NewListener(svc, nil, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan profile.ChangeEvent, 16)
	done := make(chan struct{})
	go func() {
		listener.Run(ctx, events)
		close(done)
	}()

	// A rapid burst for one user collapses into a single recomputation
	for i := 0; i < 5; i++ {
		events <- profile.ChangeEvent{Type: "update", UserID: 7}
	}

	waitForCalls(t, svc, 7, 1)

	// Let any stray timers fire before asserting the final count
	time.Sleep(150 * time.Millisecond)
	if got := svc.calls(7); got != 1 {
		t.Fatalf("burst of 5 events triggered %d refreshes, want 1", got)
	}

	close(events)
	<-done
}

func TestListenerSeparateUsersSeparateRefreshes(t *testing.T) {
	t.Parallel()

	svc := newFakeEngineService()
	listener := NewListener(svc, nil, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan profile.ChangeEvent, 16)
	go listener.Run(ctx, events)

	events <- profile.ChangeEvent{Type: "update", UserID: 1}
	events <- profile.ChangeEvent{Type: "update", UserID: 2}
	events <- profile.ChangeEvent{Type: "update", UserID: 3}

	waitForCalls(t, svc, 1, 1)
	waitForCalls(t, svc, 2, 1)
	waitForCalls(t, svc, 3, 1)
}

func TestListenerSurvivesRefreshFailure(t *testing.T) {
	t.Parallel()

	svc := newFakeEngineService()
	svc.setErr(context.DeadlineExceeded)

	listener := NewListener(svc, nil, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan profile.ChangeEvent, 16)
	go listener.Run(ctx, events)

	events <- profile.ChangeEvent{Type: "update", UserID: 9}
	waitForCalls(t, svc, 9, 1)

	// The loop must still be alive after the failure
	svc.setErr(nil)
	events <- profile.ChangeEvent{Type: "update", UserID: 9}
	waitForCalls(t, svc, 9, 2)
}

func TestListenerStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	svc := newFakeEngineService()
	listener := NewListener(svc, nil, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	events := make(chan profile.ChangeEvent)
	done := make(chan struct{})
	go func() {
		listener.Run(ctx, events)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop on context cancellation")
	}
}

func TestListenerStopsOnChannelClose(t *testing.T) {
	t.Parallel()

	svc := newFakeEngineService()
	listener := NewListener(svc, nil, 20*time.Millisecond)

	events := make(chan profile.ChangeEvent)
	done := make(chan struct{})
	go func() {
		listener.Run(context.Background(), events)
		close(done)
	}()

	close(events)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop when the event channel closed")
	}
}
