// internal/matching/listener.go
// Subscribes to profile change events and recomputes the affected user's
// live candidate list after a debounce window. The frozen daily batch is
// deliberately untouched; it stays stable for its 24h window.

package matching

import (
	"context"
	"log"
	"time"

	"github.com/hodlmatch/hodlmatch-backend/internal/profile"
)

// Listener drives change-based recomputation of live candidate lists
type Listener struct {
	service  Service
	hub      *Hub
	debounce time.Duration
}

// NewListener creates a change listener. The hub may be nil.
func NewListener(service Service, hub *Hub, debounce time.Duration) *Listener {
	return &Listener{
		service:  service,
		hub:      hub,
		debounce: debounce,
	}
}

// Run consumes change events until the channel closes or ctx is
// cancelled. Bursts of events for one user collapse into a single
// recomputation; refresh failures are logged and the loop keeps going,
// so the next notification retries naturally.
func (l *Listener) Run(ctx context.Context, events <-chan profile.ChangeEvent) {
	fire := make(chan int64, 64)
	timers := make(map[int64]*time.Timer)

	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			userID := event.UserID
			if timer, exists := timers[userID]; exists {
				timer.Reset(l.debounce)
				continue
			}
			timers[userID] = time.AfterFunc(l.debounce, func() {
				select {
				case fire <- userID:
				default:
					// fire queue full; drop, a later event re-arms
				}
			})

		case userID := <-fire:
			delete(timers, userID)
			l.refresh(ctx, userID)

		case <-ctx.Done():
			return
		}
	}
}

func (l *Listener) refresh(ctx context.Context, userID int64) {
	scores, err := l.service.RefreshLiveCandidates(ctx, userID, nil)
	if err != nil {
		RecordLiveRefresh("error")
		log.Printf("matching: live refresh failed for user %d: %v", userID, err)
		return
	}

	RecordLiveRefresh("ok")

	if l.hub != nil {
		l.hub.NotifyLiveCandidates(userID, scores)
	}
}
