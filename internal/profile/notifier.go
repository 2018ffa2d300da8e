// internal/profile/notifier.go
// Profile mutation events travel over a Redis pub/sub channel. The
// profile service publishes; the matching engine's change listener
// subscribes.

package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
)

const changeChannel = "profiles:changes"

// Notifier publishes and subscribes to profile change events
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new change notifier
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish emits a change event for a profile mutation
func (n *Notifier) Publish(ctx context.Context, event ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if err := n.rdb.Publish(ctx, changeChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	return nil
}

// Subscribe returns a channel of profile change events. The channel is
// closed when ctx is cancelled. Malformed payloads are logged and skipped.
func (n *Notifier) Subscribe(ctx context.Context) <-chan ChangeEvent {
	sub := n.rdb.Subscribe(ctx, changeChannel)
	events := make(chan ChangeEvent, 64)

	go func() {
		defer close(events)
		defer sub.Close()

		for {
			select {
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var event ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("profile notifier: dropping malformed event: %v", err)
					continue
				}
				select {
				case events <- event:
				default:
					// Listener is behind; the debounce collapses bursts anyway
					log.Printf("profile notifier: event buffer full, dropping event for user %d", event.UserID)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return events
}
