package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// CaseEventBus fans out full case snapshots over a per-case pub/sub channel.
// Delivery is at least once and only while a subscriber is connected; a
// subscription opened before the case exists simply receives nothing until
// the first snapshot is published.
type CaseEventBus struct {
	client *goredis.Client
}

func NewCaseEventBus(client *goredis.Client) *CaseEventBus {
	return &CaseEventBus{client: client}
}

func (b *CaseEventBus) Publish(ctx context.Context, caseID string, snapshot []byte) error {
	if err := b.client.Publish(ctx, caseChannel(caseID), snapshot).Err(); err != nil {
		return fmt.Errorf("publish case event: %w", err)
	}
	return nil
}

// Subscribe registers onChange for every snapshot of one case and returns
// an unsubscribe func. After unsubscribe returns, no further callbacks are
// delivered; a deleted or never-created case just stops producing events.
func (b *CaseEventBus) Subscribe(ctx context.Context, caseID string, onChange func(snapshot []byte)) (func(), error) {
	sub := b.client.Subscribe(ctx, caseChannel(caseID))

	// Force the SUBSCRIBE round trip so a broken connection fails here
	// instead of silently dropping events.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe case events: %w", err)
	}

	done := make(chan struct{})
	go func() {
		ch := sub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				onChange([]byte(msg.Payload))
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			if err := sub.Close(); err != nil {
				slog.Warn("case event unsubscribe failed",
					slog.String("case_id", caseID),
					slog.String("error", err.Error()),
				)
			}
		})
	}
	return unsubscribe, nil
}

func caseChannel(caseID string) string {
	return fmt.Sprintf("sos:case:%s", caseID)
}
