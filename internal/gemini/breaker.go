package gemini

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("gemini circuit is open")

type circuitState int

const (
	stateClosed   circuitState = iota // normal operation
	stateOpen                         // rejecting calls
	stateHalfOpen                     // allowing one probe call
)

// Breaker wraps a Completer and opens after `threshold` consecutive
// failures, skipping the upstream call entirely during the cooldown so
// dispatch never stalls on a degraded completion service.
type Breaker struct {
	inner     Completer
	threshold int
	cooldown  time.Duration

	mu              sync.Mutex
	state           circuitState
	failures        int
	lastFailureTime time.Time
}

func NewBreaker(inner Completer, threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		inner:     inner,
		threshold: threshold,
		cooldown:  cooldown,
		state:     stateClosed,
	}
}

func (b *Breaker) Complete(ctx context.Context, prompt string) (string, error) {
	if !b.allow() {
		return "", ErrCircuitOpen
	}

	text, err := b.inner.Complete(ctx, prompt)
	if err != nil {
		b.recordFailure()
		return "", err
	}
	b.recordSuccess()
	return text, nil
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return true
	case stateOpen:
		if time.Since(b.lastFailureTime) > b.cooldown {
			b.state = stateHalfOpen
			return true
		}
		return false
	case stateHalfOpen:
		return false // only one probe at a time
	}
	return true
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = stateClosed
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailureTime = time.Now()
	if b.failures >= b.threshold {
		b.state = stateOpen
	}
}
