package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the embeddings circuit breaker.
type BreakerSettings struct {
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
	HalfOpenMax  uint32
}

// DefaultBreakerSettings trips after half of at least 5 calls fail.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:  5,
		FailureRatio: 0.5,
		OpenTimeout:  30 * time.Second,
		HalfOpenMax:  1,
	}
}

// BreakerEmbedder stops calling a failing embeddings provider until it recovers.
type BreakerEmbedder struct {
	next    Embedder
	breaker *gobreaker.CircuitBreaker[[][]float32]
}

// NewBreakerEmbedder wraps next with a circuit breaker.
func NewBreakerEmbedder(next Embedder, s BreakerSettings) *BreakerEmbedder {
	settings := gobreaker.Settings{
		Name:        "embeddings",
		MaxRequests: s.HalfOpenMax,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		// Caller cancellation says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerEmbedder{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[[][]float32](settings),
	}
}

// EmbedTexts implements Embedder. An open breaker fails fast with an error
// wrapping ErrEmbedding and ErrUnavailable.
func (b *BreakerEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := b.breaker.Execute(func() ([][]float32, error) {
		return b.next.EmbedTexts(ctx, texts)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(ErrEmbedding, ErrUnavailable, err)
	}
	return vecs, err
}

// State returns the current breaker state name.
func (b *BreakerEmbedder) State() string {
	return b.breaker.State().String()
}
