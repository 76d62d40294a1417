package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled wraps a Completer with a token-bucket limiter so the batch stays
// under the provider's rate limit. The limiter is shared: if documents are
// ever processed concurrently, total outbound call rate stays bounded.
type Throttled struct {
	inner   Completer
	limiter *rate.Limiter
}

// NewThrottled bounds calls to callsPerSecond with the given burst. A
// non-positive rate disables throttling entirely (used by tests).
func NewThrottled(inner Completer, callsPerSecond float64, burst int) *Throttled {
	var limiter *rate.Limiter
	if callsPerSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(callsPerSecond), burst)
	}
	return &Throttled{inner: inner, limiter: limiter}
}

func (t *Throttled) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return t.inner.Complete(ctx, req)
}
