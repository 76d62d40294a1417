package llm

import (
	"context"
	"testing"
	"time"
)

type countingCompleter struct {
	calls int
}

func (c *countingCompleter) Complete(context.Context, CompletionRequest) (string, error) {
	c.calls++
	return "ok", nil
}

func TestThrottledDisabledPassesThrough(t *testing.T) {
	inner := &countingCompleter{}
	th := NewThrottled(inner, 0, 0)

	start := time.Now()
	for i := 0; i < 50; i++ {
		if _, err := th.Complete(context.Background(), CompletionRequest{Prompt: "x"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if inner.calls != 50 {
		t.Fatalf("expected 50 calls, got %d", inner.calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("disabled throttle must not pace calls, took %v", elapsed)
	}
}

func TestThrottledPacesCalls(t *testing.T) {
	inner := &countingCompleter{}
	th := NewThrottled(inner, 100, 1) // 10ms between calls after the burst

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := th.Complete(context.Background(), CompletionRequest{Prompt: "x"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("expected pacing of roughly 20ms over 3 calls, took %v", elapsed)
	}
}

func TestThrottledHonorsContextCancel(t *testing.T) {
	inner := &countingCompleter{}
	th := NewThrottled(inner, 0.001, 1)

	// Drain the single burst token, then a canceled context must abort the wait.
	if _, err := th.Complete(context.Background(), CompletionRequest{Prompt: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := th.Complete(ctx, CompletionRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected context error while waiting for a token")
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 completed call, got %d", inner.calls)
	}
}
