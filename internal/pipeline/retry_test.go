package pipeline

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"medingest/internal/embedding"
)

func TestIsRetryable(t *testing.T) {
	retry := &embedding.RetryableError{Op: "embed", Err: errors.New("overloaded")}

	if !IsRetryable(retry) {
		t.Error("expected RetryableError to be retryable")
	}
	if !IsRetryable(fmt.Errorf("segment 3: %w", retry)) {
		t.Error("expected wrapped RetryableError to be retryable")
	}
	if IsRetryable(errors.New("model not found")) {
		t.Error("expected plain error to be non-retryable")
	}
	if IsRetryable(nil) {
		t.Error("expected nil to be non-retryable")
	}
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		d := Backoff(attempt)
		if d < base {
			t.Errorf("attempt %d: backoff %v below base %v", attempt, d, base)
		}
		if d > base+base/2 {
			t.Errorf("attempt %d: backoff %v above base plus jitter %v", attempt, d, base+base/2)
		}
	}
}
