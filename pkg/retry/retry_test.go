package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries:    3,
		BackoffFactor: 2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		Jitter:        time.Millisecond,
	}
}

func TestRetrier_Do(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		retryIf      func(error) bool
		wantErr      bool
		wantAttempts int
	}{
		{
			name:         "first_attempt_succeeds",
			failures:     0,
			wantAttempts: 1,
		},
		{
			name:         "succeeds_after_two_failures",
			failures:     2,
			wantAttempts: 3,
		},
		{
			name:         "exhausts_retries",
			failures:     10,
			wantErr:      true,
			wantAttempts: 4, // initial + MaxRetries
		},
		{
			name:         "non_retryable_stops_immediately",
			failures:     10,
			retryIf:      func(error) bool { return false },
			wantErr:      true,
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fastConfig()
			cfg.RetryIf = tt.retryIf

			attempts := 0
			err := NewRetrier(cfg).Do(context.Background(), func() error {
				attempts++
				if attempts <= tt.failures {
					return errors.New("boom")
				}
				return nil
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("Do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if attempts != tt.wantAttempts {
				t.Fatalf("Do() attempts = %d, want %d", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestRetrier_Do_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRetrier(fastConfig()).Do(ctx, func() error {
		return errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
}
