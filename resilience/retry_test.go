package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/kbukum/procexec/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastRetry(3), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("temporary")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected 'ok', got %q", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ReturnsLastValueWithLastError(t *testing.T) {
	calls := 0
	persistent := errors.New("persistent")

	status, err := Retry(context.Background(), fastRetry(3), func() (int, error) {
		calls++
		return calls * 10, persistent
	})

	if !errors.Is(err, persistent) {
		t.Fatalf("expected persistent error, got %v", err)
	}
	if status != 30 {
		t.Errorf("expected value of last attempt (30), got %d", status)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 10, InitialBackoff: 100 * time.Millisecond, BackoffFactor: 2.0}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := Retry(ctx, cfg, func() (string, error) {
		calls++
		return "", errors.New("error")
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if calls >= 10 {
		t.Errorf("expected fewer than 10 calls, got %d", calls)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain error", errors.New("boom"), true},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"spawn failed", goerrors.New(goerrors.ErrCodeSpawnFailed, "fork"), true},
		{"missing command", goerrors.New(goerrors.ErrCodeMissingCommand, "no command"), false},
		{"invalid workdir", goerrors.New(goerrors.ErrCodeInvalidWorkingDirectory, "nope"), false},
		{"command failed", goerrors.CommandFailed("false", 1), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DefaultRetryIf(tc.err); got != tc.want {
				t.Errorf("DefaultRetryIf(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastRetry(5), func() (string, error) {
		calls++
		return "", goerrors.New(goerrors.ErrCodeMissingCommand, "no command")
	})

	if !goerrors.HasCode(err, goerrors.ErrCodeMissingCommand) {
		t.Errorf("expected MISSING_COMMAND, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		attempts = append(attempts, attempt)
	}

	_, _ = Retry(context.Background(), cfg, func() (string, error) {
		return "", errors.New("error")
	})

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected OnRetry attempts [1 2], got %v", attempts)
	}
}

func TestRetryFunc(t *testing.T) {
	calls := 0
	err := RetryFunc(context.Background(), fastRetry(3), func() error {
		calls++
		if calls < 2 {
			return errors.New("error")
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
	}

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, expected := range want {
		if got := calculateBackoff(i+1, cfg); got != expected {
			t.Errorf("attempt %d: expected %v, got %v", i+1, expected, got)
		}
	}
}

func TestRetry_ZeroConfigUsesDefaults(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), RetryConfig{InitialBackoff: time.Millisecond}, func() (int, error) {
		calls++
		return 0, errors.New("temporary")
	})
	if err == nil {
		t.Fatal("expected the last error")
	}
	if want := DefaultRetryConfig().MaxAttempts; calls != want {
		t.Errorf("expected %d attempts, got %d", want, calls)
	}

	cfg := RetryConfig{}.withDefaults()
	if cfg.MaxBackoff != DefaultRetryConfig().MaxBackoff || cfg.RetryIf == nil {
		t.Errorf("expected defaults to be filled, got %+v", cfg)
	}
	if cfg.Jitter != 0 {
		t.Errorf("expected jitter to stay unset, got %v", cfg.Jitter)
	}
}
