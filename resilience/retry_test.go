package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// recordingSleep records requested delays without waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func TestNewRetry(t *testing.T) {
	r := NewRetry(RetryConfig{})

	if r.config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", r.config.MaxAttempts)
	}
	if r.config.InitialDelay != time.Second {
		t.Errorf("InitialDelay = %v, want 1s", r.config.InitialDelay)
	}
	if r.config.MaxDelay != 4*time.Second {
		t.Errorf("MaxDelay = %v, want 4s", r.config.MaxDelay)
	}
	if r.config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0", r.config.Multiplier)
	}
	if r.config.Sleep == nil {
		t.Error("Sleep should default to SleepContext")
	}
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	sleep := &recordingSleep{}
	r := NewRetry(RetryConfig{MaxAttempts: 3, Sleep: sleep.sleep})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if len(sleep.delays) != 0 {
		t.Errorf("slept %v, want no sleeps", sleep.delays)
	}
}

func TestRetry_SuccessOnRetry(t *testing.T) {
	sleep := &recordingSleep{}
	r := NewRetry(RetryConfig{MaxAttempts: 3, Sleep: sleep.sleep})

	attempts := 0
	testErr := errors.New("test error")

	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return testErr
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(sleep.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", sleep.delays, want)
	}
	for i := range want {
		if sleep.delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, sleep.delays[i], want[i])
		}
	}
}

func TestRetry_ExhaustedAttempts(t *testing.T) {
	sleep := &recordingSleep{}
	r := NewRetry(RetryConfig{MaxAttempts: 3, Sleep: sleep.sleep})

	attempts := 0
	testErr := errors.New("persistent error")

	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return testErr
	})

	if err != testErr {
		t.Errorf("Execute() error = %v, want %v", err, testErr)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(sleep.delays) != 2 {
		t.Errorf("sleeps = %d, want 2 (no sleep after the last attempt)", len(sleep.delays))
	}
}

func TestRetry_BackoffSchedule(t *testing.T) {
	r := NewRetry(RetryConfig{
		InitialDelay: 1000 * time.Millisecond,
		MaxDelay:     4000 * time.Millisecond,
	})

	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		4000 * time.Millisecond,
		4000 * time.Millisecond,
	}
	for i, w := range want {
		if got := r.Backoff(i); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestRetry_BackoffMonotonic(t *testing.T) {
	strategies := []BackoffStrategy{BackoffExponential, BackoffLinear, BackoffConstant}

	for _, s := range strategies {
		r := NewRetry(RetryConfig{
			InitialDelay: 250 * time.Millisecond,
			MaxDelay:     3 * time.Second,
			Strategy:     s,
		})

		prev := time.Duration(0)
		for i := 0; i < 200; i++ {
			d := r.Backoff(i)
			if d < prev {
				t.Fatalf("strategy %d: Backoff(%d) = %v < previous %v", s, i, d, prev)
			}
			if d > 3*time.Second {
				t.Fatalf("strategy %d: Backoff(%d) = %v exceeds cap", s, i, d)
			}
			prev = d
		}
	}
}

func TestRetry_SustainedFailureUsesSchedule(t *testing.T) {
	sleep := &recordingSleep{}
	r := NewRetry(RetryConfig{MaxAttempts: 5, Sleep: sleep.sleep})

	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("429")
	})

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second}
	if len(sleep.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", sleep.delays, want)
	}
	for i := range want {
		if sleep.delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, sleep.delays[i], want[i])
		}
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 10, InitialDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	attempts := 0
	err := r.Execute(ctx, func(ctx context.Context) error {
		attempts++
		return errors.New("test error")
	})

	if err != context.Canceled {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_RetryIf(t *testing.T) {
	retryableErr := errors.New("retryable")
	nonRetryableErr := errors.New("non-retryable")
	sleep := &recordingSleep{}

	r := NewRetry(RetryConfig{
		MaxAttempts: 3,
		Sleep:       sleep.sleep,
		RetryIf: func(err error) bool {
			return err == retryableErr
		},
	})

	t.Run("retryable error", func(t *testing.T) {
		attempts := 0
		err := r.Execute(context.Background(), func(ctx context.Context) error {
			attempts++
			return retryableErr
		})
		if err != retryableErr || attempts != 3 {
			t.Errorf("err=%v attempts=%d, want %v and 3", err, attempts, retryableErr)
		}
	})

	t.Run("non-retryable error", func(t *testing.T) {
		attempts := 0
		err := r.Execute(context.Background(), func(ctx context.Context) error {
			attempts++
			return nonRetryableErr
		})
		if err != nonRetryableErr || attempts != 1 {
			t.Errorf("err=%v attempts=%d, want %v and 1", err, attempts, nonRetryableErr)
		}
	})
}

func TestRetry_OnRetryState(t *testing.T) {
	var states []RetryState
	r := NewRetry(RetryConfig{
		MaxAttempts: 3,
		Sleep:       (&recordingSleep{}).sleep,
		OnRetry: func(state RetryState, err error) {
			states = append(states, state)
		},
	})

	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	})

	want := []RetryState{
		{Attempt: 1, MaxAttempts: 3, LastDelay: time.Second},
		{Attempt: 2, MaxAttempts: 3, LastDelay: 2 * time.Second},
	}
	if len(states) != len(want) {
		t.Fatalf("states = %+v, want %+v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("state[%d] = %+v, want %+v", i, states[i], want[i])
		}
	}
}

func TestRetry_JitterBounded(t *testing.T) {
	r := NewRetry(RetryConfig{InitialDelay: time.Second, MaxDelay: 4 * time.Second, Jitter: true})

	for i := 0; i < 100; i++ {
		d := r.calculateDelay(0)
		if d < time.Second || d > time.Second+time.Second/4 {
			t.Fatalf("jittered delay %v outside [1s, 1.25s]", d)
		}
	}
}

func TestSleepContext(t *testing.T) {
	if err := SleepContext(context.Background(), 0); err != nil {
		t.Errorf("zero sleep error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepContext(ctx, time.Hour); err != context.Canceled {
		t.Errorf("cancelled sleep error = %v, want context.Canceled", err)
	}
}
