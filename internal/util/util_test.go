package util

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), 5, 0, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient error")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestRetryAllFail(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), 3, 0, func() error {
		attempts++
		return errors.New("persistent error")
	})
	require.Error(t, err)
	require.Equal(t, 3, attempts)
}

func TestRetryPermanentStopsEarly(t *testing.T) {
	attempts := 0
	sentinel := errors.New("bad request")
	err := Retry(context.Background(), 5, 0, func() error {
		attempts++
		return Permanent(sentinel)
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 1, attempts)
}

func TestRateLimiterWait(t *testing.T) {
	rl := NewRateLimiter(60)
	require.NotNil(t, rl)

	// The first token is available immediately.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, rl.Wait(ctx))
	// The second one is a second away, so the short context expires.
	require.Error(t, rl.Wait(ctx))
}

func TestBackoff(t *testing.T) {
	cases := []struct {
		retry int
		want  time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{6, 60 * time.Second},
		{40, 60 * time.Second},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Backoff(c.retry), "Backoff(%d)", c.retry)
	}
}

func TestNewLoggerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", "text", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "msg=shown")
	require.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
