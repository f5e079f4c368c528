package resilience

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProvider = eris.New("provider down")

func fail(context.Context) (string, error) { return "", errProvider }
func ok(context.Context) (string, error)   { return "ok", nil }

func newTestBreaker(threshold int, cooldown time.Duration) (*Breaker, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(BreakerConfig{FailureThreshold: threshold, Cooldown: cooldown})
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := Guard(ctx, b, fail)
		require.ErrorIs(t, err, errProvider)
		assert.Equal(t, Closed, b.State())
	}
	_, err := Guard(ctx, b, fail)
	require.ErrorIs(t, err, errProvider)
	assert.Equal(t, Open, b.State())

	called := false
	_, err = Guard(ctx, b, func(context.Context) (string, error) {
		called = true
		return "", nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(2, time.Minute)
	ctx := context.Background()

	_, _ = Guard(ctx, b, fail)
	_, _ = Guard(ctx, b, ok)
	_, _ = Guard(ctx, b, fail)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	t.Parallel()

	b, now := newTestBreaker(1, time.Minute)
	ctx := context.Background()

	_, _ = Guard(ctx, b, fail)
	assert.Equal(t, Open, b.State())

	*now = now.Add(time.Minute)
	assert.Equal(t, HalfOpen, b.State())

	v, err := Guard(ctx, b, ok)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	t.Parallel()

	b, now := newTestBreaker(1, time.Minute)
	ctx := context.Background()

	_, _ = Guard(ctx, b, fail)
	*now = now.Add(2 * time.Minute)

	_, err := Guard(ctx, b, fail)
	require.ErrorIs(t, err, errProvider)
	assert.Equal(t, Open, b.State())

	_, err = Guard(ctx, b, ok)
	require.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreaker_CancellationDoesNotTrip(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(1, time.Minute)
	_, err := Guard(context.Background(), b, func(context.Context) (string, error) {
		return "", eris.Wrap(context.Canceled, "caller gave up")
	})
	require.Error(t, err)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_OnStateChange(t *testing.T) {
	t.Parallel()

	var moves []string
	b := NewBreaker(BreakerConfig{
		FailureThreshold: 1,
		Cooldown:         time.Minute,
		OnStateChange: func(from, to State) {
			moves = append(moves, fmt.Sprintf("%s->%s", from, to))
		},
	})
	now := time.Now()
	b.now = func() time.Time { return now }

	_, _ = Guard(context.Background(), b, fail)
	now = now.Add(time.Minute)
	_, _ = Guard(context.Background(), b, ok)

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, moves)
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	def := FromConfig(0, -1)
	assert.Equal(t, 5, def.FailureThreshold)
	assert.Equal(t, 30*time.Second, def.Cooldown)

	custom := FromConfig(2, 10)
	assert.Equal(t, 2, custom.FailureThreshold)
	assert.Equal(t, 10*time.Second, custom.Cooldown)
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"circuit open", eris.Wrap(ErrCircuitOpen, "catalog"), "transient"},
		{"deadline", eris.Wrap(context.DeadlineExceeded, "support"), "transient"},
		{"rate limited", &sdk.Error{StatusCode: http.StatusTooManyRequests}, "transient"},
		{"overloaded", &sdk.Error{StatusCode: 529}, "transient"},
		{"bad request", &sdk.Error{StatusCode: http.StatusBadRequest}, "permanent"},
		{"connection reset", eris.New("read: connection reset by peer"), "transient"},
		{"parse", eris.New("agent: decode catalog response"), "permanent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}

	assert.False(t, IsTransient(nil))
}
