package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func failing() error { return errUpstream }
func passing() error { return nil }

func TestOpensAfterFailureThreshold(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 3, OpenTimeout: time.Hour})

	for i := 0; i < 3; i++ {
		assert.Equal(t, errUpstream, cb.Execute(failing))
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(passing)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 3, OpenTimeout: time.Hour})

	cb.Execute(failing)
	cb.Execute(failing)
	require.NoError(t, cb.Execute(passing))
	cb.Execute(failing)
	cb.Execute(failing)

	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenClosesAfterSuccesses(t *testing.T) {
	cb := New("test", Config{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      10 * time.Millisecond,
	})

	cb.Execute(failing)
	assert.Equal(t, StateOpen, cb.state)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(passing))
	require.NoError(t, cb.Execute(passing))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New("test", Config{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      time.Second,
	})

	cb.Execute(failing)
	cb.mu.Lock()
	cb.openedAt = time.Now().Add(-2 * time.Second)
	cb.mu.Unlock()

	assert.Equal(t, errUpstream, cb.Execute(failing))
	assert.ErrorIs(t, cb.Execute(passing), ErrCircuitOpen)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
}
