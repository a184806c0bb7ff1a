package streamsup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCancelTripsRegisteredHandle(t *testing.T) {
	s := New()
	h := s.CreateSession(context.Background(), 0)
	s.Register("m1", h)

	ok := s.Cancel("m1", ReasonCancelled)
	require.True(t, ok)

	select {
	case <-h.Done():
	default:
		t.Fatal("handle was not cancelled")
	}
	require.Equal(t, ReasonCancelled, h.Reason())
}

func TestCancelUnknownMessageReturnsFalse(t *testing.T) {
	s := New()
	require.False(t, s.Cancel("missing", ReasonCancelled))
}

func TestTimeoutFiresWithoutExplicitCancel(t *testing.T) {
	s := New()
	h := s.CreateSession(context.Background(), 20*time.Millisecond)
	s.Register("m2", h)

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("timeout never fired")
	}
	require.Equal(t, ReasonTimedOut, h.Reason())
}

func TestUnregisterStopsTimer(t *testing.T) {
	s := New()
	h := s.CreateSession(context.Background(), 50*time.Millisecond)
	s.Register("m3", h)
	s.Unregister("m3")

	time.Sleep(100 * time.Millisecond)
	select {
	case <-h.Done():
		t.Fatal("handle should not have been cancelled after unregister")
	default:
	}
	require.Equal(t, Reason(""), h.Reason())
}

func TestFirstReasonWins(t *testing.T) {
	s := New()
	h := s.CreateSession(context.Background(), 0)
	s.Register("m4", h)

	h.trip(ReasonCancelled)
	h.trip(ReasonTimedOut)
	require.Equal(t, ReasonCancelled, h.Reason())
}

func TestActiveCountsLiveHandles(t *testing.T) {
	s := New()
	require.Equal(t, 0, s.Active())
	h := s.CreateSession(context.Background(), 0)
	s.Register("m5", h)
	require.Equal(t, 1, s.Active())
	s.Unregister("m5")
	require.Equal(t, 0, s.Active())
}

func TestParentCancellationPropagates(t *testing.T) {
	s := New()
	parent, cancel := context.WithCancel(context.Background())
	h := s.CreateSession(parent, 0)
	s.Register("m6", h)

	cancel()
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("handle did not observe parent cancellation")
	}
}
