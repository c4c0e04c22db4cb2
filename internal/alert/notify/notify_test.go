package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"
)

var errNoDisplay = errors.New("no display")

// recordingNotifier counts calls and returns err.
type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Notify(context.Context, Notification) error {
	r.calls++

	return r.err
}

// TestChain_FallsBack verifies that the chain stops at the first successful notifier.
func TestChain_FallsBack(t *testing.T) {
	t.Parallel()

	failing := &recordingNotifier{err: errNoDisplay}
	working := new(recordingNotifier)
	unused := new(recordingNotifier)

	err := Chain{failing, working, unused}.Notify(context.Background(), Notification{Title: "Alarm"})
	require.NoError(t, err)
	require.Equal(t, 1, failing.calls)
	require.Equal(t, 1, working.calls)
	require.Zero(t, unused.calls)
}

// TestChain_AllFail ensures every failure is reported.
func TestChain_AllFail(t *testing.T) {
	t.Parallel()

	err := Chain{&recordingNotifier{err: errNoDisplay}, &recordingNotifier{err: ErrDeferredTrigger}}.
		Notify(context.Background(), Notification{})
	require.ErrorIs(t, err, errNoDisplay)
	require.ErrorIs(t, err, ErrDeferredTrigger)
}

// TestTrigger checks immediate and deferred triggers.
func TestTrigger(t *testing.T) {
	t.Parallel()

	require.True(t, Immediate().IsImmediate())

	at := time.Now().Add(time.Minute)
	require.False(t, At(at).IsImmediate())
	require.Equal(t, at, At(at).Time())
}

// TestDBusNotifier_RejectsDeferred ensures deferred triggers fail before touching the bus.
func TestDBusNotifier_RejectsDeferred(t *testing.T) {
	t.Parallel()

	connected := false
	notifier := NewDBusNotifier("alarm-clock")
	notifier.connect = func() (*dbus.Conn, error) {
		connected = true

		return nil, errNoDisplay
	}

	err := notifier.Notify(context.Background(), Notification{Trigger: At(time.Now().Add(time.Hour))})
	require.ErrorIs(t, err, ErrDeferredTrigger)
	require.False(t, connected)

	err = notifier.Notify(context.Background(), Notification{Trigger: Immediate()})
	require.ErrorIs(t, err, errNoDisplay)
	require.True(t, connected)
}

// TestLogNotifier always succeeds.
func TestLogNotifier(t *testing.T) {
	t.Parallel()

	require.NoError(t, LogNotifier{}.Notify(context.Background(), Notification{Title: "Alarm", Body: "Wake up!"}))
}
