package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestDecide covers the fire rule at, before and after the trigger time.
func TestDecide(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		pending *PendingAlarm
		phase   Phase
		action  Action
	}{
		{name: "absent", pending: nil, phase: PhaseAbsent, action: ActionNoop},
		{name: "armed", pending: &PendingAlarm{TriggerAt: now.Add(time.Millisecond)}, phase: PhaseArmed, action: ActionNoop},
		{name: "exactly due", pending: &PendingAlarm{TriggerAt: now}, phase: PhaseDue, action: ActionFire},
		{name: "overdue", pending: &PendingAlarm{TriggerAt: now.Add(-time.Hour)}, phase: PhaseDue, action: ActionFire},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.phase, PhaseOf(now, tc.pending))
			require.Equal(t, tc.action, Decide(now, tc.pending))
		})
	}
}

// TestValidateFuture verifies that only strictly future times are accepted.
func TestValidateFuture(t *testing.T) {
	t.Parallel()

	now := time.Now()

	require.NoError(t, ValidateFuture(now, now.Add(time.Second)))
	require.ErrorIs(t, ValidateFuture(now, now), ErrNotInFuture)
	require.ErrorIs(t, ValidateFuture(now, now.Add(-time.Minute)), ErrNotInFuture)
}

// TestPendingAlarm_Millis checks the stored representation and millisecond truncation.
func TestPendingAlarm_Millis(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1760857200123).Add(456 * time.Microsecond)
	pending := NewPendingAlarm(at)

	require.Equal(t, int64(1760857200123), pending.EpochMillis())
	require.Equal(t, "1760857200123", pending.String())
	require.True(t, pending.Equal(FromEpochMillis(1760857200123)))
	require.False(t, pending.Equal(FromEpochMillis(1760857200124)))
}

// TestFetchResult_Strings verifies String and ParseFetchResult agree.
func TestFetchResult_Strings(t *testing.T) {
	t.Parallel()

	for _, result := range []FetchResult{NoData, NewData, Failed} {
		parsed, err := ParseFetchResult(result.String())
		require.NoError(t, err)
		require.Equal(t, result, parsed)
	}

	_, err := ParseFetchResult("maybe")
	require.Error(t, err)
	require.Equal(t, "due", PhaseDue.String())
	require.Equal(t, "fire", ActionFire.String())
}
