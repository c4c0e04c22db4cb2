package alarm

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// StorageKey is the key under which the pending alarm is persisted.
const StorageKey = "alarmTime"

// ErrNotInFuture is returned when a user picks a time that is not strictly in the future.
var ErrNotInFuture = errors.New("please select a future time")

// PendingAlarm is the single armed alarm. Its precision is one millisecond,
// the resolution it is stored with.
type PendingAlarm struct {
	// TriggerAt is the wall-clock time at which the alarm becomes due.
	TriggerAt time.Time
}

// NewPendingAlarm returns an alarm for t truncated to millisecond precision.
func NewPendingAlarm(t time.Time) PendingAlarm {
	return FromEpochMillis(t.UnixMilli())
}

// FromEpochMillis builds an alarm from a Unix timestamp in milliseconds.
func FromEpochMillis(ms int64) PendingAlarm {
	return PendingAlarm{TriggerAt: time.UnixMilli(ms)}
}

// EpochMillis returns the trigger time as Unix milliseconds.
func (p PendingAlarm) EpochMillis() int64 {
	return p.TriggerAt.UnixMilli()
}

// String returns the stored representation: a decimal count of epoch milliseconds.
func (p PendingAlarm) String() string {
	return strconv.FormatInt(p.EpochMillis(), 10)
}

// Equal reports whether both alarms trigger at the same millisecond.
func (p PendingAlarm) Equal(other PendingAlarm) bool {
	return p.EpochMillis() == other.EpochMillis()
}

// ValidateFuture rejects trigger times at or before now.
func ValidateFuture(now, triggerAt time.Time) error {
	if !triggerAt.After(now) {
		return ErrNotInFuture
	}

	return nil
}

// Phase is the lifecycle position of the pending alarm.
type Phase int

const (
	// PhaseAbsent means no alarm is armed.
	PhaseAbsent Phase = iota
	// PhaseArmed means an alarm is stored and its time has not come yet.
	PhaseArmed
	// PhaseDue means the trigger time has passed but the alarm has not fired.
	PhaseDue
	// PhaseFired means the alert was emitted and the store cleared.
	PhaseFired
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseAbsent:
		return "absent"
	case PhaseArmed:
		return "armed"
	case PhaseDue:
		return "due"
	case PhaseFired:
		return "fired"
	default:
		return "phase(" + strconv.Itoa(int(p)) + ")"
	}
}

// PhaseOf classifies a stored alarm against now. A nil pending alarm is absent.
// PhaseFired is never returned: once fired the alarm is gone from the store.
func PhaseOf(now time.Time, pending *PendingAlarm) Phase {
	switch {
	case pending == nil:
		return PhaseAbsent
	case now.Before(pending.TriggerAt):
		return PhaseArmed
	default:
		return PhaseDue
	}
}

// Action is what a watcher cycle must do with the pending alarm.
type Action int

const (
	// ActionNoop leaves the store untouched.
	ActionNoop Action = iota
	// ActionFire emits the alert and then clears the store.
	ActionFire
)

// String implements fmt.Stringer.
func (a Action) String() string {
	if a == ActionFire {
		return "fire"
	}

	return "noop"
}

// Decide is the tick rule: fire exactly when an alarm is stored and now has
// reached its trigger time.
func Decide(now time.Time, pending *PendingAlarm) Action {
	if PhaseOf(now, pending) == PhaseDue {
		return ActionFire
	}

	return ActionNoop
}

// FetchResult is the completion status a cycle reports to its scheduler.
type FetchResult int

const (
	// NoData means the cycle ran and had nothing to do.
	NoData FetchResult = iota
	// NewData means the cycle fired an alarm.
	NewData
	// Failed means the cycle could not read or clear the store.
	Failed
)

// errUnknownFetchResult is returned by ParseFetchResult for unrecognised names.
var errUnknownFetchResult = errors.New("unknown fetch result")

// String implements fmt.Stringer.
func (r FetchResult) String() string {
	switch r {
	case NoData:
		return "no_data"
	case NewData:
		return "new_data"
	case Failed:
		return "failed"
	default:
		return "fetch_result(" + strconv.Itoa(int(r)) + ")"
	}
}

// ParseFetchResult converts the String form back into a FetchResult.
func ParseFetchResult(s string) (FetchResult, error) {
	switch s {
	case "no_data":
		return NoData, nil
	case "new_data":
		return NewData, nil
	case "failed":
		return Failed, nil
	default:
		return NoData, fmt.Errorf("%w: %q", errUnknownFetchResult, s)
	}
}
