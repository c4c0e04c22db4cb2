package daemon

import (
	"errors"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

var errProcessTable = errors.New("process table unavailable")

// fakeProcess implements ps.Process.
type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.executable }

func processes(list ...ps.Process) processLister {
	return func() ([]ps.Process, error) {
		return list, nil
	}
}

// TestCheckInstances finds other daemon processes and ignores itself.
func TestCheckInstances(t *testing.T) {
	t.Parallel()

	require.NoError(t, checkInstances(processes(
		fakeProcess{pid: 10, executable: "alarm-daemon"},
		fakeProcess{pid: 11, executable: "alarm-ctl"},
	), "alarm-daemon", 10))

	require.ErrorIs(t, checkInstances(processes(
		fakeProcess{pid: 10, executable: "alarm-daemon"},
		fakeProcess{pid: 42, executable: "alarm-daemon"},
	), "alarm-daemon", 10), ErrAlreadyRunning)

	require.ErrorIs(t, checkInstances(func() ([]ps.Process, error) {
		return nil, errProcessTable
	}, "alarm-daemon", 10), errProcessTable)
}
