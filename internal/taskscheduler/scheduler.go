package taskscheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// maxBackoffFactor caps the interval growth after consecutive failures.
const maxBackoffFactor = 8

// Handler is the work a task performs on every wake-up.
type Handler func(ctx context.Context) (domain.FetchResult, error)

// Options are the registration parameters of a task.
type Options struct {
	// MinimumInterval is the shortest period between two runs.
	MinimumInterval time.Duration `yaml:"minimum_interval"`
	// PersistAcrossRestart keeps the registration in the registry file.
	PersistAcrossRestart bool `yaml:"persist_across_restart"`
	// RunAfterReboot installs an autostart entry for the host process.
	RunAfterReboot bool `yaml:"run_after_reboot"`
}

var (
	// ErrEmptyName is returned when a task name is empty.
	ErrEmptyName = errors.New("task name must be provided")
	// ErrInvalidInterval is returned for a non-positive minimum interval.
	ErrInvalidInterval = errors.New("minimum interval must be positive")
	// ErrNotRegistered is returned when unregistering an unknown task.
	ErrNotRegistered = errors.New("task is not registered")
)

// Autostarter manages the entry that relaunches the host process after a reboot.
type Autostarter interface {
	Enable(name string) error
	Disable(name string) error
}

// task is the scheduler-side state of one name.
type task struct {
	// handler is nil until the task is defined.
	handler Handler
	// options is set once the task is registered.
	options *Options
	// interval is the current, possibly backed off, period.
	interval time.Duration
	// next is the wall-clock time of the next run.
	next time.Time
}

// Scheduler delivers ticks to tasks that are both defined and registered.
type Scheduler struct {
	// registry persists registrations; nil disables persistence.
	registry *Registry
	// autostart manages reboot entries; nil disables them.
	autostart Autostarter

	// mu protects tasks.
	mu sync.Mutex
	// tasks by name.
	tasks map[string]*task
	// wake interrupts the run loop after a change.
	wake chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRegistry persists registrations that ask for it.
func WithRegistry(registry *Registry) Option {
	return func(s *Scheduler) {
		s.registry = registry
	}
}

// WithAutostarter enables reboot autostart entries.
func WithAutostarter(autostart Autostarter) Option {
	return func(s *Scheduler) {
		s.autostart = autostart
	}
}

// New creates an idle scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		tasks: make(map[string]*task),
		wake:  make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Define binds handler to name. Defining again replaces the handler.
func (s *Scheduler) Define(name string, handler Handler) error {
	if name == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	s.entry(name).handler = handler
	s.mu.Unlock()

	s.notify()

	return nil
}

// Register schedules name with options. The first run happens one interval
// after registration. Registering again replaces the options.
func (s *Scheduler) Register(ctx context.Context, name string, options Options) error {
	if name == "" {
		return ErrEmptyName
	}

	if options.MinimumInterval <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	s.arm(name, options, time.Now())
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return err
	}

	// A missing reboot entry does not undo the registration; Restore retries it.
	if err := s.syncAutostart(name, options.RunAfterReboot); err != nil {
		logger.WarnKV(ctx, "Reboot autostart not installed", "task", name, "error", err)
	}

	logger.InfoKV(
		ctx,
		"Background task registered",
		"task", name,
		"minimum_interval", options.MinimumInterval.String(),
		"persist_across_restart", options.PersistAcrossRestart,
		"run_after_reboot", options.RunAfterReboot,
	)

	s.notify()

	return nil
}

// Unregister removes the registration of name, its persisted entry and its
// autostart entry. The handler stays defined.
func (s *Scheduler) Unregister(ctx context.Context, name string) error {
	s.mu.Lock()

	t, ok := s.tasks[name]
	if !ok || t.options == nil {
		s.mu.Unlock()

		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	t.options = nil
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return err
	}

	if err := s.syncAutostart(name, false); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Background task unregistered", "task", name)

	s.notify()

	return nil
}

// Restore re-registers every task found in the registry.
func (s *Scheduler) Restore(ctx context.Context) error {
	if s.registry == nil {
		return nil
	}

	registrations, err := s.registry.Load()
	if err != nil {
		return err
	}

	now := time.Now()

	s.mu.Lock()
	for name, options := range registrations {
		s.arm(name, options, now)
	}
	s.mu.Unlock()

	for name, options := range registrations {
		logger.InfoKV(ctx, "Background task restored", "task", name)

		if !options.RunAfterReboot {
			continue
		}

		if err = s.syncAutostart(name, true); err != nil {
			logger.WarnKV(ctx, "Reboot autostart not installed", "task", name, "error", err)
		}
	}

	s.notify()

	return nil
}

// Registration returns the options name is registered with.
func (s *Scheduler) Registration(name string) (Options, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[name]
	if !ok || t.options == nil {
		return Options{}, false
	}

	return *t.options, true
}

// Registered returns the sorted names of registered tasks.
func (s *Scheduler) Registered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks))

	for name, t := range s.tasks {
		if t.options != nil {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names
}

// Interval returns the current, possibly backed off, period of name.
func (s *Scheduler) Interval(name string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tasks[name]; ok {
		return t.interval
	}

	return 0
}

// Run delivers ticks until ctx is done. Handlers run one at a time on the
// calling goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "task-scheduler")

	var timer *time.Timer

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		var timerCh <-chan time.Time

		if next, ok := s.nextRun(); ok {
			timer = resetTimer(timer, time.Until(next))
			timerCh = timer.C
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
		case <-timerCh:
			s.runDue(ctx, time.Now())
		}
	}
}

// runDue runs every task whose next run time has been reached.
func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	for _, name := range s.dueTasks(now) {
		s.mu.Lock()
		t, ok := s.tasks[name]

		var handler Handler
		if ok && t.options != nil {
			handler = t.handler
		}
		s.mu.Unlock()

		if handler == nil {
			continue
		}

		result, err := handler(ctx)
		if err != nil {
			logger.ErrorKV(ctx, "Background task failed", "task", name, "error", err)

			result = domain.Failed
		}

		s.complete(ctx, name, result)
	}
}

// complete applies a run result: failures back off, anything else resets the interval.
func (s *Scheduler) complete(ctx context.Context, name string, result domain.FetchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[name]
	if !ok || t.options == nil {
		return
	}

	if result == domain.Failed {
		t.interval = min(2*t.interval, maxBackoffFactor*t.options.MinimumInterval)
	} else {
		t.interval = t.options.MinimumInterval
	}

	t.next = time.Now().Add(t.interval)

	logger.DebugKV(ctx, "Background task completed", "task", name, "result", result.String(), "next_run", t.next)
}

// dueTasks returns the sorted names of runnable tasks due at now.
func (s *Scheduler) dueTasks(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string

	for name, t := range s.tasks {
		if t.runnable() && !t.next.After(now) {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names
}

// nextRun returns the earliest next run among runnable tasks.
func (s *Scheduler) nextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		earliest time.Time
		found    bool
	)

	for _, t := range s.tasks {
		if !t.runnable() {
			continue
		}

		if !found || t.next.Before(earliest) {
			earliest = t.next
			found = true
		}
	}

	return earliest, found
}

// entry returns the task for name, creating it. Callers hold mu.
func (s *Scheduler) entry(name string) *task {
	t, ok := s.tasks[name]
	if !ok {
		t = new(task)
		s.tasks[name] = t
	}

	return t
}

// arm registers name with options starting from now. Callers hold mu.
func (s *Scheduler) arm(name string, options Options, now time.Time) {
	t := s.entry(name)
	t.options = &options
	t.interval = options.MinimumInterval
	t.next = now.Add(options.MinimumInterval)
}

// persist writes registrations that persist across restarts.
func (s *Scheduler) persist() error {
	if s.registry == nil {
		return nil
	}

	s.mu.Lock()

	registrations := make(map[string]Options)

	for name, t := range s.tasks {
		if t.options != nil && t.options.PersistAcrossRestart {
			registrations[name] = *t.options
		}
	}
	s.mu.Unlock()

	return s.registry.Save(registrations)
}

// syncAutostart enables or disables the reboot entry of name.
func (s *Scheduler) syncAutostart(name string, enabled bool) error {
	if s.autostart == nil {
		return nil
	}

	if enabled {
		if err := s.autostart.Enable(name); err != nil {
			return fmt.Errorf("enable autostart: %w", err)
		}

		return nil
	}

	if err := s.autostart.Disable(name); err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}

	return nil
}

// notify wakes the run loop without blocking.
func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// runnable reports whether the task has both a handler and a registration.
func (t *task) runnable() bool {
	return t.handler != nil && t.options != nil
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	d = max(d, 0)

	if timer == nil {
		return time.NewTimer(d)
	}

	timer.Reset(d)

	return timer
}
