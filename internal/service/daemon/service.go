package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/spf13/afero"
	"google.golang.org/grpc"

	api "github.com/oshokin/alarm-clock/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-clock/internal/config"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/repository/kv"
	"github.com/oshokin/alarm-clock/internal/taskscheduler"
	"github.com/oshokin/alarm-clock/internal/timestore"
	"github.com/oshokin/alarm-clock/internal/watcher"
)

// ErrNotInitialized is returned when the service is used before Init.
var ErrNotInitialized = errors.New("alarm service is not initialized")

// AlarmService owns the alarm lifecycle: storage, watcher and emitter.
type AlarmService struct {
	// cfg holds validated settings.
	cfg *config.Config
	// fs backs the file storage.
	fs afero.Fs
	// emitter overrides the emitter built from cfg.Alert.
	emitter watcher.Emitter
	// autostart manages the reboot entry of the background task.
	autostart taskscheduler.Autostarter
	// now returns the current wall-clock time.
	now func() time.Time

	// mu guards the fields set by Init and released by Shutdown.
	mu sync.Mutex
	// storage is the opened backend.
	storage kv.Storage
	// store holds the pending alarm.
	store *timestore.Store
	// cycle is the due-check pass shared by the watcher and RunCheck.
	cycle *watcher.Cycle
	// strategy drives cycles.
	strategy watcher.Strategy
}

// Option configures an AlarmService.
type Option func(*AlarmService)

// WithFs replaces the OS file system used by the file backend.
func WithFs(fs afero.Fs) Option {
	return func(s *AlarmService) {
		s.fs = fs
	}
}

// WithEmitter replaces the emitter built from the alert settings.
func WithEmitter(emitter watcher.Emitter) Option {
	return func(s *AlarmService) {
		s.emitter = emitter
	}
}

// WithAutostarter enables reboot autostart entries for the background task.
func WithAutostarter(autostart taskscheduler.Autostarter) Option {
	return func(s *AlarmService) {
		s.autostart = autostart
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *AlarmService) {
		s.now = now
	}
}

// New creates an uninitialized service for validated settings.
func New(cfg *config.Config, opts ...Option) *AlarmService {
	s := &AlarmService{
		cfg: cfg,
		fs:  afero.NewOsFs(),
		now: time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Init opens storage, restores background registrations and selects the
// watcher strategy.
func (s *AlarmService) Init(ctx context.Context) error {
	ctx = logger.WithName(ctx, "alarm-service")

	storage, err := kv.Open(ctx, s.fs, s.cfg.Store)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	emitter := s.emitter
	if emitter == nil {
		emitter = newEmitter(s.cfg.Alert)
	}

	store := timestore.New(storage)
	cycle := watcher.NewCycle(store, emitter, watcher.WithClock(s.now))

	schedulerOptions := []taskscheduler.Option{
		taskscheduler.WithRegistry(taskscheduler.NewRegistry(s.fs, s.cfg.Watcher.RegistryFile)),
	}

	if s.autostart != nil {
		schedulerOptions = append(schedulerOptions, taskscheduler.WithAutostarter(s.autostart))
	}

	scheduler := taskscheduler.New(schedulerOptions...)

	if s.cfg.Watcher.Strategy == config.StrategyBackground {
		if err = scheduler.Restore(ctx); err != nil {
			_ = storage.Close()

			return fmt.Errorf("restore background tasks: %w", err)
		}
	}

	strategy, err := watcher.New(s.cfg.Watcher, cycle, scheduler)
	if err != nil {
		_ = storage.Close()

		return fmt.Errorf("select watcher: %w", err)
	}

	s.mu.Lock()
	s.storage = storage
	s.store = store
	s.cycle = cycle
	s.strategy = strategy
	s.mu.Unlock()

	logger.InfoKV(
		ctx,
		"Alarm service initialized",
		"backend", s.cfg.Store.Backend,
		"strategy", s.cfg.Watcher.Strategy,
		"interval", watcher.Interval(s.cfg.Watcher).String(),
	)

	return nil
}

// Serve runs the watcher and serves gRPC on lis until ctx is canceled.
func (s *AlarmService) Serve(ctx context.Context, lis net.Listener) error {
	ctx = logger.WithName(ctx, "alarm-service")

	s.mu.Lock()
	strategy := s.strategy
	s.mu.Unlock()

	if strategy == nil {
		return ErrNotInitialized
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(api.ActorInterceptor))
	api.RegisterAlarmServiceServer(grpcServer, api.NewServer(s))

	watcherCtx, stopWatcher := context.WithCancel(ctx)
	defer stopWatcher()

	watcherDone := make(chan error, 1)

	go func() {
		// A watcher that stops on its own takes the server down with it.
		defer stopWatcher()

		watcherDone <- strategy.Run(watcherCtx)
	}()

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
		case <-watcherCtx.Done():
		}

		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	logger.InfoKV(ctx, "Alarm daemon listening", "listen_address", lis.Addr().String())

	serveErr := grpcServer.Serve(lis)
	if serveErr != nil && errors.Is(serveErr, grpc.ErrServerStopped) {
		serveErr = nil
	}

	stopWatcher()
	<-done

	watcherErr := <-watcherDone
	logger.Info(ctx, "GRPC server stopped")

	if serveErr != nil {
		return fmt.Errorf("serve gRPC: %w", serveErr)
	}

	if watcherErr != nil {
		return fmt.Errorf("run watcher: %w", watcherErr)
	}

	return nil
}

// Shutdown releases storage. It is safe to call more than once.
func (s *AlarmService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	storage := s.storage
	s.storage = nil
	s.store = nil
	s.cycle = nil
	s.strategy = nil
	s.mu.Unlock()

	if storage == nil {
		return nil
	}

	if err := storage.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}

	logger.Info(logger.WithName(ctx, "alarm-service"), "Alarm service stopped")

	return nil
}

// SetAlarm arms the alarm for triggerAt, which must be strictly in the future.
func (s *AlarmService) SetAlarm(ctx context.Context, triggerAt time.Time) (domain.PendingAlarm, error) {
	store, err := s.timeStore()
	if err != nil {
		return domain.PendingAlarm{}, err
	}

	// Validate what will be stored: the store keeps millisecond precision.
	triggerAt = domain.NewPendingAlarm(triggerAt).TriggerAt

	if err = domain.ValidateFuture(s.now(), triggerAt); err != nil {
		logger.InfoKV(ctx, "Alarm rejected", "trigger_at", triggerAt.Format(time.RFC3339), "error", err)

		return domain.PendingAlarm{}, err
	}

	pending, err := store.Set(ctx, triggerAt)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to persist alarm", "error", err)

		return domain.PendingAlarm{}, err
	}

	logger.InfoKV(ctx, "Alarm set", "trigger_at", pending.TriggerAt.Format(time.RFC3339))

	return pending, nil
}

// GetAlarm returns the pending alarm or nil.
func (s *AlarmService) GetAlarm(ctx context.Context) (*domain.PendingAlarm, error) {
	store, err := s.timeStore()
	if err != nil {
		return nil, err
	}

	pending, err := store.Get(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to read alarm", "error", err)

		return nil, err
	}

	return pending, nil
}

// ClearAlarm disarms the alarm.
func (s *AlarmService) ClearAlarm(ctx context.Context) error {
	store, err := s.timeStore()
	if err != nil {
		return err
	}

	if err = store.Clear(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to clear alarm", "error", err)

		return err
	}

	logger.Info(ctx, "Alarm cleared")

	return nil
}

// RunCheck forces one watcher cycle.
func (s *AlarmService) RunCheck(ctx context.Context) (domain.FetchResult, error) {
	s.mu.Lock()
	cycle := s.cycle
	s.mu.Unlock()

	if cycle == nil {
		return domain.Failed, ErrNotInitialized
	}

	result, err := cycle.Tick(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Forced check failed", "error", err)
	}

	return result, err
}

func (s *AlarmService) timeStore() (*timestore.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil, ErrNotInitialized
	}

	return s.store, nil
}
