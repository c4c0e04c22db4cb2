package timestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/repository/kv"
)

// ErrCorrupted is returned when the stored value is not an integer millisecond count.
var ErrCorrupted = errors.New("stored alarm time is corrupted")

// Store holds at most one pending alarm on top of a kv.Storage.
type Store struct {
	// storage is the durable backend.
	storage kv.Storage
	// mu makes every operation a single critical section.
	mu sync.Mutex
}

// New creates a Store backed by storage.
func New(storage kv.Storage) *Store {
	return &Store{
		storage: storage,
	}
}

// Get returns the pending alarm, or nil when none is armed.
func (s *Store) Get(ctx context.Context) (*domain.PendingAlarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.get(ctx)
}

// Set arms the alarm for triggerAt, replacing any previous one.
// The caller is responsible for rejecting times that are not in the future.
func (s *Store) Set(ctx context.Context, triggerAt time.Time) (domain.PendingAlarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := domain.NewPendingAlarm(triggerAt)

	if err := s.storage.SetItem(ctx, domain.StorageKey, pending.String()); err != nil {
		return domain.PendingAlarm{}, fmt.Errorf("persist alarm time: %w", err)
	}

	return pending, nil
}

// Clear disarms the alarm. Clearing when nothing is armed is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.RemoveItem(ctx, domain.StorageKey); err != nil {
		return fmt.Errorf("remove alarm time: %w", err)
	}

	return nil
}

// ClearIf disarms the alarm only if it is still the provided one and reports
// whether it did. A newer alarm set in the meantime is kept.
func (s *Store) ClearIf(ctx context.Context, pending domain.PendingAlarm) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, current, err := s.read(ctx)
	if err != nil || current == nil || !current.Equal(pending) {
		// A corrupted value was never fired, so it is not the provided alarm.
		if errors.Is(err, ErrCorrupted) {
			err = nil
		}

		return false, err
	}

	// Compare against the stored text, which may not be in canonical form.
	removed, err := s.storage.CompareAndRemove(ctx, domain.StorageKey, raw)
	if err != nil {
		return false, fmt.Errorf("remove fired alarm time: %w", err)
	}

	return removed, nil
}

func (s *Store) get(ctx context.Context) (*domain.PendingAlarm, error) {
	_, pending, err := s.read(ctx)

	return pending, err
}

// read returns the stored text and the alarm it encodes.
func (s *Store) read(ctx context.Context) (string, *domain.PendingAlarm, error) {
	raw, err := s.storage.GetItem(ctx, domain.StorageKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", nil, nil
		}

		return "", nil, fmt.Errorf("read alarm time: %w", err)
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q", ErrCorrupted, raw)
	}

	pending := domain.FromEpochMillis(ms)

	return raw, &pending, nil
}
