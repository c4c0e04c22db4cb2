package timestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/repository/kv"
)

var errStorageDown = errors.New("storage is down")

// failingStorage fails every operation.
type failingStorage struct{}

func (failingStorage) GetItem(context.Context, string) (string, error) { return "", errStorageDown }
func (failingStorage) SetItem(context.Context, string, string) error   { return errStorageDown }
func (failingStorage) RemoveItem(context.Context, string) error        { return errStorageDown }
func (failingStorage) Close() error                                    { return nil }

func (failingStorage) CompareAndRemove(context.Context, string, string) (bool, error) {
	return false, errStorageDown
}

func newStore() (*Store, kv.Storage) {
	storage := kv.NewFileStorage(afero.NewMemMapFs(), "state.json")

	return New(storage), storage
}

// TestStore_SetGetClear verifies that Get returns the set time until Clear.
func TestStore_SetGetClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, storage := newStore()

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, got)

	triggerAt := time.UnixMilli(1760857200000)

	pending, err := store.Set(ctx, triggerAt)
	require.NoError(t, err)
	require.True(t, pending.TriggerAt.Equal(triggerAt))

	got, err = store.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.TriggerAt.Equal(triggerAt))

	// The wire format is the decimal epoch-millisecond string.
	raw, err := storage.GetItem(ctx, domain.StorageKey)
	require.NoError(t, err)
	require.Equal(t, "1760857200000", raw)

	require.NoError(t, store.Clear(ctx))

	got, err = store.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

// TestStore_ClearIsIdempotent ensures clearing an absent alarm keeps it absent.
func TestStore_ClearIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newStore()

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

// TestStore_SetOverwrites checks that only the latest Set survives.
func TestStore_SetOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newStore()

	_, err := store.Set(ctx, time.UnixMilli(1000))
	require.NoError(t, err)

	_, err = store.Set(ctx, time.UnixMilli(2000))
	require.NoError(t, err)

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2000), got.EpochMillis())
}

// TestStore_ClearIf keeps an alarm that replaced the fired one.
func TestStore_ClearIf(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newStore()

	fired, err := store.Set(ctx, time.UnixMilli(1000))
	require.NoError(t, err)

	_, err = store.Set(ctx, time.UnixMilli(5000))
	require.NoError(t, err)

	removed, err := store.ClearIf(ctx, fired)
	require.NoError(t, err)
	require.False(t, removed)

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5000), got.EpochMillis())

	removed, err = store.ClearIf(ctx, *got)
	require.NoError(t, err)
	require.True(t, removed)
}

// TestStore_ClearIfNonCanonicalValue removes a fired alarm whose stored text has
// leading zeros, and never removes a corrupted value.
func TestStore_ClearIfNonCanonicalValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, storage := newStore()
	require.NoError(t, storage.SetItem(ctx, domain.StorageKey, "0001760870400000"))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1760870400000), got.EpochMillis())

	removed, err := store.ClearIf(ctx, *got)
	require.NoError(t, err)
	require.True(t, removed)

	got, err = store.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, storage.SetItem(ctx, domain.StorageKey, "tomorrow"))

	removed, err = store.ClearIf(ctx, domain.FromEpochMillis(1760870400000))
	require.NoError(t, err)
	require.False(t, removed)

	raw, err := storage.GetItem(ctx, domain.StorageKey)
	require.NoError(t, err)
	require.Equal(t, "tomorrow", raw)
}

// TestStore_Errors verifies storage failures and corrupted values are reported.
func TestStore_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New(failingStorage{})

	_, err := store.Get(ctx)
	require.ErrorIs(t, err, errStorageDown)

	_, err = store.Set(ctx, time.Now())
	require.ErrorIs(t, err, errStorageDown)

	require.ErrorIs(t, store.Clear(ctx), errStorageDown)

	_, err = store.ClearIf(ctx, domain.FromEpochMillis(1))
	require.ErrorIs(t, err, errStorageDown)

	corrupted, storage := newStore()
	require.NoError(t, storage.SetItem(ctx, domain.StorageKey, "tomorrow"))

	_, err = corrupted.Get(ctx)
	require.ErrorIs(t, err, ErrCorrupted)
}
