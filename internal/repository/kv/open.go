package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/oshokin/alarm-clock/internal/config"
)

// errUnsupportedBackend is returned for a backend name Open does not know.
var errUnsupportedBackend = errors.New("unsupported storage backend")

// Open builds the Storage selected by settings. The file backend uses fs.
//
//nolint:ireturn // Callers depend on the Storage abstraction only.
func Open(ctx context.Context, fs afero.Fs, settings config.Store) (Storage, error) {
	switch settings.Backend {
	case config.BackendFile:
		return NewFileStorage(fs, settings.Path), nil
	case config.BackendSQLite:
		storage, err := OpenSQLite(ctx, settings.Path)
		if err != nil {
			return nil, err
		}

		return storage, nil
	case config.BackendRedis:
		storage, err := OpenRedis(settings.RedisAddress, settings.RedisDB)
		if err != nil {
			return nil, err
		}

		return storage, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedBackend, settings.Backend)
	}
}
