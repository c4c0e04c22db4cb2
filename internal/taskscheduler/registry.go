package taskscheduler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/alarm-clock/internal/config"
)

// registryDocument is the on-disk layout of the registry.
type registryDocument struct {
	// Tasks maps task names to their registration options.
	Tasks map[string]Options `yaml:"tasks"`
}

// Registry persists task registrations in a YAML file.
type Registry struct {
	// fs holds the registry file.
	fs afero.Fs
	// path is the registry file location.
	path string
	// mu serializes file access.
	mu sync.Mutex
}

// NewRegistry creates a registry backed by the file at path on fs.
func NewRegistry(fs afero.Fs, path string) *Registry {
	return &Registry{
		fs:   fs,
		path: filepath.Clean(path),
	}
}

// Load returns the persisted registrations. A missing file means none.
func (r *Registry) Load() (map[string]Options, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Options{}, nil
		}

		return nil, fmt.Errorf("read task registry: %w", err)
	}

	var document registryDocument
	if err = yaml.Unmarshal(contents, &document); err != nil {
		return nil, fmt.Errorf("decode task registry: %w", err)
	}

	if document.Tasks == nil {
		document.Tasks = map[string]Options{}
	}

	return document.Tasks, nil
}

// Save replaces the persisted registrations. An empty set removes the file.
func (r *Registry) Save(tasks map[string]Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(tasks) == 0 {
		if err := r.fs.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove task registry: %w", err)
		}

		return nil
	}

	data, err := yaml.Marshal(registryDocument{Tasks: tasks})
	if err != nil {
		return fmt.Errorf("encode task registry: %w", err)
	}

	if err = afero.WriteFile(r.fs, r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write task registry: %w", err)
	}

	return nil
}
