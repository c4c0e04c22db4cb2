package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/alarm-clock/internal/config"
)

// FileStorage keeps all items in a single JSON document on an afero filesystem.
// The document is a protobuf Struct whose fields are string values, produced
// and consumed via protojson.
type FileStorage struct {
	// fs is the filesystem the document lives on.
	fs afero.Fs
	// path is the location of the JSON document.
	path string
	// mu serializes read-modify-write cycles on the document.
	mu sync.Mutex
}

// errUnexpectedValue is returned when the document holds a non-string value.
var errUnexpectedValue = errors.New("value is not a string")

// NewFileStorage creates a storage that reads/writes the document at path on fs.
func NewFileStorage(fs afero.Fs, path string) *FileStorage {
	return &FileStorage{
		fs:   fs,
		path: filepath.Clean(path),
	}
}

// GetItem returns the value stored under key.
func (s *FileStorage) GetItem(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return "", err
	}

	value, ok := items[key]
	if !ok {
		return "", ErrNotFound
	}

	return value, nil
}

// SetItem stores value under key.
func (s *FileStorage) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}

	items[key] = value

	return s.save(items)
}

// RemoveItem deletes key if present.
func (s *FileStorage) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := items[key]; !ok {
		return nil
	}

	delete(items, key)

	return s.save(items)
}

// CompareAndRemove deletes key when it holds expected.
func (s *FileStorage) CompareAndRemove(_ context.Context, key, expected string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return false, err
	}

	if value, ok := items[key]; !ok || value != expected {
		return false, nil
	}

	delete(items, key)

	if err = s.save(items); err != nil {
		return false, err
	}

	return true, nil
}

// Close is a no-op; the document is written on every change.
func (s *FileStorage) Close() error {
	return nil
}

// load reads the document. A missing document is an empty set of items.
func (s *FileStorage) load() (map[string]string, error) {
	contents, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}

		return nil, fmt.Errorf("read storage file: %w", err)
	}

	var document structpb.Struct
	if err = protojson.Unmarshal(contents, &document); err != nil {
		return nil, fmt.Errorf("decode storage file: %w", err)
	}

	items := make(map[string]string, len(document.GetFields()))

	for key, value := range document.GetFields() {
		stringValue, ok := value.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("decode item %q: %w", key, errUnexpectedValue)
		}

		items[key] = stringValue.StringValue
	}

	return items, nil
}

// save replaces the document through a temporary file and a rename.
func (s *FileStorage) save(items map[string]string) error {
	document := &structpb.Struct{
		Fields: make(map[string]*structpb.Value, len(items)),
	}

	for key, value := range items {
		document.Fields[key] = structpb.NewStringValue(value)
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
	}

	data, err := marshalOptions.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode storage file: %w", err)
	}

	if err = s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	tmpPath := s.path + ".tmp"

	if err = afero.WriteFile(s.fs, tmpPath, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}

	if err = s.fs.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace storage file: %w", err)
	}

	return nil
}
