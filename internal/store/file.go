package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON file per key inside a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created on the
// first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads the file for key if present.
func (s *FileStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(OpLoad, key); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, &StorageError{Op: OpLoad, Key: key, Err: err}
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &StorageError{Op: OpLoad, Key: key, Err: err}
	}
	return data, true, nil
}

// Save writes the blob to a temp file and renames it into place, so a reader
// never sees a partial snapshot.
func (s *FileStore) Save(ctx context.Context, key string, data []byte) error {
	if err := validateKey(OpSave, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: OpSave, Key: key, Err: err}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &StorageError{Op: OpSave, Key: key, Err: err}
	}
	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return &StorageError{Op: OpSave, Key: key, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: OpSave, Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: OpSave, Key: key, Err: err}
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: OpSave, Key: key, Err: err}
	}
	return nil
}

// Clear removes the file for key.
func (s *FileStore) Clear(ctx context.Context, key string) error {
	if err := validateKey(OpClear, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: OpClear, Key: key, Err: err}
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &StorageError{Op: OpClear, Key: key, Err: err}
	}
	return nil
}

// ClearAll removes every key, reporting those that failed.
func (s *FileStore) ClearAll(ctx context.Context, keys []string) error {
	failed := map[string]error{}
	for _, key := range keys {
		if err := s.Clear(ctx, key); err != nil {
			failed[key] = unwrapStorage(err)
		}
	}
	return clearAllError(failed)
}

func unwrapStorage(err error) error {
	var serr *StorageError
	if errors.As(err, &serr) {
		return serr.Err
	}
	return err
}
