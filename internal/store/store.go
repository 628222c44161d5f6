// internal/store/store.go
//
// Persistence contract for stage snapshots. A Store is a flat key/value space
// of opaque byte blobs; the stage keys are fixed and known up front, so no
// listing operation is offered. Every failure surfaces as a *StorageError.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Store persists byte blobs by key.
type Store interface {
	// Load returns the blob for key and whether it exists.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	// Save overwrites the blob for key.
	Save(ctx context.Context, key string, data []byte) error
	// Clear removes key. Clearing a missing key is not an error.
	Clear(ctx context.Context, key string) error
	// ClearAll removes every key, attempting all of them even after a
	// failure.
	ClearAll(ctx context.Context, keys []string) error
}

// Operation names used in StorageError.
const (
	OpLoad     = "load"
	OpSave     = "save"
	OpClear    = "clear"
	OpClearAll = "clear-all"
	OpDecode   = "decode"
	OpEncode   = "encode"
)

// StorageError reports a failed persistence operation. For ClearAll, Keys
// lists the keys that could not be cleared.
type StorageError struct {
	Op   string
	Key  string
	Keys []string
	Err  error
}

func (e *StorageError) Error() string {
	target := e.Key
	if len(e.Keys) > 0 {
		target = strings.Join(e.Keys, ", ")
	}
	if target == "" {
		return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store: %s %s: %v", e.Op, target, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ErrInvalidKey is returned for keys that cannot be stored.
var ErrInvalidKey = errors.New("invalid key")

func validateKey(op, key string) error {
	if strings.TrimSpace(key) == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return &StorageError{Op: op, Key: key, Err: ErrInvalidKey}
	}
	return nil
}

// clearAllError folds per-key failures into one StorageError.
func clearAllError(failed map[string]error) error {
	if len(failed) == 0 {
		return nil
	}
	keys := make([]string, 0, len(failed))
	for key := range failed {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	errs := make([]error, 0, len(keys))
	for _, key := range keys {
		errs = append(errs, fmt.Errorf("%s: %w", key, failed[key]))
	}
	return &StorageError{Op: OpClearAll, Keys: keys, Err: errors.Join(errs...)}
}

// LoadJSON loads key and decodes it into T.
func LoadJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var value T
	data, ok, err := s.Load(ctx, key)
	if err != nil || !ok {
		return value, false, err
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, &StorageError{Op: OpDecode, Key: key, Err: err}
	}
	return value, true, nil
}

// SaveJSON encodes value and saves it under key.
func SaveJSON(ctx context.Context, s Store, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &StorageError{Op: OpEncode, Key: key, Err: err}
	}
	return s.Save(ctx, key, data)
}
