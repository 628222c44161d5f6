package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDebounce is the autosave delay used when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// Autosaver coalesces rapid saves per key and writes only the latest value
// once the key has been quiet for the debounce delay. Writes go through a
// single writer lock so they never land out of order.
type Autosaver struct {
	store   Store
	delay   time.Duration
	logger  *zap.Logger
	onError func(error)

	writeMu  sync.Mutex
	mu       sync.Mutex
	pending  map[string][]byte
	inflight map[string][]byte // value being written until Save returns
	timers   map[string]*time.Timer
	closed   bool
}

// AutosaveOption customises an Autosaver.
type AutosaveOption func(*Autosaver)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) AutosaveOption {
	return func(a *Autosaver) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithErrorHandler receives failures of background writes.
func WithErrorHandler(fn func(error)) AutosaveOption {
	return func(a *Autosaver) {
		a.onError = fn
	}
}

// NewAutosaver wraps store. A non-positive delay uses DefaultDebounce.
func NewAutosaver(store Store, delay time.Duration, opts ...AutosaveOption) *Autosaver {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	a := &Autosaver{
		store:   store,
		delay:   delay,
		logger:  zap.NewNop(),
		pending:  map[string][]byte{},
		inflight: map[string][]byte{},
		timers:   map[string]*time.Timer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Store returns the wrapped store.
func (a *Autosaver) Store() Store {
	return a.store
}

// Delay returns the debounce delay.
func (a *Autosaver) Delay() time.Duration {
	return a.delay
}

// Queue schedules data for key, replacing any value still pending and
// restarting the key's timer.
func (a *Autosaver) Queue(key string, data []byte) error {
	if err := validateKey(OpSave, key); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return &StorageError{Op: OpSave, Key: key, Err: errAutosaverClosed}
	}
	a.pending[key] = append([]byte(nil), data...)
	if timer, ok := a.timers[key]; ok {
		timer.Stop()
	}
	a.timers[key] = time.AfterFunc(a.delay, func() { a.fire(key) })
	return nil
}

var errAutosaverClosed = errors.New("autosaver closed")

func (a *Autosaver) fire(key string) {
	if err := a.write(context.Background(), key); err != nil {
		a.logger.Warn("autosave failed", zap.String("key", key), zap.Error(err))
		if a.onError != nil {
			a.onError(err)
		}
	}
}

// write saves the latest pending value of key, if any.
func (a *Autosaver) write(ctx context.Context, key string) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	a.mu.Lock()
	data, ok := a.pending[key]
	delete(a.pending, key)
	if timer, exists := a.timers[key]; exists {
		timer.Stop()
		delete(a.timers, key)
	}
	if ok {
		a.inflight[key] = data
	}
	a.mu.Unlock()
	if !ok {
		return nil
	}
	err := a.store.Save(ctx, key, data)
	a.mu.Lock()
	delete(a.inflight, key)
	a.mu.Unlock()
	if err != nil {
		return err
	}
	a.logger.Debug("autosaved", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Pending reports whether key has a value that is not yet stored.
func (a *Autosaver) Pending(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.pending[key]; ok {
		return true
	}
	_, ok := a.inflight[key]
	return ok
}

// Load returns the pending or in-flight value of key if one exists, else the
// stored one.
func (a *Autosaver) Load(ctx context.Context, key string) ([]byte, bool, error) {
	a.mu.Lock()
	data, ok := a.pending[key]
	if !ok {
		data, ok = a.inflight[key]
	}
	a.mu.Unlock()
	if ok {
		return append([]byte(nil), data...), true, nil
	}
	return a.store.Load(ctx, key)
}

// Flush writes every pending value now.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	keys := make([]string, 0, len(a.pending))
	for key := range a.pending {
		keys = append(keys, key)
	}
	a.mu.Unlock()
	var errs []error
	for _, key := range keys {
		if err := a.write(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops the pending value of key. It waits for an in-flight write of
// any key so a later Clear is not overtaken by a stale write.
func (a *Autosaver) Discard(key string) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, key)
	if timer, ok := a.timers[key]; ok {
		timer.Stop()
		delete(a.timers, key)
	}
}

// DiscardAll drops every pending value.
func (a *Autosaver) DiscardAll() {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	for key, timer := range a.timers {
		timer.Stop()
		delete(a.timers, key)
	}
	a.pending = map[string][]byte{}
}

// Close flushes pending values and rejects further queuing.
func (a *Autosaver) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return a.Flush(ctx)
}
