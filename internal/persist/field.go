// Package persist keeps a single named string value in durable storage.
package persist

import (
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/stories/internal/logging"
)

// ErrStorageUnavailable wraps every storage read or write failure. It is a
// warning: the in-memory value is always authoritative.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Storage is the durable key-value capability a Field needs.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Saved is sent when a scheduled write finishes. Err is nil on success and
// wraps ErrStorageUnavailable otherwise. Superseded is set when a newer value
// had already been written, in which case nothing was written.
type Saved struct {
	Key        string
	Value      string
	Err        error
	Superseded bool
}

// Field is a string value read once from storage and written back on every
// change. The loaded value itself is never written back.
//
// Value and Set must be called from one goroutine. The commands Set returns
// may run concurrently and in any order; storage always ends up holding the
// value of the latest Set that was written.
type Field struct {
	storage Storage
	key     string
	value   string
	err     error

	// version counts Set calls. Version 0 is the loaded value.
	version uint64

	mu      sync.Mutex
	written uint64
}

// New reads key from storage, falling back to fallback when the key is
// absent or empty, or when storage cannot be read. storage may be nil.
// New never writes.
func New(storage Storage, key, fallback string) *Field {
	f := &Field{storage: storage, key: key, value: fallback}

	switch {
	case storage == nil:
		f.err = fmt.Errorf("read %q: %w", key, ErrStorageUnavailable)
	default:
		v, ok, err := storage.Get(key)
		if err != nil {
			f.err = fmt.Errorf("read %q: %w: %v", key, ErrStorageUnavailable, err)
		} else if ok && v != "" {
			f.value = v
		}
	}
	if f.err != nil {
		logging.Warn("persisted value not loaded", "key", key, "error", f.err)
	}
	return f
}

// Key returns the storage key.
func (f *Field) Key() string {
	return f.key
}

// Value returns the current value.
func (f *Field) Value() string {
	return f.value
}

// Err returns the error from the initial read, if any.
func (f *Field) Err() error {
	return f.err
}

// Set updates the value and returns the command that writes it to storage.
// The write is fire-and-forget: its result only produces a Saved message.
func (f *Field) Set(v string) tea.Cmd {
	f.value = v
	f.version++

	version := f.version
	return func() tea.Msg {
		return f.write(version, v)
	}
}

// write stores value unless a newer version has already been stored.
func (f *Field) write(version uint64, value string) Saved {
	f.mu.Lock()
	defer f.mu.Unlock()

	if version <= f.written {
		return Saved{Key: f.key, Value: value, Superseded: true}
	}
	if f.storage == nil {
		return Saved{Key: f.key, Value: value, Err: fmt.Errorf("write %q: %w", f.key, ErrStorageUnavailable)}
	}
	if err := f.storage.Set(f.key, value); err != nil {
		err = fmt.Errorf("write %q: %w: %v", f.key, ErrStorageUnavailable, err)
		logging.Warn("persisted value not saved", "key", f.key, "error", err)
		return Saved{Key: f.key, Value: value, Err: err}
	}
	f.written = version
	return Saved{Key: f.key, Value: value}
}
