package stories

import (
	"errors"
	"fmt"
)

// ErrInvalidAction is the panic value (wrapped) when Apply receives an action
// outside the closed vocabulary. It signals a programming error.
var ErrInvalidAction = errors.New("invalid action")

// Status is the derived lifecycle state of a ResultSet.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ResultSet is the authoritative in-memory collection of stories plus its
// lifecycle flags. The zero value is the initial Idle state.
//
// ResultSet is a value: Apply returns a new ResultSet and never writes to the
// receiver's Items backing array.
type ResultSet struct {
	Items   []Story
	Loading bool
	Error   bool

	// fetched is set by the first FetchSuccess, so an empty result or an
	// emptied list still reports Loaded.
	fetched bool
}

// Status derives the lifecycle state from the flags.
func (r ResultSet) Status() Status {
	switch {
	case r.Loading:
		return StatusLoading
	case r.Error:
		return StatusFailed
	case r.fetched || len(r.Items) > 0:
		return StatusLoaded
	default:
		return StatusIdle
	}
}

// Action is the closed set of transitions a ResultSet accepts:
// FetchInit, FetchSuccess, FetchFailure and RemoveItem.
type Action interface {
	action()
}

// FetchInit marks the start of a fetch. Existing items stay visible.
type FetchInit struct{}

// FetchSuccess replaces the items wholesale with Items.
type FetchSuccess struct {
	Items []Story
}

// FetchFailure marks the fetch as failed. Items are left untouched.
type FetchFailure struct{}

// RemoveItem drops the story whose ObjectID matches Story.ObjectID.
type RemoveItem struct {
	Story Story
}

func (FetchInit) action()    {}
func (FetchSuccess) action() {}
func (FetchFailure) action() {}
func (RemoveItem) action()   {}

// Apply returns the ResultSet that results from applying a.
func (r ResultSet) Apply(a Action) ResultSet {
	switch a := a.(type) {
	case FetchInit:
		r.Loading = true
		r.Error = false
		return r

	case FetchSuccess:
		r.Loading = false
		r.Error = false
		r.Items = a.Items
		r.fetched = true
		return r

	case FetchFailure:
		r.Loading = false
		r.Error = true
		return r

	case RemoveItem:
		r.Items = without(r.Items, a.Story.ObjectID)
		return r
	}

	panic(fmt.Errorf("%w: %T", ErrInvalidAction, a))
}

// without returns items minus every entry with the given ObjectID. The input
// slice is not modified; when nothing matches it is returned as is.
func without(items []Story, objectID string) []Story {
	idx := -1
	for i := range items {
		if items[i].ObjectID == objectID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return items
	}

	out := make([]Story, 0, len(items)-1)
	out = append(out, items[:idx]...)
	for _, s := range items[idx+1:] {
		if s.ObjectID != objectID {
			out = append(out, s)
		}
	}
	return out
}
