// Package ui provides the Bubble Tea TUI for stories.
package ui

import "github.com/abelbrown/stories/internal/stories"

// SearchDone is sent when an issued search request finishes, successfully
// or not. Whether it is applied is decided by the fetch lifecycle.
type SearchDone struct {
	Result stories.Resolved
}
