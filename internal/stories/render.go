package stories

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortKey selects the field the list is ordered by.
type SortKey int

const (
	SortNone SortKey = iota
	SortTitle
	SortAuthor
	SortComments
	SortPoints
)

func (k SortKey) String() string {
	switch k {
	case SortNone:
		return "none"
	case SortTitle:
		return "title"
	case SortAuthor:
		return "author"
	case SortComments:
		return "comments"
	case SortPoints:
		return "points"
	}
	return fmt.Sprintf("sortkey(%d)", int(k))
}

// SortSpec is view-only sort state. The zero value leaves order unchanged.
type SortSpec struct {
	Key     SortKey
	Reverse bool
}

// Toggle returns the spec after the user picks key: the same key flips
// Reverse, a different key is adopted with Reverse reset.
func (s SortSpec) Toggle(key SortKey) SortSpec {
	if s.Key == key {
		s.Reverse = !s.Reverse
		return s
	}
	return SortSpec{Key: key}
}

// compare returns the ascending comparator for k, or nil for SortNone.
func (k SortKey) compare() func(a, b Story) int {
	switch k {
	case SortTitle:
		return func(a, b Story) int { return cmp.Compare(a.Title, b.Title) }
	case SortAuthor:
		return func(a, b Story) int { return cmp.Compare(a.Author, b.Author) }
	case SortComments:
		return func(a, b Story) int { return cmp.Compare(a.NumComments, b.NumComments) }
	case SortPoints:
		return func(a, b Story) int { return cmp.Compare(a.Points, b.Points) }
	default:
		return nil
	}
}

// Render produces the display order for items. A non-empty term keeps only
// stories whose title contains it, case-insensitively; pass "" when the
// remote search already filtered the items. Sorting is stable and Reverse
// flips the sorted sequence. items is never modified.
func Render(items []Story, term string, spec SortSpec) []Story {
	out := slices.Clone(Filter(items, term))

	if less := spec.Key.compare(); less != nil {
		slices.SortStableFunc(out, less)
	}
	if spec.Reverse {
		slices.Reverse(out)
	}
	return out
}

// Filter keeps stories whose title contains term, ignoring case. An empty
// term keeps everything and returns items unchanged.
func Filter(items []Story, term string) []Story {
	if term == "" {
		return items
	}
	needle := strings.ToLower(term)
	out := make([]Story, 0, len(items))
	for _, s := range items {
		if strings.Contains(strings.ToLower(s.Title), needle) {
			out = append(out, s)
		}
	}
	return out
}
