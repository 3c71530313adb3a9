// Package stories holds the client-side data lifecycle for story search:
// the result set and its actions, the fetch lifecycle, and the list pipeline
// that turns a result set into what the user sees.
package stories

import "context"

// Story is a single search hit. Identity is ObjectID; fields are never
// modified after the story is received.
type Story struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	NumComments int    `json:"num_comments"`
	Points      int    `json:"points"`
	ObjectID    string `json:"objectID"`
}

// Searcher runs a remote search for a committed query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Story, error)
}

// SearcherFunc adapts a plain function to Searcher.
type SearcherFunc func(ctx context.Context, query string) ([]Story, error)

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, query string) ([]Story, error) {
	return f(ctx, query)
}
