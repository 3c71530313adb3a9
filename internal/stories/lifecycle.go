package stories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abelbrown/stories/internal/logging"
	"github.com/google/uuid"
)

// Recorder receives fetch lifecycle measurements. Implementations must be
// safe for concurrent use: Do runs off the dispatch goroutine.
type Recorder interface {
	FetchStarted()
	FetchSucceeded(items int, took time.Duration)
	FetchFailed(took time.Duration)
	// FetchCanceled is called instead of FetchFailed when the request was
	// cancelled, usually because a newer query superseded it.
	FetchCanceled(took time.Duration)
	StaleDiscarded()
}

type nopRecorder struct{}

func (nopRecorder) FetchStarted()                     {}
func (nopRecorder) FetchSucceeded(int, time.Duration) {}
func (nopRecorder) FetchFailed(time.Duration)         {}
func (nopRecorder) FetchCanceled(time.Duration)       {}
func (nopRecorder) StaleDiscarded()                   {}

// Lifecycle turns committed queries into requests and decides which request
// outcomes may update the ResultSet. Only the most recently issued request
// is honored; older outcomes are discarded.
//
// Fetch, Resolve and Cancel must be called from a single goroutine (the UI
// update loop). Request.Do may run anywhere.
type Lifecycle struct {
	ctx      context.Context
	searcher Searcher
	rec      Recorder

	seq    uint64
	cancel context.CancelFunc
}

// NewLifecycle creates a Lifecycle whose requests derive from ctx.
// rec may be nil.
func NewLifecycle(ctx context.Context, searcher Searcher, rec Recorder) *Lifecycle {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Lifecycle{ctx: ctx, searcher: searcher, rec: rec}
}

// Request is one issued search.
type Request struct {
	Seq   uint64
	ID    string
	Query string

	ctx      context.Context
	searcher Searcher
	rec      Recorder
}

// Resolved is the outcome of a Request.
type Resolved struct {
	Seq   uint64
	ID    string
	Query string
	Items []Story
	Err   error
	Took  time.Duration
}

// Fetch commits query and issues a new request for it, superseding any
// request still in flight. The caller applies FetchInit and runs Do
// asynchronously. ok is false for an empty query, in which case nothing is
// issued.
func (l *Lifecycle) Fetch(query string) (req Request, ok bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, false
	}

	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(l.ctx)
	l.cancel = cancel
	l.seq++

	req = Request{
		Seq:      l.seq,
		ID:       uuid.NewString(),
		Query:    query,
		ctx:      ctx,
		searcher: l.searcher,
		rec:      l.rec,
	}
	l.rec.FetchStarted()
	logging.Debug("fetch start", "query", query, "seq", req.Seq, "request_id", req.ID)
	return req, true
}

// Do performs the request. Every failure is reported through Resolved.Err.
func (r Request) Do() Resolved {
	start := time.Now()
	items, err := r.searcher.Search(r.ctx, r.Query)
	took := time.Since(start)

	res := Resolved{Seq: r.Seq, ID: r.ID, Query: r.Query, Took: took}
	if errors.Is(err, context.Canceled) {
		r.rec.FetchCanceled(took)
		logging.Debug("fetch canceled", "query", r.Query, "request_id", r.ID, "took", took)
		res.Err = err
		return res
	}
	if err != nil {
		r.rec.FetchFailed(took)
		logging.Warn("fetch failed", "query", r.Query, "request_id", r.ID, "took", took, "error", err)
		res.Err = err
		return res
	}

	r.rec.FetchSucceeded(len(items), took)
	logging.Debug("fetch complete", "query", r.Query, "request_id", r.ID, "count", len(items), "took", took)
	res.Items = items
	return res
}

// Resolve converts an outcome into the action to apply. ok is false when a
// newer request has been issued since res's request; the outcome must then
// be dropped.
func (l *Lifecycle) Resolve(res Resolved) (a Action, ok bool) {
	if res.Seq != l.seq {
		l.rec.StaleDiscarded()
		logging.Debug("stale fetch discarded", "query", res.Query, "seq", res.Seq, "latest", l.seq, "request_id", res.ID)
		return nil, false
	}

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if res.Err != nil {
		return FetchFailure{}, true
	}
	return FetchSuccess{Items: res.Items}, true
}

// Latest returns the sequence number of the most recently issued request,
// zero if none.
func (l *Lifecycle) Latest() uint64 {
	return l.seq
}

// Cancel aborts the in-flight request, if any. Its outcome still arrives
// and is resolved as usual.
func (l *Lifecycle) Cancel() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
