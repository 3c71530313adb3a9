package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/stories/internal/config"
	"github.com/abelbrown/stories/internal/persist"
	"github.com/abelbrown/stories/internal/stories"
)

var testStories = []stories.Story{
	{Title: "React", URL: "https://reactjs.org/", Author: "Jordan Walke", NumComments: 3, Points: 4, ObjectID: "0"},
	{Title: "Redux", URL: "https://redux.js.org/", Author: "Dan Abramov, Andrew Clark", NumComments: 2, Points: 5, ObjectID: "1"},
	{Title: "PHP", URL: "https://www.php.net/", Author: "Rasmus Lerdorf", NumComments: 9, Points: 1, ObjectID: "2"},
}

type memStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[key] = value
	return nil
}

// mockSearcher records queries and answers with testStories, or fails
// when fail is set.
type mockSearcher struct {
	mu      sync.Mutex
	queries []string
	fail    bool
}

func (m *mockSearcher) Search(_ context.Context, query string) ([]stories.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.fail {
		return nil, errors.New("boom")
	}
	return append([]stories.Story(nil), testStories...), nil
}

func newTestApp(t *testing.T, mode, draft string, s *mockSearcher) (App, *stories.Lifecycle) {
	t.Helper()
	storage := &memStorage{}
	if draft != "" {
		storage.Set("search", draft)
	}
	lc := stories.NewLifecycle(context.Background(), s, nil)
	app := NewApp(AppConfig{
		Query:     persist.New(storage, "search", ""),
		Lifecycle: lc,
		Mode:      mode,
		SeedQuery: "React",
	})
	return app, lc
}

func update(t *testing.T, app App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(msg)
	return model.(App), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded returns an app in remote mode with testStories loaded and the
// list focused.
func loaded(t *testing.T) App {
	t.Helper()
	app, _ := newTestApp(t, config.ModeRemote, "react", &mockSearcher{})
	app, _ = update(t, app, app.initCmd())
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if len(app.Visible()) != 3 {
		t.Fatalf("expected 3 visible stories, got %d", len(app.Visible()))
	}
	return app
}

func titles(items []stories.Story) string {
	var parts []string
	for _, s := range items {
		parts = append(parts, s.Title)
	}
	return strings.Join(parts, ",")
}

func TestNewAppCommitsPersistedQuery(t *testing.T) {
	s := &mockSearcher{}
	app, _ := newTestApp(t, config.ModeRemote, "golang", s)

	if app.Draft() != "golang" {
		t.Errorf("expected draft 'golang', got %q", app.Draft())
	}
	if app.Committed() != "golang" {
		t.Errorf("expected committed 'golang', got %q", app.Committed())
	}
	if !app.Results().Loading {
		t.Error("expected loading after initial commit")
	}
	if app.Init() == nil {
		t.Fatal("Init should return a command")
	}

	app, _ = update(t, app, app.initCmd())

	if app.Results().Loading || len(app.Results().Items) != 3 {
		t.Errorf("expected 3 loaded items, got %+v", app.Results())
	}
	if len(s.queries) != 1 || s.queries[0] != "golang" {
		t.Errorf("expected one search for 'golang', got %v", s.queries)
	}
}

func TestNewAppEmptyQueryIssuesNoSearch(t *testing.T) {
	app, lc := newTestApp(t, config.ModeRemote, "", &mockSearcher{})

	if app.initCmd != nil {
		t.Error("no search should be issued for an empty query")
	}
	if app.Results().Status() != stories.StatusIdle {
		t.Errorf("expected idle, got %s", app.Results().Status())
	}
	if lc.Latest() != 0 {
		t.Errorf("expected no request, got seq %d", lc.Latest())
	}
}

func TestAppQuit(t *testing.T) {
	app, _ := newTestApp(t, config.ModeRemote, "", &mockSearcher{})

	_, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}

	// q types into the input; it only quits from the list.
	app, _ = update(t, app, runes("q"))
	if app.Draft() != "q" {
		t.Errorf("q should be typed into the input, draft is %q", app.Draft())
	}
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd = update(t, app, runes("q"))
	if cmd == nil {
		t.Fatal("q in list should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q in list should quit")
	}
}

func TestAppWindowSize(t *testing.T) {
	app, _ := newTestApp(t, config.ModeRemote, "", &mockSearcher{})

	app, _ = update(t, app, tea.WindowSizeMsg{Width: 100, Height: 50})

	if !app.ready {
		t.Error("App should be ready after WindowSizeMsg")
	}
	if app.width != 100 || app.height != 50 {
		t.Errorf("expected 100x50, got %dx%d", app.width, app.height)
	}
}

func TestAppViewNotReady(t *testing.T) {
	app, _ := newTestApp(t, config.ModeRemote, "", &mockSearcher{})

	if view := app.View(); view != "Loading..." {
		t.Errorf("expected 'Loading...' before ready, got %q", view)
	}
}

func TestAppViewLoadingReplacesList(t *testing.T) {
	app := loaded(t)
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 120, Height: 20})

	if view := app.View(); !strings.Contains(view, "Redux") {
		t.Error("loaded view should list stories")
	}

	app, cmd := update(t, app, runes("r"))
	if cmd == nil {
		t.Fatal("r should issue a search")
	}
	view := app.View()
	if !strings.Contains(view, "Loading...") {
		t.Error("expected 'Loading...' while loading")
	}
	if strings.Contains(view, "Redux") {
		t.Error("list should be hidden while loading")
	}
}

func TestAppFailureKeepsItems(t *testing.T) {
	s := &mockSearcher{}
	app := func() App {
		a, _ := newTestApp(t, config.ModeRemote, "react", s)
		a, _ = update(t, a, a.initCmd())
		a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
		return a
	}()
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 120, Height: 20})

	s.fail = true
	app, cmd := update(t, app, runes("r"))
	app, _ = update(t, app, cmd())

	r := app.Results()
	if !r.Error || r.Loading {
		t.Errorf("expected error state, got %+v", r)
	}
	if len(r.Items) != 3 {
		t.Errorf("failure should keep items, got %d", len(r.Items))
	}
	if !strings.Contains(app.View(), "Something went wrong...") {
		t.Error("expected error message in view")
	}

	// Retrying clears the error.
	s.fail = false
	app, cmd = update(t, app, runes("r"))
	if app.Results().Error {
		t.Error("retry should clear the error")
	}
	app, _ = update(t, app, cmd())
	if app.Results().Status() != stories.StatusLoaded {
		t.Errorf("expected loaded after retry, got %s", app.Results().Status())
	}
}

func TestAppStaleResultDiscarded(t *testing.T) {
	app, lc := newTestApp(t, config.ModeRemote, "react", &mockSearcher{})
	first := app.initCmd

	app, second := update(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if second == nil {
		t.Fatal("enter should issue a search")
	}
	if lc.Latest() != 2 {
		t.Fatalf("expected seq 2, got %d", lc.Latest())
	}

	app, _ = update(t, app, first())
	if !app.Results().Loading || len(app.Results().Items) != 0 {
		t.Errorf("stale result should be discarded, got %+v", app.Results())
	}

	app, _ = update(t, app, second())
	if app.Results().Loading || len(app.Results().Items) != 3 {
		t.Errorf("latest result should apply, got %+v", app.Results())
	}
}

func TestAppEnterResubmitsUnchangedQuery(t *testing.T) {
	s := &mockSearcher{}
	app, _ := newTestApp(t, config.ModeRemote, "react", s)
	app, _ = update(t, app, app.initCmd())

	for i := 0; i < 2; i++ {
		var cmd tea.Cmd
		app, cmd = update(t, app, tea.KeyMsg{Type: tea.KeyEnter})
		if cmd == nil {
			t.Fatalf("submit %d should issue a search", i)
		}
		app, _ = update(t, app, cmd())
		app, _ = update(t, app, runes("/"))
	}

	if len(s.queries) != 3 {
		t.Errorf("expected 3 searches, got %v", s.queries)
	}
}

func TestAppTypingUpdatesPersistedDraft(t *testing.T) {
	storage := &memStorage{}
	field := persist.New(storage, "search", "")
	app := NewApp(AppConfig{
		Query:     field,
		Lifecycle: stories.NewLifecycle(context.Background(), &mockSearcher{}, nil),
		Mode:      config.ModeRemote,
	})

	app, cmd := update(t, app, runes("g"))
	app, _ = update(t, app, runes("o"))

	if app.Draft() != "go" || field.Value() != "go" {
		t.Errorf("expected draft 'go', got %q / %q", app.Draft(), field.Value())
	}
	if cmd == nil {
		t.Error("typing should schedule a write")
	}
	if app.Committed() != "" {
		t.Errorf("typing should not commit, got %q", app.Committed())
	}
}

func TestAppLocalModeFiltersByDraft(t *testing.T) {
	s := &mockSearcher{}
	app, _ := newTestApp(t, config.ModeLocal, "", s)

	if app.Committed() != "React" {
		t.Errorf("local mode should fetch the seed query, got %q", app.Committed())
	}
	app, _ = update(t, app, app.initCmd())

	app, _ = update(t, app, runes("r"))
	app, _ = update(t, app, runes("e"))

	if got := titles(app.Visible()); got != "React,Redux" {
		t.Errorf("expected React,Redux, got %s", got)
	}
	if len(s.queries) != 1 {
		t.Errorf("typing should not search in local mode, got %v", s.queries)
	}

	// Submitting refetches the seed, not the draft.
	app, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	app, _ = update(t, app, cmd())
	if s.queries[1] != "React" {
		t.Errorf("expected seed query, got %q", s.queries[1])
	}
}

func TestAppRemoteModeDoesNotFilter(t *testing.T) {
	app := loaded(t)
	app, _ = update(t, app, runes("/"))
	app, _ = update(t, app, runes("x"))

	if len(app.Visible()) != 3 {
		t.Errorf("remote mode should not filter locally, got %d", len(app.Visible()))
	}
}

func TestAppRemoveItem(t *testing.T) {
	removed := 0
	lc := stories.NewLifecycle(context.Background(), &mockSearcher{}, nil)
	app := NewApp(AppConfig{
		Query:     persist.New(&memStorage{data: map[string]string{"search": "react"}}, "search", ""),
		Lifecycle: lc,
		Mode:      config.ModeRemote,
		OnRemove:  func() { removed++ },
	})
	app, _ = update(t, app, app.initCmd())
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyEsc})

	app, _ = update(t, app, runes("j"))
	app, _ = update(t, app, runes("d"))

	if got := titles(app.Visible()); got != "React,PHP" {
		t.Errorf("expected React,PHP, got %s", got)
	}
	if removed != 1 {
		t.Errorf("expected OnRemove once, got %d", removed)
	}

	// Removing the last item clamps the cursor.
	app, _ = update(t, app, runes("G"))
	app, _ = update(t, app, runes("d"))
	if app.Cursor() != 0 {
		t.Errorf("expected cursor 0, got %d", app.Cursor())
	}
	app, _ = update(t, app, runes("d"))
	if len(app.Visible()) != 0 || app.Cursor() != 0 {
		t.Errorf("expected empty list, got %d items cursor %d", len(app.Visible()), app.Cursor())
	}

	// Nothing left to remove.
	app, _ = update(t, app, runes("d"))
	if removed != 3 {
		t.Errorf("expected 3 removals, got %d", removed)
	}
}

func TestAppRemoveRespectsSort(t *testing.T) {
	app := loaded(t)
	app, _ = update(t, app, runes("p"))
	app, _ = update(t, app, runes("d"))

	// Sorted by points ascending the first row is PHP.
	if got := titles(app.Visible()); got != "React,Redux" {
		t.Errorf("expected PHP removed, got %s", got)
	}
}

func TestAppSortKeys(t *testing.T) {
	tests := []struct {
		keys string
		want string
	}{
		{"", "React,Redux,PHP"},
		{"t", "PHP,React,Redux"},
		{"tt", "Redux,React,PHP"},
		{"a", "Redux,React,PHP"},
		{"c", "Redux,React,PHP"},
		{"cc", "PHP,React,Redux"},
		{"p", "PHP,React,Redux"},
		{"pp", "Redux,React,PHP"},
		{"ppt", "PHP,React,Redux"},
		{"pp0", "React,Redux,PHP"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("keys=%q", tt.keys), func(t *testing.T) {
			app := loaded(t)
			for _, r := range tt.keys {
				app, _ = update(t, app, runes(string(r)))
			}
			if got := titles(app.Visible()); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAppNavigationBounds(t *testing.T) {
	app := loaded(t)

	app, _ = update(t, app, runes("k"))
	if app.Cursor() != 0 {
		t.Errorf("k at top should keep cursor at 0, got %d", app.Cursor())
	}
	app, _ = update(t, app, runes("G"))
	app, _ = update(t, app, runes("j"))
	if app.Cursor() != 2 {
		t.Errorf("j at bottom should keep cursor at 2, got %d", app.Cursor())
	}
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyUp})
	if app.Cursor() != 1 {
		t.Errorf("up should move cursor to 1, got %d", app.Cursor())
	}
	app, _ = update(t, app, runes("g"))
	if app.Cursor() != 0 {
		t.Errorf("g should move cursor to 0, got %d", app.Cursor())
	}
}

func TestAppFocusSwitching(t *testing.T) {
	app, _ := newTestApp(t, config.ModeRemote, "", &mockSearcher{})
	if !app.InputFocused() {
		t.Fatal("input should start focused")
	}

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyTab})
	if app.InputFocused() {
		t.Error("tab should focus the list")
	}
	app, _ = update(t, app, runes("/"))
	if !app.InputFocused() {
		t.Error("/ should focus the input")
	}
	if app.Draft() != "" {
		t.Errorf("/ should not be typed, draft is %q", app.Draft())
	}
}

func TestAppSavedWarning(t *testing.T) {
	app, _ := newTestApp(t, config.ModeRemote, "", &mockSearcher{})
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 120, Height: 20})

	err := fmt.Errorf("write %q: %w", "search", persist.ErrStorageUnavailable)
	app, _ = update(t, app, persist.Saved{Key: "search", Err: err})
	if !strings.Contains(app.View(), "storage unavailable") {
		t.Error("expected storage warning in view")
	}

	app, _ = update(t, app, persist.Saved{Key: "search"})
	if strings.Contains(app.View(), "storage unavailable") {
		t.Error("successful write should clear the warning")
	}
}

func TestAppUnavailableStorageStillSearches(t *testing.T) {
	s := &mockSearcher{}
	app := NewApp(AppConfig{
		Query:     persist.New(nil, "search", "React"),
		Lifecycle: stories.NewLifecycle(context.Background(), s, nil),
		Mode:      config.ModeRemote,
	})
	app, _ = update(t, app, app.initCmd())

	if app.Results().Status() != stories.StatusLoaded {
		t.Errorf("expected loaded, got %s", app.Results().Status())
	}
	if app.warning == nil {
		t.Error("expected storage warning")
	}
}

func TestAppIgnoresUnrelatedSaved(t *testing.T) {
	app, _ := newTestApp(t, config.ModeRemote, "", &mockSearcher{})

	err := fmt.Errorf("write %q: %w", "search", persist.ErrStorageUnavailable)
	app, _ = update(t, app, persist.Saved{Key: "search", Err: err})

	// Neither a superseded write nor another key's write clears the warning.
	app, _ = update(t, app, persist.Saved{Key: "search", Superseded: true})
	app, _ = update(t, app, persist.Saved{Key: "other"})
	if app.warning == nil {
		t.Error("warning should survive superseded and unrelated writes")
	}
}
