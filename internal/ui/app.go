package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/abelbrown/stories/internal/config"
	"github.com/abelbrown/stories/internal/logging"
	"github.com/abelbrown/stories/internal/persist"
	"github.com/abelbrown/stories/internal/stories"
)

type focus int

const (
	focusInput focus = iota
	focusList
)

// AppConfig holds what the App needs from the rest of the program.
type AppConfig struct {
	// Query is the persisted search draft.
	Query *persist.Field
	// Lifecycle issues searches and guards against stale outcomes.
	Lifecycle *stories.Lifecycle
	// Mode is config.ModeRemote or config.ModeLocal.
	Mode string
	// SeedQuery is what local mode fetches.
	SeedQuery string
	// OnRemove is called after an item is dismissed. May be nil.
	OnRemove func()
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT perform I/O itself. Searches and storage writes
// run as commands and come back as messages.
type App struct {
	cfg    AppConfig
	logger *log.Logger

	input   textinput.Model
	spinner spinner.Model

	results   stories.ResultSet
	sort      stories.SortSpec
	committed string
	cursor    int
	focus     focus
	warning   error

	width  int
	height int
	ready  bool

	initCmd tea.Cmd
}

// NewApp creates the App and commits the initial query so the first search
// starts with the program.
func NewApp(cfg AppConfig) App {
	ti := textinput.New()
	ti.Placeholder = "search stories"
	ti.Prompt = ""
	ti.CharLimit = 256
	ti.SetValue(cfg.Query.Value())
	ti.CursorEnd()
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorHighlight)

	a := App{
		cfg:     cfg,
		logger:  logging.WithPrefix("ui"),
		input:   ti,
		spinner: s,
		focus:   focusInput,
		warning: cfg.Query.Err(),
	}
	a.initCmd = a.commit()
	return a
}

// Init starts the initial search, the spinner and the cursor blink.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.initCmd, a.spinner.Tick, textinput.Blink)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.focus == focusInput {
			return a.handleInputKey(msg)
		}
		return a.handleListKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = max(msg.Width-12, 10)
		a.ready = true
		return a, nil

	case SearchDone:
		action, ok := a.cfg.Lifecycle.Resolve(msg.Result)
		if !ok {
			return a, nil
		}
		a.results = a.results.Apply(action)
		a.clampCursor()
		return a, nil

	case persist.Saved:
		if msg.Key != a.cfg.Query.Key() || msg.Superseded {
			return a, nil
		}
		// A later successful write clears an earlier warning.
		a.warning = msg.Err
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleInputKey edits the draft. Enter commits it.
func (a App) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		cmd := a.commit()
		a.setFocus(focusList)
		return a, cmd

	case "esc", "tab":
		a.setFocus(focusList)
		return a, nil
	}

	before := a.input.Value()
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	if v := a.input.Value(); v != before {
		cmds = append(cmds, a.cfg.Query.Set(v))
		if a.cfg.Mode == config.ModeLocal {
			a.clampCursor()
		}
	}
	return a, tea.Batch(cmds...)
}

// handleListKey processes keyboard input while the list has focus.
func (a App) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := a.Visible()

	switch msg.String() {
	case "q":
		return a, tea.Quit

	case "j", "down":
		if a.cursor < len(visible)-1 {
			a.cursor++
		}
		return a, nil

	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case "g", "home":
		a.cursor = 0
		return a, nil

	case "G", "end":
		if len(visible) > 0 {
			a.cursor = len(visible) - 1
		}
		return a, nil

	case "/", "tab", "i":
		a.setFocus(focusInput)
		return a, textinput.Blink

	case "d", "x", "delete":
		if a.cursor < len(visible) {
			item := visible[a.cursor]
			a.results = a.results.Apply(stories.RemoveItem{Story: item})
			a.clampCursor()
			a.logger.Debug("item removed", "object_id", item.ObjectID)
			if a.cfg.OnRemove != nil {
				a.cfg.OnRemove()
			}
		}
		return a, nil

	case "t":
		return a.toggleSort(stories.SortTitle), nil
	case "a":
		return a.toggleSort(stories.SortAuthor), nil
	case "c":
		return a.toggleSort(stories.SortComments), nil
	case "p":
		return a.toggleSort(stories.SortPoints), nil
	case "0":
		a.sort = stories.SortSpec{}
		return a, nil

	case "r":
		return a, a.commit()
	}

	return a, nil
}

// commit issues a search for the current query. In local mode the seed
// query is fetched and the draft only filters.
func (a *App) commit() tea.Cmd {
	query := a.input.Value()
	if a.cfg.Mode == config.ModeLocal {
		query = a.cfg.SeedQuery
	}

	req, ok := a.cfg.Lifecycle.Fetch(query)
	if !ok {
		return nil
	}
	a.committed = req.Query
	a.results = a.results.Apply(stories.FetchInit{})
	a.logger.Debug("query committed", "query", req.Query, "seq", req.Seq)
	return func() tea.Msg {
		return SearchDone{Result: req.Do()}
	}
}

func (a *App) setFocus(f focus) {
	a.focus = f
	if f == focusInput {
		a.input.Focus()
	} else {
		a.input.Blur()
	}
}

func (a App) toggleSort(key stories.SortKey) App {
	a.sort = a.sort.Toggle(key)
	return a
}

func (a *App) clampCursor() {
	n := len(a.Visible())
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// Visible returns the items as displayed: filtered by the draft in local
// mode, then sorted.
func (a App) Visible() []stories.Story {
	term := ""
	if a.cfg.Mode == config.ModeLocal {
		term = a.input.Value()
	}
	return stories.Render(a.results.Items, term, a.sort)
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(Header.Width(a.width).Render("Hacker Stories"))
	b.WriteString("\n")
	b.WriteString(SearchBar.Render(SearchPrompt.Render("Search: ") + a.input.View()))
	b.WriteString("\n")
	b.WriteString(RenderSortLabel(a.sort))
	b.WriteString("\n")

	// Header, search bar, sort label, status bar.
	contentHeight := a.height - 4
	if a.results.Error {
		b.WriteString(ErrorStyle.Render("Something went wrong..."))
		b.WriteString("\n")
		contentHeight--
	}
	if a.warning != nil {
		contentHeight--
	}

	if a.results.Loading {
		b.WriteString(" " + a.spinner.View() + " Loading...\n")
	} else {
		b.WriteString(RenderList(a.Visible(), a.cursor, a.width, contentHeight))
	}

	if a.warning != nil {
		b.WriteString(WarningStyle.Width(a.width).Render("Warning: " + a.warning.Error()))
		b.WriteString("\n")
	}

	b.WriteString(RenderStatusBar(a.cursor, len(a.Visible()), a.width, a.results.Loading, a.focus == focusInput))
	return b.String()
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Results returns the current result set (for testing).
func (a App) Results() stories.ResultSet {
	return a.results
}

// Sort returns the active sort.
func (a App) Sort() stories.SortSpec {
	return a.sort
}

// Committed returns the last query a search was issued for.
func (a App) Committed() string {
	return a.committed
}

// Draft returns the text in the search input.
func (a App) Draft() string {
	return a.input.Value()
}

// InputFocused reports whether keys go to the search input.
func (a App) InputFocused() bool {
	return a.focus == focusInput
}
