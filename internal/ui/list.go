package ui

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/stories/internal/stories"
)

// RenderList renders the visible stories, scrolled so the cursor is on
// screen. height is the number of lines available.
func RenderList(items []stories.Story, cursor int, width, height int) string {
	if len(items) == 0 {
		return HelpStyle.Render("No stories. Type a query and press Enter.")
	}
	if height < 1 {
		height = 1
	}

	scrollOffset := calcScrollOffset(len(items), cursor, height)

	var b strings.Builder
	for i := scrollOffset; i < len(items) && i < scrollOffset+height; i++ {
		b.WriteString(renderItemLine(items[i], i == cursor, width))
		b.WriteString("\n")
	}
	return b.String()
}

// calcScrollOffset returns the first index to draw so that cursor fits in
// a window of height lines.
func calcScrollOffset(total, cursor, height int) int {
	if total == 0 || cursor < 0 {
		return 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	if cursor >= height {
		return cursor - height + 1
	}
	return 0
}

// renderItemLine renders one story: title and host on the left, author,
// comments and points on the right, joined by a dot leader.
func renderItemLine(s stories.Story, selected bool, width int) string {
	meta := fmt.Sprintf("%s · %d comments · %d points", s.Author, s.NumComments, s.Points)
	metaWidth := utf8.RuneCountInString(meta)

	host := hostOf(s.URL)
	hostPart := ""
	if host != "" {
		hostPart = " (" + host + ")"
	}

	// Leave room for meta, host and a minimal leader.
	titleWidth := width - metaWidth - utf8.RuneCountInString(hostPart) - 4
	if titleWidth < 20 {
		titleWidth = 20
	}
	title := truncate(s.Title, titleWidth)

	plainLeft := " " + title + hostPart
	dotCount := width - lipgloss.Width(plainLeft) - metaWidth - 2
	if dotCount < 1 {
		dotCount = 1
	}

	if selected {
		line := plainLeft + " " + fadeDots(dotCount) + meta + " "
		return SelectedItem.Width(width).Render(line)
	}
	return NormalItem.Render(" "+title) + HostItem.Render(hostPart) + " " +
		MetaItem.Render(fadeDots(dotCount)+meta)
}

// hostOf returns the url host without a leading "www.", or "".
func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// truncate shortens s to max runes, adding "..." if truncated.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func fadeDots(count int) string {
	if count <= 0 {
		return ""
	}
	// Dots for the leader, one trailing space before the next column.
	return strings.Repeat(".", count-1) + " "
}

// RenderSortLabel describes the active sort, e.g. "sort: points ↓".
func RenderSortLabel(spec stories.SortSpec) string {
	if spec.Key == stories.SortNone {
		return SortIndicator.Render("sort: none")
	}
	arrow := "↑"
	if spec.Reverse {
		arrow = "↓"
	}
	return SortIndicator.Render(fmt.Sprintf("sort: %s %s", spec.Key, arrow))
}

// RenderStatusBar renders the bottom status bar with key hints and position.
func RenderStatusBar(cursor, total int, width int, loading bool, inputFocused bool) string {
	var position string
	switch {
	case loading:
		position = " Loading... "
	case total == 0:
		position = " 0/0 "
	default:
		position = fmt.Sprintf(" %d/%d ", cursor+1, total)
	}

	var keys []string
	if inputFocused {
		keys = []string{
			StatusBarKey.Render("Enter") + StatusBarText.Render(":search"),
			StatusBarKey.Render("Esc") + StatusBarText.Render(":list"),
			StatusBarKey.Render("ctrl+c") + StatusBarText.Render(":quit"),
		}
	} else {
		keys = []string{
			StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
			StatusBarKey.Render("d") + StatusBarText.Render(":dismiss"),
			StatusBarKey.Render("t/a/c/p/0") + StatusBarText.Render(":sort"),
			StatusBarKey.Render("/") + StatusBarText.Render(":search"),
			StatusBarKey.Render("r") + StatusBarText.Render(":retry"),
			StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
		}
	}
	keyHints := strings.Join(keys, " ")

	padding := width - lipgloss.Width(position) - lipgloss.Width(keyHints)
	if padding < 0 {
		padding = 0
	}
	return StatusBar.Render(position + strings.Repeat(" ", padding) + keyHints)
}
