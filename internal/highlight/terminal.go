package highlight

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"enhanced-search/internal/models"
)

// Theme defines the colors used for marks in the terminal.
type Theme struct {
	Current lipgloss.Color
	Match   lipgloss.Color
	Dim     lipgloss.Color
}

var DefaultTheme = Theme{
	Current: lipgloss.Color("#ff9f1c"),
	Match:   lipgloss.Color("#ffe066"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds the styles derived from a theme, keyed by mark class.
type Styles struct {
	Current lipgloss.Style
	Match   lipgloss.Style
	Help    lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Current: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(t.Current),
		Match:   lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(t.Match),
		Help:    lipgloss.NewStyle().Foreground(t.Dim),
	}
}

func (s Styles) forClass(class string) lipgloss.Style {
	if class == models.CurrentMatchClass {
		return s.Current
	}
	return s.Match
}

// Terminal renders the surface to a writer after every push, showing the
// region around the current match.
type Terminal struct {
	*Surface
	w      io.Writer
	styles Styles
	// Window is the number of bytes shown on each side of the current match.
	// Zero renders the whole document.
	Window int
}

func NewTerminal(w io.Writer, styles Styles) *Terminal {
	return &Terminal{Surface: NewSurface(""), w: w, styles: styles, Window: 240}
}

func (t *Terminal) Push(ctx context.Context, p Payload) error {
	if err := t.Surface.Push(ctx, p); err != nil {
		return err
	}
	_, err := fmt.Fprintln(t.w, t.Render())
	return err
}

// Render returns the styled excerpt followed by a match counter line
func (t *Terminal) Render() string {
	text := t.Text()
	marks := t.Marks()
	from, to := 0, len(text)
	if span, ok := t.ScrolledTo(); ok && t.Window > 0 {
		from = max(0, span.Start-t.Window)
		to = min(len(text), span.End+t.Window)
		from, to = runeStart(text, from), runeStart(text, to)
	}

	var b strings.Builder
	if from > 0 {
		b.WriteString("…")
	}
	cursor := from
	for _, m := range marks {
		start, end := max(m.Span.Start, from), min(m.Span.End, to)
		if start >= end || start < cursor {
			continue
		}
		b.WriteString(text[cursor:start])
		b.WriteString(styleLines(t.styles.forClass(m.Class), text[start:end]))
		cursor = end
	}
	b.WriteString(text[cursor:to])
	if to < len(text) {
		b.WriteString("…")
	}

	counter := "0/0"
	if cur, ok := t.Current(); ok {
		counter = fmt.Sprintf("%d/%d", cur+1, len(marks))
	}
	b.WriteString("\n")
	b.WriteString(t.styles.Help.Render("[" + counter + "]"))
	return b.String()
}

// styleLines renders each line separately so lipgloss does not pad the
// block to a common width.
func styleLines(style lipgloss.Style, s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// runeStart moves i back to the start of the UTF-8 sequence containing it
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && s[i]&0xC0 == 0x80 {
		i--
	}
	return i
}
