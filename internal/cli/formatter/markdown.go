package formatter

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Markdown renders detailed responses with glamour. Renderers are cached
// per wrap width; a failed render returns the source text unchanged.
type Markdown struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdown returns a renderer using a glamour standard style such as
// "dark", "light" or "notty".
func NewMarkdown(style string) *Markdown {
	if style == "" {
		style = "dark"
	}
	return &Markdown{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

// Render formats md wrapped at width columns.
func (m *Markdown) Render(md string, width int) string {
	if width < 20 {
		width = 20
	}
	r, err := m.renderer(width)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

func (m *Markdown) renderer(width int) (*glamour.TermRenderer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	m.renderers[width] = r
	return r, nil
}
