package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/neurolens/neurolens/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorAqua   = lipgloss.Color("#689d6a")
	ColorOrange = lipgloss.Color("#fe8019")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

var emotionColors = map[domain.Emotion]lipgloss.Color{
	domain.EmotionAnxious:   ColorYellow,
	domain.EmotionSad:       ColorBlue,
	domain.EmotionAngry:     ColorRed,
	domain.EmotionTired:     ColorDim,
	domain.EmotionHappy:     ColorGreen,
	domain.EmotionCalm:      ColorAqua,
	domain.EmotionMotivated: ColorOrange,
	domain.EmotionGrateful:  ColorPurple,
}

// EmotionStyle returns the style used to color an emotion label.
func EmotionStyle(e domain.Emotion) lipgloss.Style {
	c, ok := emotionColors[e]
	if !ok {
		return StyleFg
	}
	return lipgloss.NewStyle().Foreground(c)
}

// EmotionBadge renders a tag such as "● Anxious". The tag may be either
// the raw or the display spelling; an empty tag renders nothing.
func EmotionBadge(tag string) string {
	if strings.TrimSpace(tag) == "" {
		return ""
	}
	e := domain.ParseEmotion(tag)
	return EmotionStyle(e).Render("● " + e.Display())
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
