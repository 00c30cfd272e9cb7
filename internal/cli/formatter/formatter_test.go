package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/neurolens/neurolens/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRenderProgress(t *testing.T) {
	tests := []struct {
		name  string
		pct   float64
		width int
		want  string
	}{
		{"empty", 0, 10, "  0%"},
		{"half", 0.5, 10, " 50%"},
		{"full", 1, 10, "100%"},
		{"over clamps", 1.5, 10, "100%"},
		{"negative clamps", -0.2, 10, "  0%"},
		{"tiny width", 0.5, 1, " 50%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderProgress(tt.pct, tt.width)
			assert.True(t, strings.HasSuffix(got, tt.want), got)
			assert.Contains(t, got, "[")
		})
	}
}

func TestRenderProgress_BlockCount(t *testing.T) {
	got := RenderProgress(0.5, 8)
	assert.Equal(t, 4, strings.Count(got, filledBlock))
	assert.Equal(t, 4, strings.Count(got, emptyBlock))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"A", "B"}, [][]string{{"one", "two"}, {"short"}})
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "two")
	assert.Contains(t, out, "short")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	width := lipgloss.Width(lines[0])
	for _, l := range lines {
		assert.Equal(t, width, lipgloss.Width(l), "rows are aligned")
	}
}

func TestRenderTable_NoHeaders(t *testing.T) {
	assert.Empty(t, RenderTable(nil, [][]string{{"x"}}))
}

func TestEmotionBadge(t *testing.T) {
	assert.Empty(t, EmotionBadge(""))
	assert.Contains(t, EmotionBadge("Anxious"), "● Anxious")
	assert.Contains(t, EmotionBadge("grateful"), "Grateful")
}

func TestHumanTimestampFrom(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"just now", now.Add(-10 * time.Second), "Just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"yesterday", now.Add(-30 * time.Hour), "Yesterday"},
		{"older", time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC), "Jan 2, 2026"},
		{"future", now.Add(time.Hour), "Today"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanTimestampFrom(tt.in, now))
		})
	}
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "--", HumanBytes(0))
	assert.Equal(t, "512 B", HumanBytes(512))
	assert.Equal(t, "2 KB", HumanBytes(2048))
	assert.Equal(t, "372 MB", HumanBytes(390_000_000))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("  hello ", 10))
	assert.Equal(t, "hel…", Truncate("hello world", 4))
	assert.Equal(t, "…", Truncate("hello", 1))
}

func TestFormatMessage(t *testing.T) {
	user := FormatMessage(domain.ChatMessage{Text: "I feel stressed", IsUser: true, Tag: "Anxious"}, nil, 80)
	assert.Contains(t, user, "You")
	assert.Contains(t, user, "I feel stressed")
	assert.Contains(t, user, "Anxious")

	errMsg := FormatMessage(domain.ChatMessage{Text: "Error: generation timed out", Error: true}, NewMarkdown("notty"), 80)
	assert.Contains(t, errMsg, "NeuroLens")
	assert.Contains(t, errMsg, "Error: generation timed out")
}

func TestFormatMessage_RendersMarkdown(t *testing.T) {
	got := FormatMessage(domain.ChatMessage{Text: "## Breathing\n\n- inhale slowly"}, NewMarkdown("notty"), 60)
	assert.Contains(t, got, "Breathing")
	assert.Contains(t, got, "inhale slowly")
}

func TestMarkdown_CachesPerWidth(t *testing.T) {
	md := NewMarkdown("notty")
	md.Render("hi", 40)
	md.Render("hi", 40)
	md.Render("hi", 60)
	assert.Len(t, md.renderers, 2)
}

func TestFormatJournal(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, FormatJournal(nil, now), "empty")

	out := FormatJournal([]*domain.JournalEntry{{
		Emotion:   domain.EmotionSad,
		Category:  domain.CategoryEmotionalJournal,
		Message:   "rough day",
		CreatedAt: now.Add(-2 * time.Hour),
	}}, now)
	assert.Contains(t, out, "2h ago")
	assert.Contains(t, out, "Sad")
	assert.Contains(t, out, "EMOTIONAL_JOURNAL")
	assert.Contains(t, out, "rough day")
}

func TestFormatJournal_ShortIDs(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	out := FormatJournal([]*domain.JournalEntry{{
		ID:        "0f3c9a1e-5b2d-4c7e-9a10-3e2f1d0c9b8a",
		Emotion:   domain.EmotionCalm,
		CreatedAt: now,
	}}, now)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "0f3c9a1e")
	assert.NotContains(t, out, "0f3c9a1e-5b2d")
}

func TestFormatJournalEntry(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	out := FormatJournalEntry(&domain.JournalEntry{
		ID:        "0f3c9a1e-5b2d-4c7e-9a10-3e2f1d0c9b8a",
		SessionID: "s-1",
		Emotion:   domain.EmotionTired,
		Category:  domain.CategoryEmotionalJournal,
		Advice:    []string{"Rest", "Hydrate"},
		Message:   "long week",
		Source:    domain.SourceMock,
		CreatedAt: now.Add(-5 * time.Minute),
	}, now)
	assert.Contains(t, out, "0f3c9a1e-5b2d-4c7e-9a10-3e2f1d0c9b8a")
	assert.Contains(t, out, "Tired")
	assert.Contains(t, out, "5m ago")
	assert.Contains(t, out, "long week")
	assert.Contains(t, out, "2. Hydrate")
}

func TestFormatMoodStats(t *testing.T) {
	out := FormatMoodStats([]domain.EmotionCount{
		{Emotion: domain.EmotionAnxious, Count: 3},
		{Emotion: domain.EmotionHappy, Count: 1},
	}, 7)
	assert.Contains(t, out, "LAST 7 DAYS")
	assert.Contains(t, out, "Anxious")
	assert.Contains(t, out, "Happy")

	assert.Contains(t, FormatMoodStats(nil, 30), "No entries")
}

func TestFormatModels(t *testing.T) {
	out := FormatModels([]domain.ModelDescriptor{
		{ID: "smollm2-360m-q8_0", Name: "SmolLM2 360M", Source: domain.SourceLocal, Downloaded: true},
		{ID: "llama3.2", Name: "llama3.2", Source: domain.SourceRemote},
	}, "llama3.2")
	assert.Contains(t, out, "smollm2-360m-q8_0")
	assert.Contains(t, out, "downloaded")
	assert.Contains(t, out, "ollama")
	assert.Contains(t, out, "●")

	assert.Contains(t, FormatModels(nil, ""), "No models")
}

func TestFormatSteps(t *testing.T) {
	out := FormatSteps("write report", []string{"open the doc", "write one line"})
	assert.Contains(t, out, "write report")
	assert.Contains(t, out, "1.")
	assert.Contains(t, out, "2.")
	assert.Contains(t, out, "write one line")
}
