package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/neurolens/neurolens/internal/domain"
)

const (
	userLabel      = "You"
	assistantLabel = "NeuroLens"
)

// FormatMessage renders one chat message. Assistant replies go through md
// when it is non-nil; user text and errors are printed as-is.
func FormatMessage(msg domain.ChatMessage, md *Markdown, width int) string {
	var b strings.Builder

	label := StylePurple.Bold(true).Render(assistantLabel)
	if msg.IsUser {
		label = StyleBlue.Bold(true).Render(userLabel)
	}
	b.WriteString(label)
	if badge := EmotionBadge(msg.Tag); badge != "" {
		b.WriteString("  ")
		b.WriteString(badge)
	}
	b.WriteString("\n")

	switch {
	case msg.Error:
		b.WriteString(StyleRed.Render(msg.Text))
	case msg.IsUser || md == nil:
		b.WriteString(msg.Text)
	default:
		b.WriteString(md.Render(msg.Text, width))
	}
	return b.String()
}

// FormatTranscript renders the whole history separated by blank lines.
func FormatTranscript(msgs []domain.ChatMessage, md *Markdown, width int) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = FormatMessage(m, md, width)
	}
	return strings.Join(parts, "\n\n")
}

// FormatClassification prints the emotion and category a text maps to.
func FormatClassification(e domain.Emotion, c domain.Category) string {
	return fmt.Sprintf("%s %s\n%s %s\n",
		Dim("Emotion: "), EmotionStyle(e).Render(e.Display()),
		Dim("Category:"), StyleFg.Render(string(c)))
}

// FormatSteps renders task nudges as a numbered list.
func FormatSteps(task string, steps []string) string {
	var b strings.Builder
	b.WriteString(Header("Next steps"))
	b.WriteString("\n")
	b.WriteString(Dim("Task: ") + task + "\n\n")
	for i, s := range steps {
		fmt.Fprintf(&b, "  %s %s\n", StyleYellow.Render(fmt.Sprintf("%d.", i+1)), s)
	}
	return b.String()
}

// FormatModels renders the model list. current marks the active model.
func FormatModels(models []domain.ModelDescriptor, current string) string {
	if len(models) == 0 {
		return Dim("No models available.") + "\n"
	}
	rows := make([][]string, 0, len(models))
	for _, m := range models {
		marker := " "
		if m.ID == current {
			marker = StyleGreen.Render("●")
		}
		state := Dim("remote")
		if m.Source == domain.SourceLocal {
			state = Dim("not downloaded")
			if m.Downloaded {
				state = StyleGreen.Render("downloaded")
			}
		}
		rows = append(rows, []string{marker, m.ID, m.Name, HumanBytes(m.SizeBytes), sourceLabel(m.Source), state})
	}
	return RenderTable([]string{"", "ID", "NAME", "SIZE", "SOURCE", "STATE"}, rows)
}

// FormatJournal renders recent journal entries, newest first.
func FormatJournal(entries []*domain.JournalEntry, now time.Time) string {
	if len(entries) == 0 {
		return Dim("Your journal is empty. Chat a little and check back.") + "\n"
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			TruncID(e.ID),
			HumanTimestampFrom(e.CreatedAt, now),
			EmotionStyle(e.Emotion).Render(e.Emotion.Display()),
			string(e.Category),
			Truncate(e.Message, 48),
		})
	}
	return RenderTable([]string{"ID", "WHEN", "MOOD", "CATEGORY", "MESSAGE"}, rows)
}

// FormatJournalEntry renders one entry with its advice.
func FormatJournalEntry(e *domain.JournalEntry, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", Dim("ID:      "), e.ID)
	fmt.Fprintf(&b, "%s %s\n", Dim("Session: "), e.SessionID)
	fmt.Fprintf(&b, "%s %s (%s)\n", Dim("When:    "), e.CreatedAt.Local().Format("2006-01-02 15:04"), HumanTimestampFrom(e.CreatedAt, now))
	fmt.Fprintf(&b, "%s %s\n", Dim("Mood:    "), EmotionStyle(e.Emotion).Render(e.Emotion.Display()))
	fmt.Fprintf(&b, "%s %s\n", Dim("Category:"), e.Category)
	fmt.Fprintf(&b, "%s %s\n", Dim("Source:  "), e.Source)
	b.WriteString("\n" + e.Message + "\n")
	if len(e.Advice) > 0 {
		b.WriteString("\n" + Header("Advice") + "\n")
		for i, a := range e.Advice {
			fmt.Fprintf(&b, "  %s %s\n", StyleYellow.Render(fmt.Sprintf("%d.", i+1)), a)
		}
	}
	return b.String()
}

// FormatMoodStats renders per-emotion counts as bars over the window.
func FormatMoodStats(counts []domain.EmotionCount, days int) string {
	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("Mood, last %d days", days)))
	b.WriteString("\n")
	if len(counts) == 0 {
		b.WriteString(Dim("No entries in this window.") + "\n")
		return b.String()
	}

	total, labelWidth := 0, 0
	for _, c := range counts {
		total += c.Count
		if w := len(c.Emotion.Display()); w > labelWidth {
			labelWidth = w
		}
	}
	for _, c := range counts {
		name := c.Emotion.Display()
		pad := strings.Repeat(" ", labelWidth-len(name))
		share := float64(c.Count) / float64(total)
		bar := EmotionStyle(c.Emotion).Render(strings.Repeat(filledBlock, max(1, int(share*20))))
		fmt.Fprintf(&b, "  %s%s  %s %d\n", EmotionStyle(c.Emotion).Render(name), pad, bar, c.Count)
	}
	return b.String()
}

func sourceLabel(s domain.ModelSource) string {
	switch s {
	case domain.SourceLocal:
		return "local"
	case domain.SourceRemote:
		return "ollama"
	case domain.SourceMock:
		return "mock"
	}
	return "none"
}
