package companion

import (
	"embed"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/neurolens/neurolens/internal/domain"
)

//go:embed responses/*.md
var responseFS embed.FS

var responses = template.Must(template.ParseFS(responseFS, "responses/*.md"))

// categoryTemplates maps non-emotional categories to their response file.
var categoryTemplates = map[domain.Category]string{
	domain.CategoryTask:         "task.md",
	domain.CategoryReminder:     "reminder.md",
	domain.CategoryVoiceJournal: "voice.md",
	domain.CategoryBreathing:    "breathing.md",
	domain.CategoryGoalSetting:  "goal.md",
	domain.CategoryGeneralChat:  "general.md",
}

// fixedEmotion overrides the detected mood for categories whose template
// is mood independent.
var fixedEmotion = map[domain.Category]domain.Emotion{
	domain.CategoryBreathing:   domain.EmotionCalm,
	domain.CategoryGoalSetting: domain.EmotionMotivated,
}

var categoryAdvice = map[domain.Category][]string{
	domain.CategoryTask: {
		"Use the Pomodoro Technique: 25 min focus + 5 min break",
		"Write down tasks and cross them off as you complete them",
		"Start with the easiest task to build momentum",
	},
	domain.CategoryReminder: {
		"Set reminders at natural transition points in your day",
		"Make reminders specific and actionable",
		"Use emotional check-in reminders 3x daily",
	},
	domain.CategoryVoiceJournal: {
		"Voice journal when you're feeling too much to write",
		"Record your gratitude practice daily",
		"Listen back to track your emotional patterns over time",
	},
	domain.CategoryBreathing: {
		"Try 4-7-8 breathing before bed for better sleep",
		"Use box breathing during stressful work moments",
		"Physiological sigh for instant anxiety relief",
	},
	domain.CategoryGoalSetting: {
		"Start with ONE micro-goal: so small you can't fail",
		"Use implementation intentions: 'When X happens, I will do Y'",
		"Track daily progress with a simple yes/no",
	},
	domain.CategoryGeneralChat: {
		"Take a moment to check in with yourself: How am I really feeling?",
		"Practice one small act of self-care today",
		"Remember: It's okay to not be okay. You're doing your best.",
	},
}

var emotionAdvice = map[domain.Emotion][]string{
	domain.EmotionAnxious: {
		"Try 4-7-8 breathing: Inhale 4, hold 7, exhale 8",
		"Use 5-4-3-2-1 grounding: Name 5 things you see, 4 you touch, 3 you hear, 2 you smell, 1 you taste",
		"Write down your worries to externalize them",
	},
	domain.EmotionSad: {
		"Reach out to someone you trust - connection helps",
		"Do something creative to process emotions",
		"Practice self-compassion: talk to yourself like a friend",
	},
	domain.EmotionAngry: {
		"Take a timeout: count to 10 before responding",
		"Physical release: exercise or punch a pillow",
		"Use 'I feel' statements to communicate effectively",
	},
	domain.EmotionTired: {
		"Take a 20-minute power nap",
		"Drink water and have a protein snack",
		"Do 5 minutes of gentle stretching",
	},
	domain.EmotionHappy: {
		"Share your positive energy with someone",
		"Document this moment in your journal",
		"Use this energy to tackle a task you've been avoiding",
	},
	domain.EmotionCalm: {
		"Use this state for reflection or meditation",
		"Journal about what created this calm",
		"Engage in creative work - your mind is clear",
	},
	domain.EmotionMotivated: {
		"Make a list of 3 goals and start with one NOW",
		"Use Pomodoro technique: 25 min focus, 5 min break",
		"Tackle your hardest task while you have this energy",
	},
	domain.EmotionGrateful: {
		"Write 3 specific gratitude statements",
		"Express thanks to someone who made a difference",
		"Pay it forward with a kind act",
	},
	domain.EmotionNeutral: {
		"Take a few deep breaths",
		"Check in with yourself: How am I really feeling?",
		"One small act of self-care today",
	},
}

const excerptLimit = 80

type templateData struct {
	Emotion string
	Excerpt string
}

// Bank answers routed requests with canned long-form responses.
type Bank struct {
	now func() time.Time
}

// NewBank returns a Bank stamping states with the wall clock.
func NewBank() *Bank {
	return &Bank{now: time.Now}
}

var defaultBank = NewBank()

// Respond builds the conversation state for a category using the default bank.
func Respond(category domain.Category, text string) domain.ConversationState {
	return defaultBank.Respond(category, text)
}

// Process routes text and responds to it in one step.
func Process(text string) (domain.Category, domain.ConversationState) {
	category := Route(text)
	return category, defaultBank.Respond(category, text)
}

// Respond selects template and advice for the category. Only
// EMOTIONAL_JOURNAL keys the template on the detected emotion.
func (b *Bank) Respond(category domain.Category, text string) domain.ConversationState {
	emotion := Classify(text)
	if fixed, ok := fixedEmotion[category]; ok {
		emotion = fixed
	}

	var name string
	var advice []string
	if category == domain.CategoryEmotionalJournal {
		name = emotionTemplate(emotion)
		advice = emotionAdvice[emotion]
	} else {
		var ok bool
		name, ok = categoryTemplates[category]
		if !ok {
			category = domain.CategoryGeneralChat
			name = categoryTemplates[category]
		}
		advice = categoryAdvice[category]
	}

	return domain.NewConversationState(domain.StateOptions{
		Emotion:          emotion,
		Advice:           advice,
		LastMessage:      text,
		DetailedResponse: render(name, templateData{Emotion: emotion.Display(), Excerpt: excerpt(text)}),
		ModelLoaded:      true,
		MockMode:         true,
		Timestamp:        b.now(),
	})
}

func emotionTemplate(e domain.Emotion) string {
	if e == domain.EmotionNeutral || e == "" {
		return "neutral.md"
	}
	return string(e) + ".md"
}

func render(name string, data templateData) string {
	var b strings.Builder
	if err := responses.ExecuteTemplate(&b, name, data); err != nil {
		// Templates are embedded and parsed at init; a failure here means
		// a missing file for a known key.
		panic("companion: rendering " + name + ": " + err.Error())
	}
	return strings.TrimSpace(b.String())
}

func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= excerptLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:excerptLimit]) + "..."
}
