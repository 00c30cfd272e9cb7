package companion

import (
	"testing"
	"time"

	"github.com/neurolens/neurolens/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespond_AnxiousJournal(t *testing.T) {
	state := Respond(domain.CategoryEmotionalJournal, "I feel so anxious about my exam")

	assert.Equal(t, "Anxious", state.EmotionTag())
	require.True(t, state.HasDetailedResponse())
	assert.Contains(t, state.DetailedResponse(), "4-7-8 Breathing")
	assert.Len(t, state.Advice(), 3)
	assert.Equal(t, "I feel so anxious about my exam", state.LastMessage())
	assert.True(t, state.MockMode())
	assert.True(t, state.ModelLoaded())
}

func TestRespond_BreathingIsAlwaysCalm(t *testing.T) {
	for _, text := range []string{
		"I need to breathe",
		"I'm furious and anxious, I need to breathe",
		"so sad, help me with breathing",
	} {
		state := Respond(domain.CategoryBreathing, text)
		assert.Equal(t, "Calm", state.EmotionTag(), text)
		assert.Contains(t, state.DetailedResponse(), "Box Breathing")
		assert.Equal(t, categoryAdvice[domain.CategoryBreathing], state.Advice())
	}
}

func TestRespond_GoalSettingIsAlwaysMotivated(t *testing.T) {
	state := Respond(domain.CategoryGoalSetting, "I'm sad, help me plan")
	assert.Equal(t, "Motivated", state.EmotionTag())
	assert.Contains(t, state.DetailedResponse(), "SMART Goal Framework")
}

func TestRespond_TaskKeepsDetectedEmotion(t *testing.T) {
	state := Respond(domain.CategoryTask, "I'm so tired of this task")
	assert.Equal(t, domain.EmotionTired, state.Emotion())
	assert.Contains(t, state.DetailedResponse(), "Task Management Strategy")
	assert.Equal(t, categoryAdvice[domain.CategoryTask], state.Advice())
}

func TestRespond_EveryEmotionHasTemplateAndAdvice(t *testing.T) {
	for _, e := range domain.Emotions {
		t.Run(string(e), func(t *testing.T) {
			assert.NotEmpty(t, render(emotionTemplate(e), templateData{Emotion: e.Display()}))
			assert.Len(t, emotionAdvice[e], 3)
		})
	}
}

func TestRespond_EveryCategoryHasAdvice(t *testing.T) {
	for _, c := range domain.Categories {
		state := Respond(c, "hello there")
		assert.Len(t, state.Advice(), 3, c)
		assert.True(t, state.HasDetailedResponse(), c)
	}
}

func TestRespond_NeutralJournalQuotesUser(t *testing.T) {
	state := Respond(domain.CategoryEmotionalJournal, "hello   there")
	assert.Equal(t, "Neutral", state.EmotionTag())
	assert.Contains(t, state.DetailedResponse(), `You wrote: "hello there"`)
	assert.Contains(t, state.DetailedResponse(), "**Neutral**")
}

func TestRespond_UnknownCategoryFallsBackToGeneralChat(t *testing.T) {
	state := Respond(domain.Category("SOMETHING"), "hello there")
	assert.Equal(t, categoryAdvice[domain.CategoryGeneralChat], state.Advice())
}

func TestRespond_UsesBankClock(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := &Bank{now: func() time.Time { return fixed }}
	state := b.Respond(domain.CategoryGeneralChat, "hi")
	assert.Equal(t, fixed, state.Timestamp())
}

func TestRespond_AdviceIsACopy(t *testing.T) {
	state := Respond(domain.CategoryTask, "task")
	advice := state.Advice()
	advice[0] = "mutated"
	assert.NotEqual(t, "mutated", state.Advice()[0])
	assert.NotEqual(t, "mutated", categoryAdvice[domain.CategoryTask][0])
}

func TestProcess_RoutesThenResponds(t *testing.T) {
	category, state := Process("help me with my todo list, I'm overwhelmed")
	assert.Equal(t, domain.CategoryTask, category)
	assert.Equal(t, domain.EmotionAnxious, state.Emotion())
}

func TestExcerpt_Truncates(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}
	got := excerpt(long)
	assert.Equal(t, excerptLimit+3, len(got))
	assert.Equal(t, "short text", excerpt("  short \n text "))
}

func TestSummary(t *testing.T) {
	state := Respond(domain.CategoryEmotionalJournal, "I feel so anxious about my exam")
	want := "Detected mood: Anxious\n" +
		"Try these:\n" +
		"1. Try 4-7-8 breathing: Inhale 4, hold 7, exhale 8\n" +
		"2. Use 5-4-3-2-1 grounding: Name 5 things you see, 4 you touch, 3 you hear, 2 you smell, 1 you taste\n" +
		"3. Write down your worries to externalize them"
	assert.Equal(t, want, Summary(state))
}

func TestReplyText_FallsBackToSummary(t *testing.T) {
	state := domain.NewConversationState(domain.StateOptions{Emotion: domain.EmotionCalm})
	assert.Equal(t, "Detected mood: Calm", ReplyText(state))
}
