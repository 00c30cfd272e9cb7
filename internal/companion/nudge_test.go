package companion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdaptTask_MoodSpecificSteps(t *testing.T) {
	steps := AdaptTask("write report", "stressed")
	assert.Len(t, steps, 3)
	assert.Equal(t, "Pause 1 min and breathe.", steps[0])
	assert.Equal(t, `Break "write report" into the smallest piece.`, steps[1])

	assert.Equal(t, AdaptTask("x", "anxious"), AdaptTask("x", "Stressed"))
	assert.Contains(t, AdaptTask("clean up", "happy")[0], `"clean up"`)
	assert.Equal(t, "Walk away from screen for 2 minutes.", AdaptTask("x", "angry")[0])
}

func TestAdaptTask_DefaultSteps(t *testing.T) {
	steps := AdaptTask("taxes", "confused")
	assert.Equal(t, []string{
		`Write down what "taxes" means to you.`,
		"Start small.",
		"Track how you feel after.",
	}, steps)
}

func TestParseSteps(t *testing.T) {
	raw := "Sure! Here you go:\n1. Open the doc\n\n2. Write the intro\n3. Send it\n4. Celebrate"
	assert.Equal(t, []string{"1. Open the doc", "2. Write the intro", "3. Send it"}, ParseSteps(raw))
	assert.Empty(t, ParseSteps("no numbered lines here"))
}

func TestNudgePrompt_MentionsTaskAndMood(t *testing.T) {
	p := NudgePrompt("laundry", "tired")
	assert.Contains(t, p, `"laundry"`)
	assert.Contains(t, p, `"tired"`)
}
