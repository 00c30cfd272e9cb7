package companion

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/neurolens/neurolens/internal/domain"
)

// MaxNudgeSteps bounds how many mini-steps a nudge carries.
const MaxNudgeSteps = 3

// AdaptTask breaks a task into mini-steps suited to the mood. "stressed"
// is accepted as an alias for anxious.
func AdaptTask(task, mood string) []string {
	task = strings.TrimSpace(task)
	m := strings.ToLower(strings.TrimSpace(mood))
	if m == "stressed" {
		m = string(domain.EmotionAnxious)
	}

	switch domain.Emotion(m) {
	case domain.EmotionAnxious:
		return []string{
			"Pause 1 min and breathe.",
			fmt.Sprintf("Break %q into the smallest piece.", task),
			"Finish that piece, then re-evaluate.",
		}
	case domain.EmotionSad:
		return []string{
			"Put on music you like.",
			fmt.Sprintf("Start %q for just 5 minutes.", task),
			"Reward yourself after finishing.",
		}
	case domain.EmotionAngry:
		return []string{
			"Walk away from screen for 2 minutes.",
			"Return and write one clear sentence of what to do.",
			"Do only that step.",
		}
	case domain.EmotionHappy:
		return []string{
			fmt.Sprintf("Channel your energy into %q.", task),
			"Set a 15 min timer and go full focus.",
			"Share progress with a friend.",
		}
	case domain.EmotionCalm:
		return []string{
			fmt.Sprintf("Plan %q logically.", task),
			"Execute one part smoothly.",
			"Log completion to stay consistent.",
		}
	default:
		return []string{
			fmt.Sprintf("Write down what %q means to you.", task),
			"Start small.",
			"Track how you feel after.",
		}
	}
}

// NudgePrompt is the instruction sent to a model when it is asked for
// mini-steps instead of the built-in ones.
func NudgePrompt(task, mood string) string {
	return fmt.Sprintf(`You are a helpful focus assistant.
The user feels %q and needs to complete %q.
Break it into 3 short, actionable steps.
Respond only as:
1. Step one
2. Step two
3. Step three`, mood, task)
}

// ParseSteps keeps the numbered lines of a model answer, at most
// MaxNudgeSteps of them.
func ParseSteps(raw string) []string {
	var steps []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !unicode.IsDigit([]rune(line)[0]) {
			continue
		}
		steps = append(steps, line)
		if len(steps) == MaxNudgeSteps {
			break
		}
	}
	return steps
}
