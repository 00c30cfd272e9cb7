package companion

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/neurolens/neurolens/internal/domain"
	"github.com/neurolens/neurolens/internal/llm"
)

// Generator produces one non-streamed completion.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error)
}

// EmotionPrompt asks a model for a one-word mood label.
func EmotionPrompt(text string) string {
	return fmt.Sprintf(`You are an emotion detector.
Text: %q
Respond ONLY with one word: happy, sad, angry, stressed, calm, or neutral.`, text)
}

// modelLabels maps fragments of a model answer to emotions, checked in order.
var modelLabels = []struct {
	fragment string
	emotion  domain.Emotion
}{
	{"stress", domain.EmotionAnxious},
	{"anxi", domain.EmotionAnxious},
	{"sad", domain.EmotionSad},
	{"angry", domain.EmotionAngry},
	{"calm", domain.EmotionCalm},
	{"happy", domain.EmotionHappy},
	{"neutral", domain.EmotionNeutral},
}

// NormalizeEmotion reduces a model answer to letters and maps it onto a
// label. ok is false when the answer names none of them.
func NormalizeEmotion(raw string) (domain.Emotion, bool) {
	letters := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, raw)
	for _, l := range modelLabels {
		if strings.Contains(letters, l.fragment) {
			return l.emotion, true
		}
	}
	return domain.EmotionNeutral, false
}

// DetectEmotion asks gen to label text and falls back to Classify when
// there is no generator, the call fails or the answer is not a label.
// fromModel reports which path produced the result.
func DetectEmotion(ctx context.Context, gen Generator, text string) (e domain.Emotion, fromModel bool) {
	if gen == nil {
		return Classify(text), false
	}
	resp, err := gen.Generate(ctx, llm.GenerateRequest{
		Task:       llm.TaskEmotion,
		UserPrompt: EmotionPrompt(text),
	})
	if err != nil {
		return Classify(text), false
	}
	if e, ok := NormalizeEmotion(resp.Text); ok {
		return e, true
	}
	return Classify(text), false
}
