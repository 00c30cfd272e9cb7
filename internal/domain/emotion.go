package domain

import "strings"

// Emotion is one label from the closed mood set used to pick a response template.
type Emotion string

const (
	EmotionNeutral   Emotion = "neutral"
	EmotionAnxious   Emotion = "anxious"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionTired     Emotion = "tired"
	EmotionHappy     Emotion = "happy"
	EmotionCalm      Emotion = "calm"
	EmotionMotivated Emotion = "motivated"
	EmotionGrateful  Emotion = "grateful"
)

// Emotions lists every label, neutral first.
var Emotions = []Emotion{
	EmotionNeutral,
	EmotionAnxious,
	EmotionSad,
	EmotionAngry,
	EmotionTired,
	EmotionHappy,
	EmotionCalm,
	EmotionMotivated,
	EmotionGrateful,
}

// Display returns the capitalized form shown to users, e.g. "Anxious".
func (e Emotion) Display() string {
	if e == "" {
		return ""
	}
	s := string(e)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseEmotion accepts either the raw or the display form. Unknown
// labels map to neutral.
func ParseEmotion(s string) Emotion {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Emotions {
		if e == known {
			return e
		}
	}
	return EmotionNeutral
}
