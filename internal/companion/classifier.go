// Package companion implements the scripted conversation engine used in
// mock mode: an emotion classifier, a request router and a bank of
// canned responses.
package companion

import (
	"strings"

	"github.com/neurolens/neurolens/internal/domain"
)

type emotionKeywords struct {
	emotion  domain.Emotion
	keywords []string
}

// emotionTable is scored in order; on equal counts the earlier entry wins.
var emotionTable = []emotionKeywords{
	{domain.EmotionAnxious, []string{"worried", "nervous", "stressed", "overwhelmed", "panic", "fear", "tense", "uneasy", "anxious", "anxiety"}},
	{domain.EmotionSad, []string{"depressed", "down", "unhappy", "blue", "gloomy", "miserable", "hopeless", "lonely", "sad", "crying"}},
	{domain.EmotionAngry, []string{"frustrated", "mad", "irritated", "annoyed", "furious", "upset", "rage", "angry", "hate"}},
	{domain.EmotionTired, []string{"exhausted", "drained", "fatigued", "weary", "burnout", "sleepy", "tired", "worn out"}},
	{domain.EmotionHappy, []string{"joyful", "excited", "great", "wonderful", "amazing", "fantastic", "good", "excellent", "happy", "delighted"}},
	{domain.EmotionCalm, []string{"peaceful", "relaxed", "serene", "tranquil", "content", "comfortable", "calm", "zen"}},
	{domain.EmotionMotivated, []string{"inspired", "energized", "driven", "determined", "focused", "productive", "motivated", "ambitious"}},
	{domain.EmotionGrateful, []string{"thankful", "appreciative", "blessed", "fortunate", "grateful", "appreciate"}},
}

// contextRule is consulted only when no keyword matched at all.
type contextRule struct {
	emotion domain.Emotion
	match   func(lower string) bool
}

var contextRules = []contextRule{
	{domain.EmotionAnxious, func(s string) bool {
		return strings.Contains(s, "work") && containsAny(s, "deadline", "pressure")
	}},
	{domain.EmotionSad, func(s string) bool { return containsAny(s, "can't", "difficult", "hard") }},
	{domain.EmotionMotivated, func(s string) bool { return containsAny(s, "achieve", "goal", "want to") }},
	{domain.EmotionGrateful, func(s string) bool { return containsAny(s, "thank", "appreciate") }},
	{domain.EmotionCalm, func(s string) bool { return containsAny(s, "relax", "peace") }},
}

// Classify maps free text to exactly one emotion label.
func Classify(text string) domain.Emotion {
	return classifyLower(strings.ToLower(text))
}

func classifyLower(lower string) domain.Emotion {
	best := domain.EmotionNeutral
	bestCount := 0
	for _, entry := range emotionTable {
		n := 0
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				n++
			}
		}
		if n > bestCount {
			best, bestCount = entry.emotion, n
		}
	}
	if bestCount > 0 {
		return best
	}
	for _, rule := range contextRules {
		if rule.match(lower) {
			return rule.emotion
		}
	}
	return domain.EmotionNeutral
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
