package companion

import (
	"strings"

	"github.com/neurolens/neurolens/internal/domain"
)

type categoryTriggers struct {
	category domain.Category
	triggers []string
}

// routeTable is a decision list: the first category with a matching
// trigger wins even when later categories would also match.
var routeTable = []categoryTriggers{
	{domain.CategoryTask, []string{"task", "to do", "todo"}},
	{domain.CategoryReminder, []string{"remind", "reminder", "schedule"}},
	{domain.CategoryVoiceJournal, []string{"voice", "speak", "talk"}},
	{domain.CategoryBreathing, []string{"breath", "breathing", "meditat"}},
	{domain.CategoryGoalSetting, []string{"goal", "plan", "achieve"}},
}

// Route classifies text into a request category.
func Route(text string) domain.Category {
	return routeLower(strings.ToLower(text))
}

func routeLower(lower string) domain.Category {
	for _, entry := range routeTable {
		if containsAny(lower, entry.triggers...) {
			return entry.category
		}
	}
	if classifyLower(lower) != domain.EmotionNeutral {
		return domain.CategoryEmotionalJournal
	}
	return domain.CategoryGeneralChat
}
