package domain

// Category is the coarse intent bucket that selects a template family.
type Category string

const (
	CategoryTask             Category = "TASK"
	CategoryReminder         Category = "REMINDER"
	CategoryVoiceJournal     Category = "VOICE_JOURNAL"
	CategoryBreathing        Category = "BREATHING"
	CategoryEmotionalJournal Category = "EMOTIONAL_JOURNAL"
	CategoryGoalSetting      Category = "GOAL_SETTING"
	CategoryGeneralChat      Category = "GENERAL_CHAT"
)

// Categories lists every request category in routing priority order.
var Categories = []Category{
	CategoryTask,
	CategoryReminder,
	CategoryVoiceJournal,
	CategoryBreathing,
	CategoryGoalSetting,
	CategoryEmotionalJournal,
	CategoryGeneralChat,
}

// ModelSource selects which backend answers a chat turn.
type ModelSource string

const (
	SourceNone   ModelSource = ""
	SourceLocal  ModelSource = "LOCAL_MODEL"
	SourceRemote ModelSource = "REMOTE_SERVER"
	SourceMock   ModelSource = "MOCK"
)

// ParseModelSource maps config and flag spellings onto a source.
func ParseModelSource(s string) (ModelSource, bool) {
	switch s {
	case "local", "LOCAL", "LOCAL_MODEL":
		return SourceLocal, true
	case "remote", "REMOTE", "REMOTE_SERVER", "ollama":
		return SourceRemote, true
	case "mock", "MOCK":
		return SourceMock, true
	case "", "none":
		return SourceNone, true
	}
	return SourceNone, false
}

// MockModelID is the model identifier recorded while mock mode is active.
const MockModelID = "mock"
