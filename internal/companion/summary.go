package companion

import (
	"fmt"
	"strings"

	"github.com/neurolens/neurolens/internal/domain"
)

// Summary renders the short form of a state: detected mood followed by
// numbered advice.
func Summary(state domain.ConversationState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Detected mood: %s\n", state.EmotionTag())
	advice := state.Advice()
	if len(advice) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}
	b.WriteString("Try these:\n")
	for i, a := range advice {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ReplyText is the chat text for a mock turn: the detailed response when
// present, the summary otherwise.
func ReplyText(state domain.ConversationState) string {
	if state.HasDetailedResponse() {
		return state.DetailedResponse()
	}
	return Summary(state)
}
