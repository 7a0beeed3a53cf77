package orders

import (
	"strings"

	"github.com/order-expert/voicebot-service/internal/core"
)

// Keyword lists for the rule-based reply classifier. Kept deliberately small:
// speech recognition of short Bangla replies is noisy, and the unclear bucket
// routes to a human anyway.
var (
	confirmPhrases = []string{"হ্যাঁ", "ঠিক আছে", "কনফার্ম", "confirm", "হ্যা"}
	cancelPhrases  = []string{"না", "ক্যান্সেল", "cancel", "চাই না", "বাতিল"}
)

// ClassifyReply classifies a customer's spoken reply without an LLM round
// trip. It returns DecisionConfirmed, DecisionCancelled or DecisionUnclear.
func ClassifyReply(text string) core.Decision {
	if text == "" {
		return core.DecisionUnclear
	}

	lowered := strings.ToLower(text)

	if containsAny(lowered, confirmPhrases) {
		// Avoid cases like "না, কনফার্ম না".
		if strings.Contains(lowered, "না") && strings.Contains(lowered, "কনফার্ম") {
			return core.DecisionCancelled
		}

		return core.DecisionConfirmed
	}

	if containsAny(lowered, cancelPhrases) {
		return core.DecisionCancelled
	}

	return core.DecisionUnclear
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}

	return false
}
