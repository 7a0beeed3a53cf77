package llm

import (
	"context"
	"fmt"

	"github.com/order-expert/voicebot-service/internal/core"
)

// agentSystemPrompt pins the model to the single job of confirming shirt
// orders, in Bangla, in one or two short sentences.
const agentSystemPrompt = "তুমি একজন বাংলাদেশের কল সেন্টার এজেন্ট, কাজ শুধু শার্ট অর্ডার কনফার্ম করা। " +
	"সব সময় শুধু বাংলা ভাষায় কথা বলবে। " +
	"তুমি শুধু এই বিষয়গুলো নিয়ে কথা বলতে পারো: শার্টের সংখ্যা, কালার, সাইজ, দাম, " +
	"কাস্টমারের নাম, মোবাইল নাম্বার, ডেলিভারি অ্যাড্রেস, অর্ডার কনফার্ম/ক্যান্সেল। " +
	"এর বাইরে কোনো টপিক, সাধারণ কথা, পরামর্শ, মজার কথা, জ্ঞানগর্ভ কথা কিছুই বলবে না। " +
	"যদি ইউজার অন্য কিছু জিজ্ঞেস করে বা অন্য বিষয়ে চলে যায়, তুমি সংক্ষিপ্তভাবে এভাবে বলবে: " +
	"“স্যার, আমি শুধু আপনার শার্ট অর্ডার কনফার্ম করার জন্য আছি, " +
	"অনুগ্রহ করে অর্ডারের তথ্য বলুন।” " +
	"একবার উত্তরে সর্বোচ্চ ১–২টি ছোট বাক্য ব্যবহার করবে, " +
	"ভদ্র, পরিষ্কার এবং সহজ ভাষায় কথা বলবে। "

// Agent produces the next call-center reply for a conversation.
type Agent struct {
	completer core.ChatCompleter
}

// NewAgent creates an agent on top of any chat completer.
func NewAgent(completer core.ChatCompleter) *Agent {
	return &Agent{completer: completer}
}

// Reply generates the agent's next Bangla reply for the given history.
// Empty turns are dropped and unknown roles are treated as user turns before
// the system prompt is prepended.
func (a *Agent) Reply(ctx context.Context, history []core.ChatMessage) (string, error) {
	messages := make([]core.ChatMessage, 0, len(history)+1)
	messages = append(messages, core.ChatMessage{Role: RoleSystem, Content: agentSystemPrompt})

	for _, turn := range history {
		if turn.Content == "" {
			continue
		}

		role := turn.Role
		if role != RoleUser && role != RoleAssistant {
			role = RoleUser
		}

		messages = append(messages, core.ChatMessage{Role: role, Content: turn.Content})
	}

	reply, err := a.completer.Complete(ctx, messages, false)
	if err != nil {
		return "", fmt.Errorf("failed to generate agent reply: %w", err)
	}

	return reply, nil
}
