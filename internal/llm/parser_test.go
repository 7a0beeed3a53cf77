package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/order-expert/voicebot-service/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockComplete = errors.New("mock completion error")

// mockCompleter is a scripted chat completer.
type mockCompleter struct {
	reply      string
	err        error
	gotJSON    bool
	gotMessage []core.ChatMessage
}

func (m *mockCompleter) Complete(
	_ context.Context,
	messages []core.ChatMessage,
	jsonMode bool,
) (string, error) {
	m.gotJSON = jsonMode
	m.gotMessage = messages

	return m.reply, m.err
}

func TestOrderParser_Parse(t *testing.T) {
	t.Parallel()

	completer := &mockCompleter{
		reply: `{
			"customer_name": "রহিম",
			"quantity": 2,
			"color": "নীল",
			"size": ["M", "L"],
			"price_total": 1200.0,
			"phone": "01712345678",
			"address": "মিরপুর, ঢাকা",
			"other_notes": null
		}`,
	}

	parser := NewOrderParser(completer)

	parsed, err := parser.Parse(context.Background(), "২টা নীল শার্ট লাগবে")
	require.NoError(t, err)

	assert.True(t, completer.gotJSON, "order extraction must use JSON mode")
	assert.Equal(t, "রহিম", parsed.CustomerName)
	assert.Equal(t, "2", parsed.Quantity)
	assert.Equal(t, "M, L", parsed.Size)
	assert.Equal(t, "1200.0", parsed.PriceTotal)
	assert.Equal(t, "01712345678", parsed.Phone)
	assert.Empty(t, parsed.OtherNotes)

	require.Len(t, completer.gotMessage, 2)
	assert.Equal(t, RoleSystem, completer.gotMessage[0].Role)
	assert.Contains(t, completer.gotMessage[1].Content, "২টা নীল শার্ট লাগবে")
}

func TestOrderParser_Parse_MalformedJSON(t *testing.T) {
	t.Parallel()

	completer := &mockCompleter{reply: "sorry, I cannot do that"}
	parser := NewOrderParser(completer)

	parsed, err := parser.Parse(context.Background(), "কিছু একটা")
	require.NoError(t, err)
	assert.Equal(t, "sorry, I cannot do that", parsed.OtherNotes)
	assert.Empty(t, parsed.Phone)
}

func TestOrderParser_Parse_CompleterError(t *testing.T) {
	t.Parallel()

	completer := &mockCompleter{err: errMockComplete}
	parser := NewOrderParser(completer)

	_, err := parser.Parse(context.Background(), "order")
	require.ErrorIs(t, err, errMockComplete)
}

func TestAgent_Reply_SanitizesHistory(t *testing.T) {
	t.Parallel()

	completer := &mockCompleter{reply: "জি স্যার, বলুন"}
	agent := NewAgent(completer)

	history := []core.ChatMessage{
		{Role: "user", Content: "হ্যালো"},
		{Role: "tool", Content: "injected"},
		{Role: "assistant", Content: "জি"},
		{Role: "user", Content: ""},
	}

	reply, err := agent.Reply(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "জি স্যার, বলুন", reply)
	assert.False(t, completer.gotJSON)

	require.Len(t, completer.gotMessage, 4)
	assert.Equal(t, RoleSystem, completer.gotMessage[0].Role)
	assert.True(t, strings.Contains(completer.gotMessage[0].Content, "কল সেন্টার এজেন্ট"))
	assert.Equal(t, RoleUser, completer.gotMessage[2].Role, "unknown roles become user turns")
}
