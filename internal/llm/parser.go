package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/order-expert/voicebot-service/internal/core"
)

// Prompts for structured order extraction.
const (
	parseSystemPrompt = "You are an assistant that extracts structured order data " +
		"from free-text Bangla or English messages about shirt orders. " +
		"Always respond with valid JSON ONLY, no explanation."

	parseUserPromptFormat = `
Customer message (Bangla / English mixed):

"""%s"""


Important:
- The customer is from Bangladesh.
- Mobile numbers usually look like: 017xxxxxxxx, 018xxxxxxxx, 019xxxxxxxx, or with country code 880 / +880.
- Always try to extract a phone number if there are 10-14 digits that look like a Bangladeshi mobile.
- Return the phone number as a string in whatever format appears (e.g. "01712345678" or "+8801712345678").



Extract:
- customer_name (if present)
- quantity (number of shirts)
- color
- size (or sizes list)
- price_total (numeric, if mentioned)
- phone
- address
- any other_notes

Return JSON with keys:
customer_name, quantity, color, size, price_total, phone, address, other_notes.
If something not found, use null.
`
)

// flexString tolerates the shapes the model actually returns: null, strings,
// numbers and lists of strings.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""

		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*f = flexString(asString)

		return nil
	}

	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*f = flexString(asNumber.String())

		return nil
	}

	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		*f = flexString(strings.Join(asList, ", "))

		return nil
	}

	*f = flexString(trimmed)

	return nil
}

// parsedOrderWire mirrors the JSON contract given to the model.
type parsedOrderWire struct {
	CustomerName flexString `json:"customer_name"`
	Quantity     flexString `json:"quantity"`
	Color        flexString `json:"color"`
	Size         flexString `json:"size"`
	PriceTotal   flexString `json:"price_total"`
	Phone        flexString `json:"phone"`
	Address      flexString `json:"address"`
	OtherNotes   flexString `json:"other_notes"`
}

// OrderParser extracts structured order data from free-text messages.
type OrderParser struct {
	completer core.ChatCompleter
}

// NewOrderParser creates a parser on top of any chat completer.
func NewOrderParser(completer core.ChatCompleter) *OrderParser {
	return &OrderParser{completer: completer}
}

// Parse asks the model to extract order fields in JSON mode. If the model
// responds with something that is not the agreed JSON object, the raw reply
// is preserved in OtherNotes rather than failing the order intake.
func (p *OrderParser) Parse(ctx context.Context, orderText string) (core.ParsedOrder, error) {
	messages := []core.ChatMessage{
		{Role: RoleSystem, Content: parseSystemPrompt},
		{Role: RoleUser, Content: fmt.Sprintf(parseUserPromptFormat, orderText)},
	}

	raw, err := p.completer.Complete(ctx, messages, true)
	if err != nil {
		return core.ParsedOrder{}, fmt.Errorf("failed to parse order with LLM: %w", err)
	}

	var wire parsedOrderWire

	err = json.Unmarshal([]byte(raw), &wire)
	if err != nil {
		return core.ParsedOrder{OtherNotes: raw}, nil
	}

	return core.ParsedOrder{
		CustomerName: string(wire.CustomerName),
		Quantity:     string(wire.Quantity),
		Color:        string(wire.Color),
		Size:         string(wire.Size),
		PriceTotal:   string(wire.PriceTotal),
		Phone:        string(wire.Phone),
		Address:      string(wire.Address),
		OtherNotes:   string(wire.OtherNotes),
	}, nil
}
