package orders

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/order-expert/voicebot-service/internal/core"
)

// Defaults used when the parsed order is missing a field.
const (
	defaultName     = "স্যার"
	defaultQuantity = "একটি"
	defaultColor    = "শার্ট"
	defaultAddress  = "আপনার দেওয়া ঠিকানায়"
)

// Fixed script sections spoken on every confirmation call.
const (
	scriptIntro = "আসসালামু আলাইকুম। আমি একজন অটোমেশন বট কথা বলছি। " +
		"আপনি একটি শার্ট অর্ডার করেছেন। " +
		"আমি এখন আপনার অর্ডারটির কনফার্মেশন নেব। "

	scriptAskDetails = "এখন দয়া করে পরিষ্কার করে বলবেন – " +
		"শার্টের মডেল, রঙ এবং সাইজ ঠিক আছে কিনা, " +
		"আর অর্ডারটি কনফার্ম করতে চান নাকি ক্যান্সেল করতে চান। " +
		"যদি অর্ডারটি ঠিক থাকে, বলবেন – ‘হ্যাঁ, অর্ডার কনফার্ম’। " +
		"যদি বাতিল করতে চান, বলবেন – ‘না, অর্ডার ক্যান্সেল’। " +
		"এখন আপনার সিদ্ধান্ত বলুন।"
)

// BuildScript builds the Bangla confirmation script spoken to the customer:
// the bot introduces itself, recaps the order and asks for a decision.
func BuildScript(parsed core.ParsedOrder) string {
	name := parsed.CustomerName
	if name == "" {
		name = defaultName
	}

	color := parsed.Color
	if color == "" {
		color = defaultColor
	}

	address := parsed.Address
	if address == "" {
		address = defaultAddress
	}

	quantityText := quantityToText(parsed.Quantity)

	sizePart := ""
	if parsed.Size != "" {
		sizePart = ", সাইজ " + parsed.Size
	}

	pricePart := ""
	if parsed.PriceTotal != "" {
		pricePart = ", মোট মূল্য " + parsed.PriceTotal + " টাকা"
	}

	recap := fmt.Sprintf(
		"%s, আপনি %s %s%s অর্ডার করেছেন%s. ডেলিভারি হবে %s. ",
		name, quantityText, color, sizePart, pricePart, address,
	)

	return scriptIntro + recap + scriptAskDetails
}

// quantityToText renders a numeric quantity as "<n> টি"; non-numeric
// quantities are spoken as given.
func quantityToText(quantity string) string {
	trimmed := strings.TrimSpace(quantity)
	if trimmed == "" {
		return defaultQuantity
	}

	if value, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return strconv.Itoa(int(value)) + " টি"
	}

	return trimmed
}
