// Package bangla provides Bangla text utilities for the voicebot: digit
// transliteration, number-to-words conversion and conversational
// post-processing of bot replies before speech synthesis.
package bangla

import (
	"regexp"
	"strconv"
	"strings"
)

// Number system boundaries for the word converter. Bangla counts in the
// lakh system: hundred, thousand, lakh (100,000).
const (
	numberBaseHundred  = 100
	numberBaseThousand = 1000
	numberBaseLakh     = 100000
	maxNumberForWords  = 9999999
)

// digitReplacer transliterates Bengali digits to their ASCII equivalents.
var digitReplacer = strings.NewReplacer(
	"০", "0", "১", "1", "২", "2", "৩", "3", "৪", "4",
	"৫", "5", "৬", "6", "৭", "7", "৮", "8", "৯", "9",
)

// digitRunPattern matches runs of ASCII or Bengali digits.
var digitRunPattern = regexp.MustCompile(`[0-9০-৯]+`)

// underHundred holds the irregular Bangla words for 0-99. Unlike English,
// Bangla numbers below one hundred are not composable from tens and ones.
var underHundred = []string{
	"শূন্য", "এক", "দুই", "তিন", "চার", "পাঁচ", "ছয়", "সাত", "আট", "নয়",
	"দশ", "এগারো", "বারো", "তেরো", "চৌদ্দ", "পনেরো", "ষোল", "সতেরো", "আঠারো", "উনিশ",
	"বিশ", "একুশ", "বাইশ", "তেইশ", "চব্বিশ", "পঁচিশ", "ছাব্বিশ", "সাতাশ", "আটাশ", "ঊনত্রিশ",
	"ত্রিশ", "একত্রিশ", "বত্রিশ", "তেত্রিশ", "চৌত্রিশ", "পঁয়ত্রিশ", "ছত্রিশ", "সাঁইত্রিশ", "আটত্রিশ", "ঊনচল্লিশ",
	"চল্লিশ", "একচল্লিশ", "বিয়াল্লিশ", "তেতাল্লিশ", "চুয়াল্লিশ", "পঁয়তাল্লিশ", "ছেচল্লিশ", "সাতচল্লিশ", "আটচল্লিশ", "ঊনপঞ্চাশ",
	"পঞ্চাশ", "একান্ন", "বাহান্ন", "তিপ্পান্ন", "চুয়ান্ন", "পঞ্চান্ন", "ছাপ্পান্ন", "সাতান্ন", "আটান্ন", "ঊনষাট",
	"ষাট", "একষট্টি", "বাষট্টি", "তেষট্টি", "চৌষট্টি", "পঁয়ষট্টি", "ছেষট্টি", "সাতষট্টি", "আটষট্টি", "ঊনসত্তর",
	"সত্তর", "একাত্তর", "বাহাত্তর", "তিয়াত্তর", "চুয়াত্তর", "পঁচাত্তর", "ছিয়াত্তর", "সাতাত্তর", "আটাত্তর", "ঊনআশি",
	"আশি", "একাশি", "বিরাশি", "তিরাশি", "চুরাশি", "পঁচাশি", "ছিয়াশি", "সাতাশি", "আটাশি", "ঊননব্বই",
	"নব্বই", "একানব্বই", "বিরানব্বই", "তিরানব্বই", "চুরানব্বই", "পঁচানব্বই", "ছিয়ানব্বই", "সাতানব্বই", "আটানব্বই", "নিরানব্বই",
}

// Scale words.
const (
	wordHundred  = "শত"
	wordThousand = "হাজার"
	wordLakh     = "লাখ"
)

// TransliterateDigits converts Bengali digits in text to ASCII digits.
func TransliterateDigits(text string) string {
	return digitReplacer.Replace(text)
}

// IntegerToWords converts a non-negative integer into its Bangla word
// representation using the lakh system. Numbers outside the supported range
// are returned as digit strings.
func IntegerToWords(number int) string {
	if number < 0 || number > maxNumberForWords {
		return strconv.Itoa(number)
	}

	if number == 0 {
		return underHundred[0]
	}

	var parts []string

	remaining := number

	if lakhs := remaining / numberBaseLakh; lakhs > 0 {
		parts = append(parts, underHundred[lakhs]+" "+wordLakh)
		remaining %= numberBaseLakh
	}

	if thousands := remaining / numberBaseThousand; thousands > 0 {
		parts = append(parts, underHundred[thousands]+" "+wordThousand)
		remaining %= numberBaseThousand
	}

	if hundreds := remaining / numberBaseHundred; hundreds > 0 {
		parts = append(parts, underHundred[hundreds]+" "+wordHundred)
		remaining %= numberBaseHundred
	}

	if remaining > 0 {
		parts = append(parts, underHundred[remaining])
	}

	return strings.Join(parts, " ")
}

// SpeakNumbers replaces every digit run in the text (ASCII or Bengali) with
// Bangla words so the synthesizer says "একশত বিশ" instead of reading "120"
// digit by digit. Only the spoken form is affected; callers keep the original
// text for display.
func SpeakNumbers(text string) string {
	return digitRunPattern.ReplaceAllStringFunc(text, func(match string) string {
		ascii := TransliterateDigits(match)

		number, err := strconv.Atoi(ascii)
		if err != nil {
			return match
		}

		return IntegerToWords(number)
	})
}
