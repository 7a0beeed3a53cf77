package orders

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhone indicates that a raw phone string could not be normalized
// into an E.164 Bangladeshi number.
var ErrInvalidPhone = errors.New("invalid or missing phone number")

var nonDigitPattern = regexp.MustCompile(`\D`)

// Lengths of the accepted Bangladeshi number shapes.
const (
	lenWithCountryCode = 13 // 8801712345678
	lenLocalMobile     = 11 // 01712345678
	lenBareMobile      = 10 // 1712345678
	minIntlDigits      = 11
)

// NormalizePhone normalizes Bangladeshi numbers into E.164 for the telephony
// provider. Accepted shapes:
//
//	"01712-345678"   -> "+8801712345678"
//	"+8801712345678" -> "+8801712345678"
//	"8801712345678"  -> "+8801712345678"
//	"1712345678"     -> "+8801712345678"
func NormalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", ErrInvalidPhone
	}

	digits := nonDigitPattern.ReplaceAllString(raw, "")

	// Already has country code 880.
	if strings.HasPrefix(digits, "880") && len(digits) == lenWithCountryCode {
		return "+" + digits, nil
	}

	// Local 11-digit mobile starting with 0, e.g. 017xxxxxxxx.
	if strings.HasPrefix(digits, "0") && len(digits) == lenLocalMobile {
		return "+88" + digits, nil
	}

	// 10-digit without the leading 0, e.g. 1712345678.
	if strings.HasPrefix(digits, "1") && len(digits) == lenBareMobile {
		return "+880" + digits, nil
	}

	// If the original had a '+' and enough digits, keep it as-is.
	if strings.HasPrefix(strings.TrimSpace(raw), "+") && len(digits) >= minIntlDigits {
		return "+" + digits, nil
	}

	return "", ErrInvalidPhone
}
