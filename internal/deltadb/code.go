package deltadb

import "strings"

const wordLen = 8

// CanonicalCode normalizes a cheat code for comparison and storage. All
// whitespace is removed, an odd digit count is padded with a trailing '0' and
// the digits are regrouped into 8-character words, one per line:
//
//	CanonicalCode("02012345 00002710") == "02012345\n00002710"
//
// CanonicalCode is idempotent.
func CanonicalCode(code string) string {
	digits := strings.Join(strings.Fields(code), "")
	if digits == "" {
		return ""
	}
	if len(digits)%2 == 1 {
		digits += "0"
	}

	words := make([]string, 0, len(digits)/wordLen+1)
	for len(digits) > wordLen {
		words = append(words, digits[:wordLen])
		digits = digits[wordLen:]
	}
	words = append(words, digits)
	return strings.Join(words, "\n")
}
