package ir

import (
	"strings"
	"unicode"
)

// Identifier converts a spec name (channel path, property name, message
// key) into an exported Go identifier. The conversion is total: it splits
// on every non-alphanumeric rune, upper-cases the first letter of each
// token, and keeps interior capitalization so camelCase inputs survive.
// "user/signedup" becomes UserSignedup, "display_name" becomes DisplayName.
func Identifier(name string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" {
		return ""
	}
	// Identifiers cannot start with a digit.
	if unicode.IsDigit(rune(out[0])) {
		out = "N" + out
	}
	return out
}
