package pack

import (
	"regexp"
	"strings"
)

// replacements maps characters that commonly break legacy encodings onto
// ASCII stand-ins.
var replacements = strings.NewReplacer(
	"\u2013", "-",
	"\u2014", "-",
	"\u00a0", " ",
	"\u26a1", "[!]",
	"\U0001F680", "[rocket]",
	"\U0001F44B", "[wave]",
	"\u2728", "[sparkles]",
	"\U0001F4A5", "[boom]",
	"\U0001F525", "[fire]",
	"\u2b50", "[star]",
	"\U0001F31F", "[glowing-star]",
)

// controlChars are stripped from every generated file. Tab, LF and CR survive.
var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)

// Sanitize applies the replacement table and strips control characters.
// Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	return controlChars.ReplaceAllString(replacements.Replace(s), "")
}

// SanitizeAggressive is the last-resort form used when a sanitized write still
// cannot be encoded. Emoji become "[emoji]", other non-ASCII runes "?", and
// anything left outside printable ASCII becomes a space. Line structure
// (tab, LF, CR) is kept so the generated sources stay readable.
func SanitizeAggressive(s string) string {
	s = Sanitize(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(r)
		case r > 0x1F600:
			b.WriteString("[emoji]")
		case r > 0x7f:
			b.WriteByte('?')
		case r < 32 || r > 126:
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
