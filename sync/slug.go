package sync

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugCharMap = map[rune]string{
	'&': "and", '|': "or", '<': "less", '>': "greater",
	'$': "dollar", '%': "percent", '¢': "cent", '€': "euro", '£': "pound", '¥': "yen",
	'©': "(c)", '®': "(r)", '™': "tm", '∞': "infinity", '♥': "love",
	'ß': "ss", 'æ': "ae", 'Æ': "AE", 'œ': "oe", 'Œ': "OE", 'ø': "o", 'Ø': "O",
	'đ': "d", 'Đ': "D", 'ł': "l", 'Ł': "L", 'þ': "th", 'Þ': "TH",
}

var (
	slugDisallowed  = regexp.MustCompile(`[^A-Za-z0-9_\s$*+~.()'"!\-:@]`)
	slugSeparators  = regexp.MustCompile(`[-\s]+`)
	slugPunctuation = regexp.MustCompile(`[*+~.()'"!:@&]`)
)

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Slugify turns a label into a lower case identifier joined by underscores.
// It returns false when nothing usable is left.
func Slugify(label string) (string, bool) {
	var b strings.Builder
	for _, r := range label {
		if m, ok := slugCharMap[r]; ok {
			b.WriteString(m)
			continue
		}
		b.WriteRune(r)
	}
	s := foldAccents(b.String())
	s = slugDisallowed.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugSeparators.ReplaceAllString(s, "_")
	s = slugPunctuation.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	return s, s != ""
}
