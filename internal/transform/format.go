package transform

import (
	"strings"
	"time"
	"unicode"

	"github.com/dsillex/formfill/internal/models"
)

// dateLayouts are tried in order when parsing a date for reformatting.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"02 Jan 2006",
}

// dateTokens maps pattern tokens to Go reference layouts, longest first so
// "MM" is not consumed as two "M"s.
var dateTokens = []struct{ token, layout string }{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"DD", "02"},
	{"YY", "06"},
	{"M", "1"},
	{"D", "2"},
}

// applyFormat applies the optional format sub-steps in order: date reformat,
// phone reformat, SSN reformat, case transform, then prefix/suffix.
func applyFormat(value any, cfg *models.FormatConfig) string {
	s := Stringify(value)
	if cfg.DateFormat != "" {
		s = reformatDate(s, cfg.DateFormat)
	}
	if cfg.PhoneFormat != "" {
		s = applyDigitPattern(s, cfg.PhoneFormat, 10)
	}
	if cfg.SSNFormat != "" {
		s = applyDigitPattern(s, cfg.SSNFormat, 9)
	}
	switch cfg.Case {
	case "upper":
		s = strings.ToUpper(s)
	case "lower":
		s = strings.ToLower(s)
	case "title":
		s = titleCase(s)
	case "sentence":
		s = sentenceCase(s)
	}
	return cfg.Prefix + s + cfg.Suffix
}

// reformatDate parses s as a date and renders it in the target token pattern
// (e.g. "MM/DD/YYYY"). On parse failure the string is returned untouched.
func reformatDate(s, pattern string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	var parsed time.Time
	ok := false
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			parsed, ok = t, true
			break
		}
	}
	if !ok {
		return s
	}
	return parsed.Format(tokenLayout(pattern))
}

func tokenLayout(pattern string) string {
	out := pattern
	for _, t := range dateTokens {
		out = strings.ReplaceAll(out, t.token, t.layout)
	}
	return out
}

// applyDigitPattern fills '#' slots in pattern with the digits of s, but only
// when s contains exactly wantDigits digits; otherwise s passes through
// unformatted ("555-1234" is not a phone number, leave it alone).
func applyDigitPattern(s, pattern string, wantDigits int) string {
	var digits []rune
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) != wantDigits {
		return s
	}
	var b strings.Builder
	i := 0
	for _, r := range pattern {
		if r == '#' && i < len(digits) {
			b.WriteRune(digits[i])
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// titleCase capitalizes each whitespace-delimited token, lowercasing the
// rest, preserving the original spacing.
func titleCase(s string) string {
	var b strings.Builder
	startOfWord := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			startOfWord = true
			b.WriteRune(r)
			continue
		}
		if startOfWord {
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// sentenceCase capitalizes only the first character.
func sentenceCase(s string) string {
	for i, r := range s {
		return s[:i] + string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}
