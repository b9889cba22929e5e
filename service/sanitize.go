package service

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer reduces submitted values to plain text.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text strips markup and control characters and collapses whitespace to single spaces.
func (s *Sanitizer) Text(value string) string {
	return strings.Join(strings.Fields(s.plain(value)), " ")
}

// Textarea is Text applied per line, keeping line breaks.
func (s *Sanitizer) Textarea(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	lines := strings.Split(s.strip(value), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(stripControl(line)), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Email drops everything that cannot appear in an address.
func (s *Sanitizer) Email(value string) string {
	value = s.plain(value)
	return strings.Map(func(r rune) rune {
		if r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@.!#$%&'*+/=?^_`{|}~-", r)) {
			return r
		}
		return -1
	}, value)
}

func (s *Sanitizer) plain(value string) string {
	return stripControl(s.strip(value))
}

// maxStripPasses bounds how many layers of entity encoding are unwrapped.
const maxStripPasses = 5

// strip removes markup, including markup hidden behind entity encoding, and
// returns unescaped text. Newlines are kept.
func (s *Sanitizer) strip(value string) string {
	out := s.policy.Sanitize(value)
	for i := 0; i < maxStripPasses; i++ {
		next := s.policy.Sanitize(html.UnescapeString(out))
		if next == out {
			return html.UnescapeString(out)
		}
		out = next
	}
	// Still decoding into new markup; drop the brackets outright
	return strings.NewReplacer("<", "", ">", "").Replace(html.UnescapeString(out))
}

func stripControl(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
}
