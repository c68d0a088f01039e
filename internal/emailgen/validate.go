package emailgen

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Content bounds for an accepted email
const (
	MinBodyWords     = 50
	MaxBodyWords     = 550
	MinSubjectLength = 5
	MaxSubjectLength = 100
)

// placeholderTokens are lower-case substrings that betray an unfinished template
var placeholderTokens = []string{
	"[your name]",
	"[insert",
	"[name]",
	"[email]",
	"[company]",
	"[details]",
	"xxx",
	"placeholder",
}

// Verdict is the outcome of content validation
type Verdict struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons,omitempty"`
}

func (v Verdict) String() string {
	if v.Valid {
		return "valid"
	}
	return strings.Join(v.Reasons, "; ")
}

// Validate checks a parsed email against the placeholder blacklist and the
// word and subject length bounds. Rejection is a verdict, not an error.
func Validate(subject, body string) Verdict {
	var reasons []string

	content := strings.ToLower(subject + " " + body)
	for _, token := range placeholderTokens {
		if strings.Contains(content, token) {
			reasons = append(reasons, fmt.Sprintf("contains placeholder %q", token))
		}
	}

	if words := len(strings.Fields(body)); words < MinBodyWords || words > MaxBodyWords {
		reasons = append(reasons, fmt.Sprintf("body has %d words, want %d-%d", words, MinBodyWords, MaxBodyWords))
	}

	if n := utf8.RuneCountInString(subject); n < MinSubjectLength || n > MaxSubjectLength {
		reasons = append(reasons, fmt.Sprintf("subject has %d characters, want %d-%d", n, MinSubjectLength, MaxSubjectLength))
	}

	return Verdict{Valid: len(reasons) == 0, Reasons: reasons}
}
