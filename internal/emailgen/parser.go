package emailgen

import (
	"math"
	"strconv"
	"strings"
)

// DefaultProbability is reported when the probability marker is missing or unreadable
const DefaultProbability = 50

// ParsedEmail is the subject, body and self-rated probability of a generator response
type ParsedEmail struct {
	Subject     string
	Body        string
	Probability int
}

// ParseResponse extracts the email from raw generator text. The subject is the
// first line starting with the subject marker; body lines follow it up to the
// divider and are joined with blank lines. Returns ErrParseFailed when either
// part is empty.
func ParseResponse(text string) (ParsedEmail, error) {
	parsed := ParsedEmail{Probability: DefaultProbability}

	var bodyLines []string
	inBody, closed := false, false
	for _, raw := range strings.Split(strings.TrimSpace(text), "\n") {
		line := strings.TrimSpace(raw)

		if strings.Contains(line, ProbabilityMarker) {
			parsed.Probability = parseProbability(line)
			break
		}
		if !inBody {
			if strings.HasPrefix(line, SubjectMarker) {
				parsed.Subject = strings.TrimSpace(strings.TrimPrefix(line, SubjectMarker))
				inBody = true
			}
			continue
		}
		if closed || line == "" {
			continue
		}
		if strings.HasPrefix(line, DividerMarker) {
			closed = true
			continue
		}
		bodyLines = append(bodyLines, line)
	}

	parsed.Body = strings.TrimSpace(strings.Join(bodyLines, "\n\n"))
	if parsed.Subject == "" || parsed.Body == "" {
		return parsed, ErrParseFailed
	}
	return parsed, nil
}

// parseProbability reads the number after the last colon, e.g. "... PROBABILITY: [12%]"
func parseProbability(line string) int {
	value := line[strings.LastIndex(line, ":")+1:]
	value = strings.Trim(strings.TrimSpace(value), "[]%* ")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultProbability
	}
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	}
	return int(f)
}
