// ABOUTME: Post-processing of raw model output into clean question candidates
// ABOUTME: Strips numbering and list markers, validates shape and length

package generate

import (
	"regexp"
	"strings"
)

// Question validity bounds, measured on the cleaned text.
const (
	MinQuestionLength = 15
	MaxQuestionLength = 500
)

var (
	numberingPrefix  = regexp.MustCompile(`^[0-9]+[.)]\s*`)
	listMarkerPrefix = regexp.MustCompile(`^[-*]\s*`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	questionShape    = regexp.MustCompile(`^[A-Za-z].*\?$`)
)

// validStarts are the accepted opening words for a generated question.
var validStarts = []string{"how", "what", "why"}

// ValidQuestion reports whether a cleaned line meets the quality bar for a
// question: sane length, starts with How/What/Why, ends with a question
// mark.
func ValidQuestion(text string) bool {
	if len(text) < MinQuestionLength || len(text) > MaxQuestionLength {
		return false
	}
	if !questionShape.MatchString(text) {
		return false
	}
	lower := strings.ToLower(text)
	for _, start := range validStarts {
		if strings.HasPrefix(lower, start) {
			return true
		}
	}
	return false
}

// cleanLine normalizes one raw output line into candidate form.
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = numberingPrefix.ReplaceAllString(line, "")
	line = listMarkerPrefix.ReplaceAllString(line, "")
	line = strings.Trim(line, `"`)
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(line), " ")
}

// Candidates extracts every valid question from raw model output, one per
// line, preserving output order. Lines that fail validation are dropped.
func Candidates(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		cleaned := cleanLine(line)
		if ValidQuestion(cleaned) {
			out = append(out, cleaned)
		}
	}
	return out
}

// FirstQuestion returns the first valid question in raw model output, or
// "" when none survives cleaning.
func FirstQuestion(raw string) string {
	candidates := Candidates(raw)
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}

// CleanAnswer normalizes a raw answer: trims whitespace and surrounding
// quotes but otherwise leaves the prose alone.
func CleanAnswer(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), `"`)
}
