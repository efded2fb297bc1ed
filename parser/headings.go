package parser

import (
	"strings"
	"unicode"
)

// DetectHeadings scans page text for lines that look like headings.
// Markdown heading markers are recognized directly; for other text a short
// line with no sentence terminator that starts with an upper-case letter
// is treated as a heading candidate.
func DetectHeadings(text string) []string {
	var headings []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			heading := strings.TrimSpace(strings.TrimLeft(line, "#"))
			if heading != "" {
				headings = append(headings, heading)
			}
			continue
		}

		if looksLikeHeading(line) {
			headings = append(headings, line)
		}
	}
	return headings
}

func looksLikeHeading(line string) bool {
	if len(line) > 80 {
		return false
	}
	if strings.ContainsAny(line, ".!?") {
		return false
	}

	runes := []rune(line)
	if !unicode.IsUpper(runes[0]) {
		return false
	}

	// Headings are short: a handful of words at most
	return len(strings.Fields(line)) <= 8
}
