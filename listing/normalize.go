package listing

import (
	"regexp"
)

// EntryLength is the number of digits in a listing entry.
const EntryLength = 19

var (
	lineBreaks = regexp.MustCompile(`[\r\n]+`)
	nonDigits  = regexp.MustCompile(`\D`)
)

// Normalize splits body into lines, strips every non-digit from each line and
// keeps the lines left with exactly EntryLength digits, in their original
// order. Duplicates are kept.
func Normalize(body string) []string {
	var entries []string
	for _, line := range lineBreaks.Split(body, -1) {
		digits := nonDigits.ReplaceAllString(line, "")
		if len(digits) == EntryLength {
			entries = append(entries, digits)
		}
	}
	return entries
}
