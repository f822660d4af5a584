package fetch

import (
	"regexp"
	"strings"
	"time"
)

// dateLayouts is the ordered list of deadline formats seen across
// government procurement sites. Order matters: unambiguous formats
// first, two-digit years last.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2-Jan-2006",
	"2006/01/02",
	"01/02/06",
}

var (
	dateRe  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2},? \d{4}|\d{1,2}-(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)-\d{4}`)
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]\d{4}`)
)

// ParseDate extracts a date from free text. It cleans common label
// prefixes, tries each known layout against the whole string, and
// falls back to scanning for a date-like substring.
func ParseDate(text string) (time.Time, bool) {
	s := CleanText(text)
	for _, prefix := range []string{"Due:", "Due Date:", "Deadline:", "Closes:", "Closing Date:", "Bid Opening:"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			s = strings.TrimSpace(rest)
			break
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Dates buried in longer text ("Proposals due January 5, 2026 at 2pm").
	if m := CleanText(dateRe.FindString(s)); m != "" && m != s {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, m); err == nil {
				return t, true
			}
			// Month-name matches may lack the comma the layout expects.
			if t, err := time.Parse(strings.ReplaceAll(layout, ",", ""), m); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// ExtractEmails returns all email addresses found in text, first
// occurrence order, deduplicated.
func ExtractEmails(text string) []string {
	matches := emailRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		lower := strings.ToLower(m)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, m)
	}
	return out
}

// ExtractPhone returns the first US phone number found in text.
func ExtractPhone(text string) (string, bool) {
	m := phoneRe.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(m), true
}

// cleaningKeywords is the fixed relevance vocabulary. Matching is
// case-insensitive substring matching; no scoring beyond presence.
var cleaningKeywords = []string{
	"janitorial",
	"custodial",
	"cleaning",
	"housekeeping",
	"sanitation",
	"sanitization",
	"floor care",
	"carpet clean",
	"window washing",
	"day porter",
	"porter service",
	"disinfect",
}

// ContainsCleaningKeyword reports whether text mentions any of the
// cleaning-service keywords this engine collects contracts for.
func ContainsCleaningKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range cleaningKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
