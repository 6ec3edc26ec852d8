// Package engine – input validation
//
// This file implements the parsing and normalization rules for dialogue
// input: calendar-checked DD/MM/YYYY dates, HH:MM times, Brazilian phone
// numbers, and diacritic-insensitive keyword folding (so NÃO and NAO, OLÁ
// and OLA compare equal).
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const minNameLen = 3

var (
	dateRE  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	timeRE  = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	digitRE = regexp.MustCompile(`\D`)
)

// foldTransformer strips combining marks after NFD decomposition, leaving
// plain ASCII for accented Latin input.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold uppercases and removes diacritics for keyword comparison.
func fold(s string) string {
	out, _, err := transform.String(foldTransformer, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return strings.ToUpper(out)
}

// parseDate validates a DD/MM/YYYY input for calendar correctness and
// normalizes it to YYYY-MM-DD. The empty string return signals rejection;
// day 31 of a 30-day month and non-leap Feb 29 are both rejected.
func parseDate(input string) string {
	m := dateRE.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return ""
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// formatDate renders a stored YYYY-MM-DD date back to DD/MM/YYYY for
// user-facing messages. Round-trips parseDate exactly.
func formatDate(date string) string {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) != 3 {
		return date
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}

// parseTime validates an H:MM / HH:MM input (hours 0–23, minutes 0–59) and
// normalizes to two-digit zero-padded HH:MM. Empty string signals rejection.
func parseTime(input string) string {
	m := timeRE.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return ""
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// normalizePhone strips every non-digit and reformats 11-digit numbers as
// (DD) NNNNN-NNNN and 10-digit numbers as (DD) NNNN-NNNN. Anything else is
// rejected with the empty string. Normalization is idempotent: feeding a
// display-form number back in yields the same string.
func normalizePhone(input string) string {
	digits := digitRE.ReplaceAllString(input, "")
	switch len(digits) {
	case 11:
		return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
	case 10:
		return "(" + digits[:2] + ") " + digits[2:6] + "-" + digits[6:]
	default:
		return ""
	}
}

// validName enforces the minimum length rule shared by the requester and
// companion name states.
func validName(input string) bool {
	return len(strings.TrimSpace(input)) >= minNameLen
}
