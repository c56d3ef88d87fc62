// Package expdate parses the expiration date strings returned by whois and
// RDAP services into calendar dates.
package expdate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mallocator/domain-expiry/pkg/record"
)

// DateFormatError is returned when no known grammar accepts the input.
type DateFormatError struct {
	Raw string
	Err error
}

func (e *DateFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unrecognized expiration date %q: %v", e.Raw, e.Err)
	}
	return fmt.Sprintf("unrecognized expiration date %q", e.Raw)
}

func (e *DateFormatError) Unwrap() error {
	return e.Err
}

// grammar pairs a structural matcher with the layout used once it matches.
type grammar struct {
	name   string
	match  *regexp.Regexp
	layout string
}

// Grammars are tried in order; the first matcher that accepts the input wins.
var grammars = []grammar{
	{
		// 05-jan-2025
		name:   "compact",
		match:  regexp.MustCompile(`^\d{1,2}-[A-Za-z]{3}-\d{4}$`),
		layout: "2-Jan-2006",
	},
	{
		// Sun Jan 05 00:00:00 GMT 2025
		name:   "verbose",
		match:  regexp.MustCompile(`^[A-Za-z]{3} [A-Za-z]{3} [ \d]\d \d{2}:\d{2}:\d{2} [A-Za-z]{1,5} \d{4}$`),
		layout: "Mon Jan _2 15:04:05 MST 2006",
	},
	{
		// 2025-01-05
		name:   "iso-date",
		match:  regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		layout: "2006-01-02",
	},
	{
		// 2025-01-05T12:00:00Z, 2025-01-05T12:00:00.123+02:00
		name:   "rfc3339",
		match:  regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),
		layout: time.RFC3339,
	},
	{
		// 2028-09-13T00:00:00-0700 (MarkMonitor)
		name:   "iso-offset",
		match:  regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?[+-]\d{4}$`),
		layout: "2006-01-02T15:04:05-0700",
	},
	{
		// 2025-01-05 12:00:00
		name:   "iso-datetime",
		match:  regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`),
		layout: "2006-01-02 15:04:05",
	},
	{
		// 2025/01/05
		name:   "slashed",
		match:  regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`),
		layout: "2006/01/02",
	},
	{
		// 2025.01.05 12:00:00
		name:   "dotted",
		match:  regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2} \d{2}:\d{2}:\d{2}$`),
		layout: "2006.01.02 15:04:05",
	},
	{
		// 2020. 03. 02. (KRNIC)
		name:   "krnic",
		match:  regexp.MustCompile(`^\d{4}\. \d{2}\. \d{2}\.$`),
		layout: "2006. 01. 02.",
	},
}

// Parse returns the calendar date (UTC midnight) written in raw.
// The date is taken as written; time zones in the input are not applied.
func Parse(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, g := range grammars {
		if !g.match.MatchString(s) {
			continue
		}
		t, err := time.Parse(g.layout, s)
		if err != nil {
			return time.Time{}, &DateFormatError{Raw: raw, Err: fmt.Errorf("%s layout: %w", g.name, err)}
		}
		return record.Date(t), nil
	}
	return time.Time{}, &DateFormatError{Raw: raw}
}
