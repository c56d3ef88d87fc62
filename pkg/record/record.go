// Package record defines the values shared by the lookup, storage and reporting
// packages: the tracked domain record, the transient lookup result and the error
// taxonomy of the checker.
package record

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the storage and log format for expiration dates.
const DateLayout = "2006-01-02"

// DefaultTLDs are the top-level domains accepted when none are configured.
var DefaultTLDs = []string{"com", "us", "net", "org", "info", "biz", "co.uk", "kr"}

var (
	// ErrInvalidHostname is returned when a hostname fails the allowed-TLD pattern.
	ErrInvalidHostname = errors.New("invalid hostname format")

	// ErrDuplicateHostname is returned when adding a domain that is already tracked.
	ErrDuplicateHostname = errors.New("domain is already being tracked")

	// ErrNotFound is returned when updating or deleting an untracked domain.
	ErrNotFound = errors.New("domain is not being monitored")

	// ErrLookupFailed marks network, protocol and parse failures of a lookup.
	ErrLookupFailed = errors.New("domain lookup failed")
)

// Record is one monitored hostname and its last known registration state.
type Record struct {
	// Hostname never changes once the record exists
	Hostname string

	// Registered reports whether the domain has an active registration
	Registered bool

	// ExpiresOn is the expiration date at UTC midnight, nil iff not registered
	ExpiresOn *time.Time
}

// New builds a record, keeping ExpiresOn consistent with Registered.
func New(hostname string, registered bool, expiresOn *time.Time) (Record, error) {
	if registered && expiresOn == nil {
		return Record{}, fmt.Errorf("registered domain %s has no expiration date", hostname)
	}
	if !registered && expiresOn != nil {
		return Record{}, fmt.Errorf("unregistered domain %s cannot have an expiration date", hostname)
	}
	rec := Record{Hostname: hostname, Registered: registered}
	if expiresOn != nil {
		d := Date(*expiresOn)
		rec.ExpiresOn = &d
	}
	return rec, nil
}

// ExpiresString returns the expiration date in DateLayout or "N/A".
func (r Record) ExpiresString() string {
	if r.ExpiresOn == nil {
		return "N/A"
	}
	return r.ExpiresOn.Format(DateLayout)
}

// Date truncates t to its calendar date at UTC midnight, keeping the
// year/month/day as seen in t's own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validator checks hostnames against a set of allowed top-level domains.
type Validator struct {
	pattern *regexp.Regexp
}

// NewValidator compiles the hostname pattern for the given TLDs.
// An empty list falls back to DefaultTLDs.
func NewValidator(tlds []string) *Validator {
	if len(tlds) == 0 {
		tlds = DefaultTLDs
	}
	quoted := make([]string, 0, len(tlds))
	for _, tld := range tlds {
		tld = strings.Trim(strings.ToLower(strings.TrimSpace(tld)), ".")
		if tld == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(tld))
	}
	return &Validator{
		pattern: regexp.MustCompile(`^([a-zA-Z0-9-]+)\.(` + strings.Join(quoted, "|") + `)$`),
	}
}

// Validate returns ErrInvalidHostname unless hostname is a bare registrable
// name such as "example.com" (no subdomains, no "www.").
func (v *Validator) Validate(hostname string) error {
	if !v.pattern.MatchString(hostname) {
		return fmt.Errorf("%w: %q, use the form example.com and leave off any www", ErrInvalidHostname, hostname)
	}
	return nil
}
