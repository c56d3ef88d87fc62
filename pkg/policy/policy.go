// Package policy decides which tracked domains need the operator's attention.
package policy

import (
	"time"

	"github.com/mallocator/domain-expiry/pkg/record"
)

// IsSoonToExpire reports whether rec should be flagged: unregistered domains
// always are, registered ones when they expire on or before
// referenceDate + windowDays.
func IsSoonToExpire(rec record.Record, windowDays int, referenceDate time.Time) bool {
	if !rec.Registered || rec.ExpiresOn == nil {
		return true
	}
	cutoff := record.Date(referenceDate).AddDate(0, 0, windowDays)
	return !record.Date(*rec.ExpiresOn).After(cutoff)
}

// Policy evaluates records against a fixed window relative to the current date.
type Policy struct {
	WindowDays int

	// Now defaults to time.Now
	Now func() time.Time
}

// New creates a policy using the wall clock.
func New(windowDays int) *Policy {
	return &Policy{WindowDays: windowDays, Now: time.Now}
}

// Evaluate applies IsSoonToExpire with today's date.
func (p *Policy) Evaluate(rec record.Record) bool {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return IsSoonToExpire(rec, p.WindowDays, now())
}
