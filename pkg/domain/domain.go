// Package domain provides domain processing functionality for the domain checker application
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mallocator/domain-expiry/pkg/config"
	"github.com/mallocator/domain-expiry/pkg/expdate"
	"github.com/mallocator/domain-expiry/pkg/logger"
	"github.com/mallocator/domain-expiry/pkg/notify"
	"github.com/mallocator/domain-expiry/pkg/policy"
	"github.com/mallocator/domain-expiry/pkg/record"
	"github.com/mallocator/domain-expiry/pkg/report"
	"github.com/mallocator/domain-expiry/pkg/state"
	"github.com/mallocator/domain-expiry/pkg/whois"
)

// MailSubject is the subject of the expiration notice
const MailSubject = "[domain-checker] Domains Expiring Soon"

// AbortError reports the lookup that stopped an operation. It matches
// record.ErrLookupFailed and, for unreadable dates, *expdate.DateFormatError.
type AbortError struct {
	Hostname string
	Detail   string
	Err      error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("failure to lookup domain %s", e.Hostname)
}

func (e *AbortError) Unwrap() []error {
	if e.Err != nil {
		return []error{record.ErrLookupFailed, e.Err}
	}
	return []error{record.ErrLookupFailed}
}

// Report is the outcome of a refresh pass
type Report struct {
	// Records written during the pass, in processing order
	Updated []record.Record

	// Records the expiration policy flagged, in processing order
	Flagged []record.Record
}

// Processor handles domain processing operations
type Processor struct {
	cfg       *config.Config
	log       *logger.Logger
	store     state.Store
	lookup    whois.Lookuper
	mailer    notify.Mailer
	validator *record.Validator
	now       func() time.Time
}

// New creates a new domain processor
func New(cfg *config.Config, log *logger.Logger, store state.Store,
	lookup whois.Lookuper, mailer notify.Mailer) *Processor {
	return &Processor{
		cfg:       cfg,
		log:       log,
		store:     store,
		lookup:    lookup,
		mailer:    mailer,
		validator: record.NewValidator(cfg.AllowedTLDs),
		now:       time.Now,
	}
}

// SetClock replaces the source of the reference date
func (p *Processor) SetClock(now func() time.Time) {
	p.now = now
}

// List returns every tracked record, soonest expiration first
func (p *Processor) List(ctx context.Context) ([]record.Record, error) {
	records, err := p.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	return records, nil
}

// Export returns the tracked hostnames, one per line
func (p *Processor) Export(ctx context.Context) (string, error) {
	records, err := p.List(ctx)
	if err != nil {
		return "", err
	}
	return report.Export(records), nil
}

// Add looks hostname up once and starts tracking it
func (p *Processor) Add(ctx context.Context, hostname string) (*record.Record, error) {
	hostname = normalize(hostname)
	if err := p.validator.Validate(hostname); err != nil {
		return nil, err
	}

	existing, err := p.store.Find(ctx, hostname)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s in the store: %w", hostname, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", record.ErrDuplicateHostname, hostname)
	}

	rec, err := p.resolve(ctx, hostname)
	if err != nil {
		return nil, err
	}
	if err := p.store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	p.log.Infof("%s added to monitoring list.", hostname)
	return &rec, nil
}

// Delete stops tracking hostname
func (p *Processor) Delete(ctx context.Context, hostname string) error {
	hostname = normalize(hostname)
	if err := p.validator.Validate(hostname); err != nil {
		return err
	}
	if err := p.store.Delete(ctx, hostname); err != nil {
		return err
	}

	p.log.Infof("%s removed from monitoring list.", hostname)
	return nil
}

// RefreshAndReport looks up every tracked domain in store order, writes each
// result before moving on, and collects the records the policy flags. The
// first failed lookup stops the pass; the partial report is returned with it.
func (p *Processor) RefreshAndReport(ctx context.Context, windowDays int) (*Report, error) {
	records, err := p.List(ctx)
	if err != nil {
		return nil, err
	}

	pol := &policy.Policy{WindowDays: windowDays, Now: p.now}
	rep := &Report{}

	p.log.Infof("Updating %d domains...", len(records))
	for _, tracked := range records {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		rec, err := p.resolve(ctx, tracked.Hostname)
		if err != nil {
			return rep, err
		}
		if err := p.store.Update(ctx, rec.Hostname, rec.Registered, rec.ExpiresOn); err != nil {
			return rep, fmt.Errorf("failed to update %s: %w", rec.Hostname, err)
		}

		p.log.Infof("%s (%s, %s)", rec.Hostname, statusOf(rec), rec.ExpiresString())
		rep.Updated = append(rep.Updated, rec)
		if pol.Evaluate(rec) {
			rep.Flagged = append(rep.Flagged, rec)
		}
	}

	return rep, nil
}

// Check refreshes every domain and mails the flagged ones. Mail problems are
// logged and do not fail the check.
func (p *Processor) Check(ctx context.Context, windowDays int) (*Report, error) {
	rep, err := p.RefreshAndReport(ctx, windowDays)
	if err != nil {
		return rep, err
	}
	if len(rep.Flagged) == 0 {
		p.log.Infof("No domains expiring soon")
		return rep, nil
	}

	msg := notify.Message{
		From:    p.cfg.EmailFrom,
		To:      p.cfg.EmailTo,
		Subject: MailSubject,
		Body:    report.Format(rep.Flagged),
	}
	if err := p.mailer.Send(ctx, msg); err != nil {
		p.log.Errorf("Failed to send expiration notice to %s: %v", msg.To, err)
	}

	return rep, nil
}

// resolve runs one lookup and turns it into a record
func (p *Processor) resolve(ctx context.Context, hostname string) (record.Record, error) {
	res := p.lookup.Lookup(ctx, hostname)

	switch res.Status {
	case record.UnregisteredStatus:
		return record.New(hostname, false, nil)
	case record.RegisteredStatus:
		expires, err := expdate.Parse(res.RawExpiration)
		if err != nil {
			var dfe *expdate.DateFormatError
			detail := err.Error()
			if errors.As(err, &dfe) {
				detail = fmt.Sprintf("unrecognized expiration date %q", dfe.Raw)
			}
			return record.Record{}, &AbortError{Hostname: hostname, Detail: detail, Err: err}
		}
		return record.New(hostname, true, &expires)
	default:
		p.log.Debugf("Lookup for %s failed: %s", hostname, res.FailureDetail)
		return record.Record{}, &AbortError{Hostname: hostname, Detail: res.FailureDetail}
	}
}

func statusOf(rec record.Record) record.Status {
	if rec.Registered {
		return record.RegisteredStatus
	}
	return record.UnregisteredStatus
}

func normalize(hostname string) string {
	return strings.ToLower(strings.TrimSpace(hostname))
}
