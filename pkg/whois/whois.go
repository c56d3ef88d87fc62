// Package whois provides WHOIS and RDAP lookups for the domain checker application
package whois

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"github.com/mallocator/domain-expiry/pkg/config"
	"github.com/mallocator/domain-expiry/pkg/logger"
	"github.com/mallocator/domain-expiry/pkg/record"
)

// Lookuper classifies a hostname with a single registry query
type Lookuper interface {
	Lookup(ctx context.Context, hostname string) record.LookupResult
}

// Querier fetches the raw whois response for a domain
type Querier interface {
	Query(ctx context.Context, domain string) (string, error)
}

// DelegationProber reports whether a zone is delegated (has an SOA record)
type DelegationProber interface {
	HasSOA(ctx context.Context, domain string) (bool, error)
}

// ClientQuerier queries whois servers through likexian/whois
type ClientQuerier struct {
	client *whois.Client
}

// NewClientQuerier creates a querier whose connections time out after timeout
func NewClientQuerier(timeout time.Duration) *ClientQuerier {
	client := whois.NewClient()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &ClientQuerier{client: client}
}

// Query performs a single whois query. The client has no context support, so
// cancellation only releases the caller; the socket is bounded by the timeout.
func (q *ClientQuerier) Query(ctx context.Context, domain string) (string, error) {
	type result struct {
		raw string
		err error
	}
	ch := make(chan result, 1)

	go func() {
		raw, err := q.client.Whois(domain)
		ch <- result{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.raw, res.err
	}
}

// Checker handles WHOIS operations
type Checker struct {
	cfg     *config.Config
	log     *logger.Logger
	querier Querier
	prober  DelegationProber
}

// New creates a new WHOIS checker backed by the public whois servers
func New(cfg *config.Config, log *logger.Logger) *Checker {
	return &Checker{
		cfg:     cfg,
		log:     log,
		querier: NewClientQuerier(cfg.LookupTimeout),
	}
}

// SetQuerier replaces the whois transport
func (c *Checker) SetQuerier(q Querier) {
	c.querier = q
}

// SetProber enables the SOA cross-check for "no match" answers
func (c *Checker) SetProber(p DelegationProber) {
	c.prober = p
}

// Lookup performs exactly one whois query for hostname and classifies it.
// Failures are reported in the result, never as a Go error.
func (c *Checker) Lookup(ctx context.Context, hostname string) record.LookupResult {
	c.log.Debugf("WHOIS query for %s", hostname)

	raw, err := c.querier.Query(ctx, hostname)
	if err != nil {
		c.log.Debugf("WHOIS query for %s failed: %v", hostname, err)
		return record.FailedResult(fmt.Sprintf("whois query failed: %v", err))
	}

	return c.classify(ctx, hostname, raw)
}

func (c *Checker) classify(ctx context.Context, hostname, raw string) record.LookupResult {
	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		if errors.Is(err, whoisparser.ErrNotFoundDomain) {
			return c.confirmUnregistered(ctx, hostname, raw)
		}
		c.log.Debugf("WHOIS parse failed for %s: %v", hostname, err)
		return record.FailedResult(withResponse(err.Error(), raw))
	}

	if parsed.Domain == nil {
		return record.FailedResult(withResponse("whois response has no domain section", raw))
	}

	exp := firstValue(parsed.Domain.ExpirationDate)
	if exp == "" {
		return record.FailedResult(withResponse("whois response has no expiration date", raw))
	}

	return record.RegisteredResult(exp)
}

func (c *Checker) confirmUnregistered(ctx context.Context, hostname, raw string) record.LookupResult {
	if c.prober == nil {
		return record.UnregisteredResult()
	}

	delegated, err := c.prober.HasSOA(ctx, hostname)
	if err != nil {
		return record.FailedResult(withResponse(
			fmt.Sprintf("whois reports no match for %s but the SOA check failed: %v", hostname, err), raw))
	}
	if delegated {
		return record.FailedResult(withResponse(
			fmt.Sprintf("whois reports no match for %s but the zone has an SOA record", hostname), raw))
	}
	return record.UnregisteredResult()
}

// firstValue returns the first non-empty entry of a possibly comma-separated field
func firstValue(field string) string {
	for _, v := range strings.Split(field, ",") {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func withResponse(msg, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return msg
	}
	return msg + "\n---\n" + raw
}
