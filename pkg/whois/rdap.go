package whois

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openrdap/rdap"

	"github.com/mallocator/domain-expiry/pkg/config"
	"github.com/mallocator/domain-expiry/pkg/logger"
	"github.com/mallocator/domain-expiry/pkg/record"
)

// RDAPChecker looks domains up through RDAP instead of port-43 whois
type RDAPChecker struct {
	client *rdap.Client
	log    *logger.Logger
}

// NewRDAP creates an RDAP checker using IANA bootstrap
func NewRDAP(cfg *config.Config, log *logger.Logger) *RDAPChecker {
	return &RDAPChecker{
		client: &rdap.Client{HTTP: &http.Client{Timeout: cfg.LookupTimeout}},
		log:    log,
	}
}

// Lookup performs one RDAP domain query
func (c *RDAPChecker) Lookup(ctx context.Context, hostname string) record.LookupResult {
	c.log.Debugf("RDAP query for %s", hostname)

	resp, err := c.client.Do(rdap.NewDomainRequest(hostname).WithContext(ctx))
	if err != nil {
		return classifyRDAP(nil, err)
	}

	d, ok := resp.Object.(*rdap.Domain)
	if !ok {
		return record.FailedResult(fmt.Sprintf("unexpected RDAP response type %T", resp.Object))
	}
	return classifyRDAP(d, nil)
}

func classifyRDAP(d *rdap.Domain, err error) record.LookupResult {
	if err != nil {
		var ce *rdap.ClientError
		if errors.As(err, &ce) && ce.Type == rdap.ObjectDoesNotExist {
			return record.UnregisteredResult()
		}
		return record.FailedResult(fmt.Sprintf("rdap query failed: %v", err))
	}
	if d == nil {
		return record.FailedResult("rdap returned no domain object")
	}

	for _, ev := range d.Events {
		if strings.EqualFold(ev.Action, "expiration") && strings.TrimSpace(ev.Date) != "" {
			return record.RegisteredResult(strings.TrimSpace(ev.Date))
		}
	}

	actions := make([]string, 0, len(d.Events))
	for _, ev := range d.Events {
		actions = append(actions, ev.Action)
	}
	return record.FailedResult(fmt.Sprintf("rdap record for %s has no expiration event (events: %s)",
		d.LDHName, strings.Join(actions, ", ")))
}

var (
	_ Lookuper = (*Checker)(nil)
	_ Lookuper = (*RDAPChecker)(nil)
)
