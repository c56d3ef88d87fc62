// Package dns provides the SOA delegation probe used to confirm unregistered domains
package dns

import (
	"context"
	"fmt"
	"net"

	"github.com/miekg/dns"

	"github.com/mallocator/domain-expiry/pkg/config"
	"github.com/mallocator/domain-expiry/pkg/logger"
)

const (
	resolvConf         = "/etc/resolv.conf"
	fallbackNameserver = "8.8.8.8:53"
)

// Checker handles DNS operations
type Checker struct {
	cfg    *config.Config
	log    *logger.Logger
	client *dns.Client
}

// New creates a new DNS checker
func New(cfg *config.Config, log *logger.Logger) *Checker {
	return &Checker{
		cfg:    cfg,
		log:    log,
		client: &dns.Client{Net: "udp", Timeout: cfg.LookupTimeout},
	}
}

// HasSOA asks the configured resolver for the SOA record of domain.
// NXDOMAIN and empty answers both mean the zone is not delegated.
func (c *Checker) HasSOA(ctx context.Context, domain string) (bool, error) {
	server := c.nameserver()

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeSOA)
	msg.RecursionDesired = true

	c.log.Debugf("SOA query for %s via %s", domain, server)
	resp, _, err := c.client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return false, fmt.Errorf("SOA query for %s failed: %w", domain, err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
		return hasSOA(resp), nil
	case dns.RcodeNameError:
		return false, nil
	default:
		return false, fmt.Errorf("SOA query for %s returned %s", domain, dns.RcodeToString[resp.Rcode])
	}
}

// hasSOA reports whether the answer section holds an SOA record
func hasSOA(resp *dns.Msg) bool {
	for _, rr := range resp.Answer {
		if _, ok := rr.(*dns.SOA); ok {
			return true
		}
	}
	return false
}

// nameserver returns the configured resolver, the first resolv.conf entry, or a public fallback
func (c *Checker) nameserver() string {
	if c.cfg.Nameserver != "" {
		return withPort(c.cfg.Nameserver)
	}

	conf, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil || len(conf.Servers) == 0 {
		c.log.Debugf("No usable resolver in %s, using %s", resolvConf, fallbackNameserver)
		return fallbackNameserver
	}
	return net.JoinHostPort(conf.Servers[0], conf.Port)
}

func withPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, "53")
}
