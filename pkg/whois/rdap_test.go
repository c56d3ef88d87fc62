package whois

import (
	"errors"
	"strings"
	"testing"

	"github.com/openrdap/rdap"

	"github.com/mallocator/domain-expiry/pkg/config"
	"github.com/mallocator/domain-expiry/pkg/logger"
	"github.com/mallocator/domain-expiry/pkg/record"
)

func TestClassifyRDAP(t *testing.T) {
	tests := []struct {
		name   string
		domain *rdap.Domain
		err    error
		want   record.Status
		raw    string
	}{
		{
			name: "expiration event",
			domain: &rdap.Domain{LDHName: "example.com", Events: []rdap.Event{
				{Action: "registration", Date: "1995-08-14T04:00:00Z"},
				{Action: "expiration", Date: "2025-08-13T04:00:00Z"},
			}},
			want: record.RegisteredStatus,
			raw:  "2025-08-13T04:00:00Z",
		},
		{
			name:   "no expiration event",
			domain: &rdap.Domain{LDHName: "example.com", Events: []rdap.Event{{Action: "last changed"}}},
			want:   record.LookupFailedStatus,
		},
		{
			name: "object does not exist",
			err:  &rdap.ClientError{Type: rdap.ObjectDoesNotExist, Text: "404"},
			want: record.UnregisteredStatus,
		},
		{
			name: "bootstrap miss",
			err:  &rdap.ClientError{Type: rdap.BootstrapNoMatch, Text: "no RDAP server"},
			want: record.LookupFailedStatus,
		},
		{
			name: "transport error",
			err:  errors.New("connection refused"),
			want: record.LookupFailedStatus,
		},
	}
	for _, tc := range tests {
		res := classifyRDAP(tc.domain, tc.err)
		if res.Status != tc.want {
			t.Errorf("%s: Status = %v, want %v", tc.name, res.Status, tc.want)
		}
		if res.RawExpiration != tc.raw {
			t.Errorf("%s: RawExpiration = %q, want %q", tc.name, res.RawExpiration, tc.raw)
		}
		if tc.want == record.LookupFailedStatus && strings.TrimSpace(res.FailureDetail) == "" {
			t.Errorf("%s: expected a failure detail", tc.name)
		}
	}
}

func TestNewRDAP(t *testing.T) {
	log := logger.New()
	cfg := config.New(log)

	c := NewRDAP(cfg, log)
	if c.client == nil || c.client.HTTP == nil {
		t.Fatalf("expected an RDAP client with an HTTP client")
	}
	if c.client.HTTP.Timeout != cfg.LookupTimeout {
		t.Errorf("HTTP timeout = %v, want %v", c.client.HTTP.Timeout, cfg.LookupTimeout)
	}
}
