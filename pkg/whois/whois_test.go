package whois

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mallocator/domain-expiry/pkg/config"
	"github.com/mallocator/domain-expiry/pkg/expdate"
	"github.com/mallocator/domain-expiry/pkg/logger"
	"github.com/mallocator/domain-expiry/pkg/record"
)

const registeredResponse = `   Domain Name: EXAMPLE.COM
   Registry Domain ID: 2336799_DOMAIN_COM-VRSN
   Registrar WHOIS Server: whois.iana.org
   Registrar URL: http://res-dom.iana.org
   Updated Date: 2024-08-14T07:01:34Z
   Creation Date: 1995-08-14T04:00:00Z
   Registry Expiry Date: 2025-08-13T04:00:00Z
   Registrar: RESERVED-Internet Assigned Numbers Authority
   Registrar IANA ID: 376
   Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
   Name Server: A.IANA-SERVERS.NET
   Name Server: B.IANA-SERVERS.NET
   DNSSEC: signedDelegation
`

const noExpiryResponse = `   Domain Name: EXAMPLE.COM
   Registrar WHOIS Server: whois.iana.org
   Creation Date: 1995-08-14T04:00:00Z
   Registrar: RESERVED-Internet Assigned Numbers Authority
   Name Server: A.IANA-SERVERS.NET
`

const notFoundResponse = `No match for "NEVER-REGISTERED-XYZ.COM".
>>> Last update of whois database: 2024-09-01T10:00:00Z <<<
`

type stubQuerier struct {
	raw   string
	err   error
	calls int
}

func (s *stubQuerier) Query(ctx context.Context, domain string) (string, error) {
	s.calls++
	return s.raw, s.err
}

type stubProber struct {
	delegated bool
	err       error
	calls     int
}

func (s *stubProber) HasSOA(ctx context.Context, domain string) (bool, error) {
	s.calls++
	return s.delegated, s.err
}

func newChecker(q Querier) *Checker {
	log := logger.New()
	c := New(config.New(log), log)
	c.SetQuerier(q)
	return c
}

func TestNew(t *testing.T) {
	log := logger.New()
	cfg := config.New(log)

	checker := New(cfg, log)

	if checker == nil {
		t.Errorf("Expected New to return a non-nil Checker")
		return
	}
	if checker.cfg != cfg {
		t.Errorf("Expected checker.cfg to be %v, got %v", cfg, checker.cfg)
	}
	if checker.log != log {
		t.Errorf("Expected checker.log to be %v, got %v", log, checker.log)
	}
	if _, ok := checker.querier.(*ClientQuerier); !ok {
		t.Errorf("Expected default querier to be *ClientQuerier, got %T", checker.querier)
	}
	if checker.prober != nil {
		t.Errorf("Expected no prober by default")
	}
}

func TestLookupRegistered(t *testing.T) {
	q := &stubQuerier{raw: registeredResponse}
	res := newChecker(q).Lookup(context.Background(), "example.com")

	if res.Status != record.RegisteredStatus {
		t.Fatalf("Status = %v, want Registered (detail %q)", res.Status, res.FailureDetail)
	}
	if res.RawExpiration != "2025-08-13T04:00:00Z" {
		t.Errorf("RawExpiration = %q", res.RawExpiration)
	}
	if q.calls != 1 {
		t.Errorf("expected exactly one query, got %d", q.calls)
	}
}

func TestLookupUnregistered(t *testing.T) {
	res := newChecker(&stubQuerier{raw: notFoundResponse}).Lookup(context.Background(), "never-registered-xyz.com")

	if res.Status != record.UnregisteredStatus {
		t.Fatalf("Status = %v, want Not Registered (detail %q)", res.Status, res.FailureDetail)
	}
	if res.RawExpiration != "" || res.FailureDetail != "" {
		t.Errorf("unexpected fields on unregistered result: %+v", res)
	}
}

func TestLookupTransportErrorIsNotRetried(t *testing.T) {
	q := &stubQuerier{err: errors.New("dial tcp: i/o timeout")}
	res := newChecker(q).Lookup(context.Background(), "example.com")

	if res.Status != record.LookupFailedStatus {
		t.Fatalf("Status = %v, want Lookup Failed", res.Status)
	}
	if !strings.Contains(res.FailureDetail, "i/o timeout") {
		t.Errorf("FailureDetail = %q, want the transport error", res.FailureDetail)
	}
	if q.calls != 1 {
		t.Errorf("expected one query and no retries, got %d", q.calls)
	}
}

func TestLookupMissingExpiration(t *testing.T) {
	res := newChecker(&stubQuerier{raw: noExpiryResponse}).Lookup(context.Background(), "example.com")

	if res.Status != record.LookupFailedStatus {
		t.Fatalf("Status = %v, want Lookup Failed", res.Status)
	}
	if !strings.Contains(res.FailureDetail, "RESERVED-Internet Assigned Numbers Authority") {
		t.Errorf("FailureDetail should carry the raw response, got %q", res.FailureDetail)
	}
}

func TestLookupCrossCheck(t *testing.T) {
	tests := []struct {
		name   string
		prober *stubProber
		want   record.Status
	}{
		{"no SOA confirms", &stubProber{delegated: false}, record.UnregisteredStatus},
		{"SOA contradicts", &stubProber{delegated: true}, record.LookupFailedStatus},
		{"probe error fails", &stubProber{err: errors.New("servfail")}, record.LookupFailedStatus},
	}
	for _, tc := range tests {
		c := newChecker(&stubQuerier{raw: notFoundResponse})
		c.SetProber(tc.prober)

		res := c.Lookup(context.Background(), "never-registered-xyz.com")
		if res.Status != tc.want {
			t.Errorf("%s: Status = %v, want %v", tc.name, res.Status, tc.want)
		}
		if tc.prober.calls != 1 {
			t.Errorf("%s: prober called %d times, want 1", tc.name, tc.prober.calls)
		}
	}
}

func TestCrossCheckSkippedForRegistered(t *testing.T) {
	p := &stubProber{delegated: false}
	c := newChecker(&stubQuerier{raw: registeredResponse})
	c.SetProber(p)

	if res := c.Lookup(context.Background(), "example.com"); res.Status != record.RegisteredStatus {
		t.Fatalf("Status = %v, want Registered", res.Status)
	}
	if p.calls != 0 {
		t.Errorf("prober should only run for no-match answers, ran %d times", p.calls)
	}
}

func TestFirstValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"05-jan-2025", "05-jan-2025"},
		{"05-jan-2025,06-jan-2025", "05-jan-2025"},
		{" , 2025-01-05 ", "2025-01-05"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := firstValue(tc.in); got != tc.want {
			t.Errorf("firstValue(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

type blockingQuerier struct{}

func (blockingQuerier) Query(ctx context.Context, domain string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestLookupHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	res := newChecker(blockingQuerier{}).Lookup(ctx, "example.com")
	if res.Status != record.LookupFailedStatus {
		t.Fatalf("Status = %v, want Lookup Failed", res.Status)
	}
	if !strings.Contains(res.FailureDetail, context.DeadlineExceeded.Error()) {
		t.Errorf("FailureDetail = %q", res.FailureDetail)
	}
}

func TestLookupRegistryFormats(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"com_markmonitor.txt", "2028-09-13"},
		{"org_pir.txt", "2025-01-13"},
		{"us_neustar.txt", "2025-04-17"},
		{"co.uk_nominet.txt", "2025-02-14"},
		{"kr_krnic.txt", "2020-03-02"},
	}

	for _, tc := range tests {
		raw, err := os.ReadFile(filepath.Join("testdata", tc.file))
		if err != nil {
			t.Fatalf("failed to read %s: %v", tc.file, err)
		}

		res := newChecker(&stubQuerier{raw: string(raw)}).Lookup(context.Background(), "example.com")
		if res.Status != record.RegisteredStatus {
			t.Errorf("%s: status = %v, want registered (%s)", tc.file, res.Status, res.FailureDetail)
			continue
		}

		got, err := expdate.Parse(res.RawExpiration)
		if err != nil {
			t.Errorf("%s: expdate.Parse(%q) returned error: %v", tc.file, res.RawExpiration, err)
			continue
		}
		if got.Format("2006-01-02") != tc.want {
			t.Errorf("%s: expiration = %s, want %s", tc.file, got.Format("2006-01-02"), tc.want)
		}
	}
}
