package serviceresolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DefaultNameserver is the local systemd-resolved stub.
const DefaultNameserver = "127.0.0.53:53"

// ErrNoRecords is returned when the name has no SRV records.
var ErrNoRecords = errors.New("no SRV records found")

// Resolver queries a single nameserver for SRV records.
type Resolver struct {
	Nameserver string
	Timeout    time.Duration
}

// NewResolver returns a resolver for nameserver, which may omit the port.
// An empty nameserver selects DefaultNameserver.
func NewResolver(nameserver string) *Resolver {
	if nameserver == "" {
		nameserver = DefaultNameserver
	} else if _, _, err := net.SplitHostPort(nameserver); err != nil {
		nameserver = net.JoinHostPort(nameserver, "53")
	}
	return &Resolver{Nameserver: nameserver, Timeout: 5 * time.Second}
}

// LookupSRV returns the SRV records for domain ordered by preference: lowest
// priority first, then highest weight.
func (r *Resolver) LookupSRV(ctx context.Context, domain string) ([]*dns.SRV, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), dns.TypeSRV)
	m.RecursionDesired = true

	c := &dns.Client{Timeout: r.Timeout}
	in, _, err := c.ExchangeContext(ctx, m, r.Nameserver)
	if err != nil {
		return nil, fmt.Errorf("SRV query for %s via %s failed: %w", domain, r.Nameserver, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("SRV query for %s failed: %s", domain, dns.RcodeToString[in.Rcode])
	}

	records := make([]*dns.SRV, 0, len(in.Answer))
	for _, answer := range in.Answer {
		if srv, ok := answer.(*dns.SRV); ok {
			records = append(records, srv)
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoRecords, domain)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority < records[j].Priority
		}
		return records[i].Weight > records[j].Weight
	})

	return records, nil
}

// ResolveAddr returns host:port of the preferred record.
func (r *Resolver) ResolveAddr(ctx context.Context, domain string) (string, error) {
	records, err := r.LookupSRV(ctx, domain)
	if err != nil {
		return "", err
	}

	best := records[0]
	return net.JoinHostPort(strings.TrimSuffix(best.Target, "."), strconv.Itoa(int(best.Port))), nil
}

// ResolveAddr resolves domain against nameserver with a background context.
func ResolveAddr(domain, nameserver string) (string, error) {
	return NewResolver(nameserver).ResolveAddr(context.Background(), domain)
}
