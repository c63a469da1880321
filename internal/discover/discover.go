// Package discover finds NetSDR-compatible receivers advertised over
// mDNS as _netsdr._tcp services.
package discover

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/grandcat/zeroconf"
)

// Service is the browsed mDNS service type.
const Service = "_netsdr._tcp"

// Receiver represents one discovered receiver.
type Receiver struct {
	Instance  string // advertised name: "NetSDR on shack-pi"
	Hostname  string // DNS hostname: "shack-pi.local."
	Addresses []net.IP
	Port      int
	TXT       []string
}

// ControlAddr returns the host:port to dial for the control channel,
// preferring the first resolved address over the hostname.
func (r Receiver) ControlAddr() string {
	host := strings.TrimSuffix(r.Hostname, ".")
	if len(r.Addresses) > 0 {
		host = r.Addresses[0].String()
	}
	return net.JoinHostPort(host, fmt.Sprint(r.Port))
}

// errNoReceivers marks an empty browse round so the retry loop runs again.
var errNoReceivers = errors.New("no receivers answered")

// Browser performs mDNS discovery rounds. The zero value browses with
// the defaults; tests replace browse.
type Browser struct {
	// Wait is how long one browse round listens. 3s when zero.
	Wait time.Duration
	// MaxRetries caps additional rounds after an empty first one.
	MaxRetries uint64

	// browse runs one round, returning deduplicated receivers.
	browse func(ctx context.Context, wait time.Duration) ([]Receiver, error)
}

// Discover browses until a round yields receivers or the retries are
// spent. Empty rounds are retried with capped exponential backoff; an
// empty final result is not an error.
func (b *Browser) Discover(ctx context.Context) ([]Receiver, error) {
	wait := b.Wait
	if wait <= 0 {
		wait = 3 * time.Second
	}
	browse := b.browse
	if browse == nil {
		browse = browseOnce
	}

	var found []Receiver
	round := func() error {
		receivers, err := browse(ctx, wait)
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(receivers) == 0 {
			return errNoReceivers
		}
		found = receivers
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	err := backoff.Retry(round,
		backoff.WithContext(backoff.WithMaxRetries(policy, b.MaxRetries), ctx))
	switch {
	case errors.Is(err, errNoReceivers):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return found, nil
}

// browseOnce runs a single blocking mDNS browse round and returns
// cleaned, deduplicated receiver entries.
func browseOnce(ctx context.Context, wait time.Duration) ([]Receiver, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("resolver error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	resultMap := make(map[string]Receiver)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				if e == nil {
					continue
				}

				addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
				addrs = append(addrs, e.AddrIPv4...)
				addrs = append(addrs, e.AddrIPv6...)

				// Host and port identify a receiver across repeated answers.
				key := fmt.Sprintf("%s|%d", e.HostName, e.Port)
				resultMap[key] = Receiver{
					Instance:  cleanInstance(e.Instance),
					Hostname:  e.HostName,
					Addresses: addrs,
					Port:      e.Port,
					TXT:       append([]string{}, e.Text...),
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, Service, "local.", entries); err != nil {
		return nil, fmt.Errorf("browse error: %w", err)
	}

	<-done

	out := make([]Receiver, 0, len(resultMap))
	for _, r := range resultMap {
		out = append(out, r)
	}
	return out, nil
}

// cleanInstance removes Zeroconf escape sequences: "\ " => " "
func cleanInstance(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}
