package discover

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestDiscoverRetriesEmptyRounds(t *testing.T) {
	var rounds int
	b := &Browser{
		Wait:       time.Millisecond,
		MaxRetries: 5,
		browse: func(ctx context.Context, wait time.Duration) ([]Receiver, error) {
			rounds++
			if rounds < 3 {
				return nil, nil
			}
			return []Receiver{{Hostname: "shack-pi.local.", Port: 50000}}, nil
		},
	}

	got, err := b.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if rounds != 3 {
		t.Errorf("browse rounds = %d, want 3", rounds)
	}
	if len(got) != 1 || got[0].Hostname != "shack-pi.local." {
		t.Fatalf("receivers = %+v, want the shack-pi entry", got)
	}
}

func TestDiscoverAllRoundsEmpty(t *testing.T) {
	var rounds int
	b := &Browser{
		Wait:       time.Millisecond,
		MaxRetries: 2,
		browse: func(ctx context.Context, wait time.Duration) ([]Receiver, error) {
			rounds++
			return nil, nil
		},
	}

	got, err := b.Discover(context.Background())
	if err != nil {
		t.Fatalf("nothing found is not an error, got %v", err)
	}
	if got != nil {
		t.Fatalf("receivers = %+v, want none", got)
	}
	if rounds != 3 {
		t.Errorf("browse rounds = %d, want initial try plus 2 retries", rounds)
	}
}

func TestDiscoverStopsOnBrowseError(t *testing.T) {
	boom := errors.New("socket trouble")
	var rounds int
	b := &Browser{
		Wait:       time.Millisecond,
		MaxRetries: 5,
		browse: func(ctx context.Context, wait time.Duration) ([]Receiver, error) {
			rounds++
			return nil, boom
		},
	}

	_, err := b.Discover(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the browse error", err)
	}
	if rounds != 1 {
		t.Errorf("browse rounds = %d, resolver errors must not be retried", rounds)
	}
}

func TestControlAddr(t *testing.T) {
	r := Receiver{Hostname: "shack-pi.local.", Port: 50000}
	if got := r.ControlAddr(); got != "shack-pi.local:50000" {
		t.Errorf("ControlAddr = %q, want hostname fallback", got)
	}

	r.Addresses = []net.IP{net.IPv4(192, 168, 1, 40)}
	if got := r.ControlAddr(); got != "192.168.1.40:50000" {
		t.Errorf("ControlAddr = %q, want resolved address", got)
	}
}

func TestCleanInstance(t *testing.T) {
	if got := cleanInstance(`NetSDR\ on\ shack-pi`); got != "NetSDR on shack-pi" {
		t.Errorf("cleanInstance = %q", got)
	}
}
