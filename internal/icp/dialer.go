// Package icp provides identities, derived accounts, and authenticated
// agent construction for an Internet Computer replica.
package icp

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/aviate-labs/agent-go"
	"github.com/aviate-labs/agent-go/identity"
)

// DialerConfig holds agent construction parameters.
type DialerConfig struct {
	ReplicaURL    string
	IngressExpiry time.Duration
	FetchRootKey  bool
}

// Dialer builds authenticated agents against a single replica, one per
// calling identity. Agents are cached by sender principal so repeated
// operations reuse the underlying client.
type Dialer struct {
	host          *url.URL
	ingressExpiry time.Duration
	fetchRootKey  bool

	mu     sync.Mutex
	agents map[string]*agent.Agent
}

// NewDialer validates the replica URL and returns a dialer.
func NewDialer(cfg DialerConfig) (*Dialer, error) {
	if cfg.ReplicaURL == "" {
		return nil, fmt.Errorf("replica URL is required")
	}
	host, err := url.Parse(cfg.ReplicaURL)
	if err != nil {
		return nil, fmt.Errorf("parsing replica URL %q: %w", cfg.ReplicaURL, err)
	}
	expiry := cfg.IngressExpiry
	if expiry <= 0 {
		expiry = 5 * time.Minute
	}
	return &Dialer{
		host:          host,
		ingressExpiry: expiry,
		fetchRootKey:  cfg.FetchRootKey,
		agents:        make(map[string]*agent.Agent),
	}, nil
}

// Agent returns an agent authenticated as id, building it on first use.
func (d *Dialer) Agent(id identity.Identity) (*agent.Agent, error) {
	sender := id.Sender().Encode()

	d.mu.Lock()
	defer d.mu.Unlock()

	if a, ok := d.agents[sender]; ok {
		return a, nil
	}

	a, err := agent.New(agent.Config{
		Identity:                       id,
		IngressExpiry:                  d.ingressExpiry,
		ClientConfig:                   &agent.ClientConfig{Host: d.host},
		FetchRootKey:                   d.fetchRootKey,
		DisableSignedQueryVerification: true,
	})
	if err != nil {
		return nil, fmt.Errorf("building agent for %s: %w", sender, err)
	}
	d.agents[sender] = a
	return a, nil
}

// Host returns the replica URL the dialer targets.
func (d *Dialer) Host() *url.URL {
	return d.host
}
