package chain

import (
	"context"
	"math/big"
	"net/url"
	"strings"

	"github.com/johnniedom/FundBrave-sub002/boff"
	"github.com/johnniedom/FundBrave-sub002/config"
	"github.com/johnniedom/FundBrave-sub002/logger"
)

// Endpoint is one live chain connection.
type Endpoint struct {
	Name    string
	ChainID uint64
	Client  *Client
}

// Registry owns one RPC connection per configured chain. Chains whose
// endpoint is missing, malformed or unresponsive are recorded as excluded;
// a bad chain never fails the process.
type Registry struct {
	endpoints map[uint64]*Endpoint
	excluded  map[uint64]string // chainID -> reason
}

func NewRegistry(ctx context.Context, chains map[string]config.ChainConfig) *Registry {
	r := &Registry{
		endpoints: make(map[uint64]*Endpoint),
		excluded:  make(map[uint64]string),
	}

	for name, cfg := range chains {
		endpoint, reason := connect(ctx, name, cfg)
		if endpoint == nil {
			logger.Warn("Excluding chain %s (id %d): %s", name, cfg.ChainID, reason)
			r.excluded[cfg.ChainID] = reason
			continue
		}
		logger.Info("Connected to chain %s (id %d) at %s", name, cfg.ChainID, cfg.NodeURL)
		r.endpoints[cfg.ChainID] = endpoint
	}

	return r
}

func connect(ctx context.Context, name string, cfg config.ChainConfig) (*Endpoint, string) {
	if cfg.NodeURL == "" || strings.Contains(cfg.NodeURL, "${") {
		return nil, "node_url not configured"
	}

	nodeURL, err := url.Parse(cfg.NodeURL)
	if err != nil || nodeURL.Scheme == "" {
		return nil, "node_url is not a valid URL"
	}

	chainType, err := ChainTypeFromString(cfg.ChainType)
	if err != nil {
		return nil, err.Error()
	}

	client, err := DialRPCNode(nodeURL, chainType)
	if err != nil {
		return nil, "dial failed: " + err.Error()
	}

	// Liveness probe. The reported chain id must match the configured one,
	// otherwise checkpoints and dedup keys would be written under the wrong
	// chain.
	reported, err := boff.RetryWithMaxElapsed(ctx, func() (*big.Int, error) {
		probeCtx, cancel := context.WithTimeout(ctx, config.Timeout)
		defer cancel()
		return client.ChainID(probeCtx)
	}, "chain id probe "+name)
	if err != nil {
		client.Close()
		return nil, "liveness probe failed: " + err.Error()
	}

	if reported.Uint64() != cfg.ChainID {
		client.Close()
		return nil, "chain id mismatch: node reports " + reported.String()
	}

	return &Endpoint{Name: name, ChainID: cfg.ChainID, Client: client}, ""
}

// Client returns the connection for a chain, or false if the chain is
// excluded or unknown.
func (r *Registry) Client(chainID uint64) (*Client, bool) {
	endpoint, ok := r.endpoints[chainID]
	if !ok {
		return nil, false
	}
	return endpoint.Client, true
}

// Included returns the endpoints that survived the startup probe.
func (r *Registry) Included() []*Endpoint {
	out := make([]*Endpoint, 0, len(r.endpoints))
	for _, e := range r.endpoints {
		out = append(out, e)
	}
	return out
}

// Excluded returns the per-chain exclusion reasons.
func (r *Registry) Excluded() map[uint64]string {
	return r.excluded
}

func (r *Registry) Close() {
	for _, e := range r.endpoints {
		e.Client.Close()
	}
}
