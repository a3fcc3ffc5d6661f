package chain

import (
	"context"
	"errors"
	"math/big"
	"net/url"
	"sync"

	avxClient "github.com/ava-labs/coreth/ethclient"
	"github.com/ava-labs/coreth/interfaces"
	"github.com/ethereum/go-ethereum"
	ethClient "github.com/ethereum/go-ethereum/ethclient"

	avxTypes "github.com/ava-labs/coreth/core/types"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
)

// ChainType is an internal type used to differentiate between different
// types of EVM-compatible chains.
type ChainType int

const (
	ChainTypeEth ChainType = iota + 1 // Add 1 to skip 0 - avoids the zero value being a valid type
	ChainTypeAvax
)

func ChainTypeFromString(s string) (ChainType, error) {
	switch s {
	case "", "eth":
		return ChainTypeEth, nil
	case "avax":
		return ChainTypeAvax, nil
	default:
		return 0, errors.New("invalid chain type: " + s)
	}
}

// Client wraps the go-ethereum and coreth RPC clients behind one interface.
// Logs are normalized to go-ethereum types regardless of the backing client.
type Client struct {
	chain ChainType
	eth   *ethClient.Client
	avx   avxClient.Client
}

// Subscription is the common surface of eth and avax log subscriptions.
type Subscription interface {
	Unsubscribe()
	Err() <-chan error
}

func DialRPCNode(nodeURL *url.URL, chainType ChainType) (*Client, error) {
	c := &Client{chain: chainType}
	var err error

	switch c.chain {
	case ChainTypeAvax:
		c.avx, err = avxClient.Dial(nodeURL.String())
	case ChainTypeEth:
		c.eth, err = ethClient.Dial(nodeURL.String())
	default:
		return nil, errors.New("invalid chain")
	}

	return c, err
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	switch c.chain {
	case ChainTypeAvax:
		return c.avx.ChainID(ctx)
	case ChainTypeEth:
		return c.eth.ChainID(ctx)
	default:
		return nil, errors.New("invalid chain")
	}
}

// HeadNumber returns the latest block number known to the node.
func (c *Client) HeadNumber(ctx context.Context) (uint64, error) {
	switch c.chain {
	case ChainTypeAvax:
		header, err := c.avx.HeaderByNumber(ctx, nil)
		if err != nil {
			return 0, err
		}
		return header.Number.Uint64(), nil
	case ChainTypeEth:
		header, err := c.eth.HeaderByNumber(ctx, nil)
		if err != nil {
			return 0, err
		}
		return header.Number.Uint64(), nil
	default:
		return 0, errors.New("invalid chain")
	}
}

func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethTypes.Log, error) {
	switch c.chain {
	case ChainTypeAvax:
		avxLogs, err := c.avx.FilterLogs(ctx, interfaces.FilterQuery(q))
		if err != nil {
			return nil, err
		}
		logs := make([]ethTypes.Log, len(avxLogs))
		for i, l := range avxLogs {
			logs[i] = ethTypes.Log(l)
		}
		return logs, nil
	case ChainTypeEth:
		return c.eth.FilterLogs(ctx, q)
	default:
		return nil, errors.New("invalid chain")
	}
}

// SubscribeFilterLogs opens a push subscription for logs matching q. The
// backing transport must support notifications (websocket); plain http
// endpoints return an error and the caller falls back to polling.
func (c *Client) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- ethTypes.Log) (Subscription, error) {
	switch c.chain {
	case ChainTypeAvax:
		avxCh := make(chan avxTypes.Log)
		sub, err := c.avx.SubscribeFilterLogs(ctx, interfaces.FilterQuery(q), avxCh)
		if err != nil {
			return nil, err
		}
		wrapped := newAvaxSubscription(sub)
		go forwardAvaxLogs(wrapped.quit, avxCh, ch)
		return wrapped, nil
	case ChainTypeEth:
		return c.eth.SubscribeFilterLogs(ctx, q, ch)
	default:
		return nil, errors.New("invalid chain")
	}
}

// avaxSubscription wraps a coreth subscription so the log-forwarding
// goroutine is released on Unsubscribe; coreth never closes its log channel.
type avaxSubscription struct {
	sub  Subscription
	quit chan struct{}
	once sync.Once
}

func newAvaxSubscription(sub Subscription) *avaxSubscription {
	return &avaxSubscription{sub: sub, quit: make(chan struct{})}
}

func (s *avaxSubscription) Unsubscribe() {
	s.once.Do(func() { close(s.quit) })
	s.sub.Unsubscribe()
}

func (s *avaxSubscription) Err() <-chan error {
	return s.sub.Err()
}

// forwardAvaxLogs converts coreth logs to go-ethereum logs until quit closes,
// even when the destination is no longer drained.
func forwardAvaxLogs(quit <-chan struct{}, src <-chan avxTypes.Log, dst chan<- ethTypes.Log) {
	for {
		select {
		case <-quit:
			return
		case l := <-src:
			select {
			case dst <- ethTypes.Log(l):
			case <-quit:
				return
			}
		}
	}
}

func (c *Client) Close() {
	switch c.chain {
	case ChainTypeAvax:
		if c.avx != nil {
			c.avx.Close()
		}
	case ChainTypeEth:
		if c.eth != nil {
			c.eth.Close()
		}
	}
}
