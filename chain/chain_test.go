package chain

import (
	"testing"
	"time"

	avxTypes "github.com/ava-labs/coreth/core/types"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubscription struct {
	unsubscribed int
	errCh        chan error
}

func (s *stubSubscription) Unsubscribe()      { s.unsubscribed++ }
func (s *stubSubscription) Err() <-chan error { return s.errCh }

func TestForwardAvaxLogsConverts(t *testing.T) {
	src := make(chan avxTypes.Log)
	dst := make(chan ethTypes.Log, 1)
	quit := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		forwardAvaxLogs(quit, src, dst)
	}()

	src <- avxTypes.Log{BlockNumber: 42, TxHash: common.HexToHash("0x01")}
	lg := <-dst
	assert.Equal(t, uint64(42), lg.BlockNumber)
	assert.Equal(t, common.HexToHash("0x01"), lg.TxHash)

	close(quit)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("forwarder did not stop after quit")
	}
}

// Unsubscribe must release the forwarder even when nobody drains the
// destination channel anymore.
func TestForwardAvaxLogsStopsWhenBlockedOnSend(t *testing.T) {
	src := make(chan avxTypes.Log, 1)
	dst := make(chan ethTypes.Log) // never drained

	stub := &stubSubscription{errCh: make(chan error)}
	sub := newAvaxSubscription(stub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		forwardAvaxLogs(sub.quit, src, dst)
	}()

	src <- avxTypes.Log{BlockNumber: 1}
	sub.Unsubscribe()
	sub.Unsubscribe() // second unsubscribe must not panic on a closed quit

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("forwarder did not stop after unsubscribe")
	}

	require.Equal(t, 2, stub.unsubscribed, "unsubscribe forwards to the backing subscription")
}
