package brokers_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	chainclient "github.com/Cogwheel-Validator/spectra-swap/pathfinder/chain_client"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
	"github.com/zeebo/assert"
)

type mockPoller struct {
	calls atomic.Int32
	poll  func(ctx context.Context, hash string) (*chainclient.TxReceipt, error)
}

func (m *mockPoller) PollForTransaction(ctx context.Context, hash string) (*chainclient.TxReceipt, error) {
	m.calls.Add(1)
	return m.poll(ctx, hash)
}

func TestPollHandle_MemoizesOutcome(t *testing.T) {
	poller := &mockPoller{poll: func(_ context.Context, hash string) (*chainclient.TxReceipt, error) {
		return &chainclient.TxReceipt{TxHash: hash, Height: 10}, nil
	}}
	h := brokers.NewPollHandle("ABC", poller)
	assert.Equal(t, h.TxHash(), "ABC")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			receipt, err := h.Wait(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, receipt.Height, int64(10))
		}()
	}
	wg.Wait()
	assert.Equal(t, poller.calls.Load(), int32(1))
}

func TestPollHandle_TerminalFailures(t *testing.T) {
	for _, want := range []error{chainclient.ErrTransactionFailed, chainclient.ErrConfirmationTimeout} {
		t.Run(want.Error(), func(t *testing.T) {
			poller := &mockPoller{poll: func(context.Context, string) (*chainclient.TxReceipt, error) {
				return nil, want
			}}
			h := brokers.NewPollHandle("ABC", poller)

			_, err := h.Wait(context.Background())
			assert.True(t, errors.Is(err, want))
			_, err = h.Wait(context.Background())
			assert.True(t, errors.Is(err, want))
			assert.Equal(t, poller.calls.Load(), int32(1))
		})
	}
}

func TestPollHandle_CancelledWaitStaysPending(t *testing.T) {
	poller := &mockPoller{poll: func(ctx context.Context, hash string) (*chainclient.TxReceipt, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &chainclient.TxReceipt{TxHash: hash}, nil
	}}
	h := brokers.NewPollHandle("ABC", poller)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Wait(ctx)
	assert.Error(t, err)

	receipt, err := h.Wait(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, receipt.TxHash, "ABC")
}
