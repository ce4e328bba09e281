package brokers

import (
	"context"
	"errors"

	chainclient "github.com/Cogwheel-Validator/spectra-swap/pathfinder/chain_client"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/metrics"
)

// PollHandle resolves once a broadcast swap is confirmed on chain.
//
// Only one Wait polls at a time, later callers get the stored outcome. A
// Wait abandoned through its context leaves the handle pending so it can be
// awaited again. The handle imposes no deadline of its own.
type PollHandle struct {
	hash   string
	poller Poller
	sem    chan struct{}

	done    bool
	receipt *chainclient.TxReceipt
	err     error
}

// NewPollHandle returns a pending handle for hash.
func NewPollHandle(hash string, poller Poller) *PollHandle {
	return &PollHandle{
		hash:   hash,
		poller: poller,
		sem:    make(chan struct{}, 1),
	}
}

// TxHash returns the hash being polled.
func (h *PollHandle) TxHash() string {
	return h.hash
}

// Wait blocks until the transaction is confirmed or failed. It returns
// chainclient.ErrConfirmationTimeout or chainclient.ErrTransactionFailed
// as reported by the chain client.
func (h *PollHandle) Wait(ctx context.Context) (*chainclient.TxReceipt, error) {
	select {
	case h.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-h.sem }()

	if h.done {
		return h.receipt, h.err
	}

	receipt, err := h.poller.PollForTransaction(ctx, h.hash)
	if err != nil && ctx.Err() != nil && !isTerminal(err) {
		metrics.SwapConfirmations.WithLabelValues("cancelled").Inc()
		return nil, err
	}

	h.done, h.receipt, h.err = true, receipt, err
	metrics.SwapConfirmations.WithLabelValues(confirmationStatus(err)).Inc()
	return receipt, err
}

func isTerminal(err error) bool {
	return errors.Is(err, chainclient.ErrTransactionFailed) || errors.Is(err, chainclient.ErrConfirmationTimeout)
}

func confirmationStatus(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, chainclient.ErrTransactionFailed):
		return "failed"
	case errors.Is(err, chainclient.ErrConfirmationTimeout):
		return "timeout"
	default:
		return "error"
	}
}
