// Package chainclient talks to a Cosmos SDK chain through its LCD REST API:
// account lookup, transaction broadcast and confirmation polling.
// Signing is delegated to an external Signer.
package chainclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "chain-client").Logger()
}

// Config holds the LCD client settings.
type Config struct {
	LCDURL  string
	ChainID string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// PollInterval is the first delay between confirmation lookups
	PollInterval time.Duration
	// PollMaxInterval caps the growing delay between lookups
	PollMaxInterval time.Duration
	// ConfirmationTimeout bounds the whole confirmation poll
	ConfirmationTimeout time.Duration
}

// DefaultConfig returns the poll settings used for Osmosis block times.
func DefaultConfig(lcdURL, chainID string) Config {
	return Config{
		LCDURL:              lcdURL,
		ChainID:             chainID,
		Timeout:             10 * time.Second,
		PollInterval:        time.Second,
		PollMaxInterval:     5 * time.Second,
		ConfirmationTimeout: 90 * time.Second,
	}
}

// Client is an LCD backed chain client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	signer     Signer
}

// NewClient creates an LCD client. signer may be nil for read only use.
func NewClient(config Config, signer Signer) (*Client, error) {
	parsed, err := url.Parse(config.LCDURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid lcd url %q", config.LCDURL)
	}
	if config.ChainID == "" {
		return nil, fmt.Errorf("chain id is required")
	}
	defaults := DefaultConfig(config.LCDURL, config.ChainID)
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.PollMaxInterval <= 0 {
		config.PollMaxInterval = defaults.PollMaxInterval
	}
	if config.ConfirmationTimeout <= 0 {
		config.ConfirmationTimeout = defaults.ConfirmationTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    strings.TrimSuffix(config.LCDURL, "/"),
		config:     config,
		signer:     signer,
	}, nil
}

// ChainID returns the chain the client signs for.
func (c *Client) ChainID() string {
	return c.config.ChainID
}

// GetAccount fetches the account number and sequence of address.
func (c *Client) GetAccount(ctx context.Context, address string) (SignerData, error) {
	path := "/cosmos/auth/v1beta1/accounts/" + url.PathEscape(address)

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		body, status, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return nil, backoff.Permanent(fmt.Errorf("account %s not found", address))
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d: %s", status, body)
		}
		return body, nil
	}, backoff.WithMaxTries(3))
	if err != nil {
		return SignerData{}, fmt.Errorf("failed to query account: %w", err)
	}

	var resp accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return SignerData{}, fmt.Errorf("failed to parse account response: %w", err)
	}

	acc := resp.Account
	data := SignerData{AccountNumber: acc.AccountNumber, Sequence: acc.Sequence, ChainID: c.config.ChainID}
	switch {
	case acc.BaseAccount != nil:
		data.AccountNumber, data.Sequence = acc.BaseAccount.AccountNumber, acc.BaseAccount.Sequence
	case acc.BaseVestingAccount != nil:
		data.AccountNumber = acc.BaseVestingAccount.BaseAccount.AccountNumber
		data.Sequence = acc.BaseVestingAccount.BaseAccount.Sequence
	}
	return data, nil
}

// SignAndBroadcast signs msgs with the configured signer and submits them in
// sync mode. Missing signer data is looked up first. A transaction rejected
// by CheckTx fails with ErrTransactionFailed. Broadcasts are never retried.
func (c *Client) SignAndBroadcast(
	ctx context.Context,
	sender string,
	msgs []Msg,
	fee StdFee,
	memo string,
	signer SignerData,
) (string, error) {
	if c.signer == nil {
		return "", ErrNoSigner
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("no messages to broadcast")
	}

	if signer.IsZero() {
		fetched, err := c.GetAccount(ctx, sender)
		if err != nil {
			return "", err
		}
		fetched.ChainID = signer.ChainID
		signer = fetched
	}
	if signer.ChainID == "" {
		signer.ChainID = c.config.ChainID
	}

	doc := SignDoc{
		ChainID:       signer.ChainID,
		AccountNumber: signer.AccountNumber,
		Sequence:      signer.Sequence,
		Fee:           fee,
		Memo:          memo,
		Msgs:          msgs,
	}
	txBytes, err := c.signer.Sign(ctx, sender, doc)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}

	payload, err := json.Marshal(broadcastRequest{TxBytes: txBytes, Mode: "BROADCAST_MODE_SYNC"})
	if err != nil {
		return "", fmt.Errorf("failed to encode broadcast request: %w", err)
	}

	body, status, err := c.do(ctx, http.MethodPost, "/cosmos/tx/v1beta1/txs", payload)
	if err != nil {
		return "", fmt.Errorf("failed to broadcast: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("failed to broadcast: HTTP %d: %s", status, body)
	}

	var resp txResponseEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse broadcast response: %w", err)
	}
	if resp.TxResponse.Code != 0 {
		return "", fmt.Errorf("%w: check tx code %d (%s): %s",
			ErrTransactionFailed, resp.TxResponse.Code, resp.TxResponse.Codespace, resp.TxResponse.RawLog)
	}

	log.Info().
		Str("sender", sender).
		Str("tx_hash", resp.TxResponse.TxHash).
		Uint64("sequence", signer.Sequence).
		Msg("Transaction broadcast")
	return resp.TxResponse.TxHash, nil
}

// errTxPending marks a transaction not yet included in a block.
var errTxPending = errors.New("transaction not yet included")

// PollForTransaction waits until hash is included in a block.
// A non zero execution code fails with ErrTransactionFailed, running out of
// the confirmation budget with ErrConfirmationTimeout.
func (c *Client) PollForTransaction(ctx context.Context, hash string) (*TxReceipt, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.PollInterval
	b.MaxInterval = c.config.PollMaxInterval
	b.Multiplier = 1.5

	path := "/cosmos/tx/v1beta1/txs/" + url.PathEscape(hash)
	receipt, err := backoff.Retry(ctx, func() (*TxReceipt, error) {
		body, status, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		if isTxNotFound(status, body) {
			return nil, errTxPending
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d: %s", status, body)
		}

		var resp txResponseEnvelope
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to parse tx response: %w", err))
		}
		r := resp.TxResponse
		if r.Code != 0 {
			return nil, backoff.Permanent(fmt.Errorf("%w: code %d (%s) at height %d: %s",
				ErrTransactionFailed, r.Code, r.Codespace, r.Height, r.RawLog))
		}
		return &r, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(c.config.ConfirmationTimeout),
	)

	switch {
	case err == nil:
		log.Info().Str("tx_hash", hash).Int64("height", receipt.Height).Msg("Transaction confirmed")
		return receipt, nil
	case errors.Is(err, ErrTransactionFailed):
		return nil, err
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, fmt.Errorf("%w: %s after %s: %w", ErrConfirmationTimeout, hash, c.config.ConfirmationTimeout, err)
	}
}

// isTxNotFound recognises the LCD answer for an unknown hash. Nodes answer
// 404, older gateways a 400 or 500 with a "not found" message.
func isTxNotFound(status int, body []byte) bool {
	if status == http.StatusNotFound {
		return true
	}
	return status != http.StatusOK && bytes.Contains(bytes.ToLower(body), []byte("not found"))
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
