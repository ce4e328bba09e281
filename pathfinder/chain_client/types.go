package chainclient

import (
	"context"
	"errors"

	sdkmath "cosmossdk.io/math"
)

var (
	// ErrConfirmationTimeout is returned when a broadcast transaction was not
	// found on chain within the poll budget.
	ErrConfirmationTimeout = errors.New("confirmation timeout")
	// ErrTransactionFailed is returned when the chain rejected or failed to
	// execute a transaction.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrNoSigner is returned by SignAndBroadcast on a client built without a signer.
	ErrNoSigner = errors.New("no signer configured")
)

// Msg is a transaction message. Implementations marshal to the JSON form
// the signer expects and name their protobuf type URL.
type Msg interface {
	TypeURL() string
}

// Coin is an amount of a denom in minimal units.
type Coin struct {
	Denom  string      `json:"denom"`
	Amount sdkmath.Int `json:"amount"`
}

// StdFee is the fee and gas limit attached to a transaction.
type StdFee struct {
	Amount []Coin `json:"amount"`
	Gas    uint64 `json:"gas,string"`
}

// SignerData identifies the signing account state. Zero account number and
// sequence mean "look it up", an empty chain id means the client chain.
type SignerData struct {
	AccountNumber uint64 `json:"account_number,string"`
	Sequence      uint64 `json:"sequence,string"`
	ChainID       string `json:"chain_id"`
}

// IsZero reports whether the account state still needs to be fetched.
func (s SignerData) IsZero() bool {
	return s.AccountNumber == 0 && s.Sequence == 0
}

// SignDoc is everything a signer needs to produce the raw transaction.
type SignDoc struct {
	ChainID       string `json:"chain_id"`
	AccountNumber uint64 `json:"account_number,string"`
	Sequence      uint64 `json:"sequence,string"`
	Fee           StdFee `json:"fee"`
	Memo          string `json:"memo"`
	Msgs          []Msg  `json:"msgs"`
}

// Signer signs and encodes transactions. Keys live with the implementation
// (a wallet, a keyring), never in this package.
type Signer interface {
	// Sign returns the protobuf encoded TxRaw ready for broadcast.
	Sign(ctx context.Context, sender string, doc SignDoc) ([]byte, error)
}

// TxReceipt is the on-chain result of a transaction.
type TxReceipt struct {
	TxHash    string `json:"txhash"`
	Height    int64  `json:"height,string"`
	Code      uint32 `json:"code"`
	Codespace string `json:"codespace"`
	RawLog    string `json:"raw_log"`
	GasWanted int64  `json:"gas_wanted,string"`
	GasUsed   int64  `json:"gas_used,string"`
}

// LCD wire types

type accountResponse struct {
	Account struct {
		Address       string `json:"address"`
		AccountNumber uint64 `json:"account_number,string"`
		Sequence      uint64 `json:"sequence,string"`
		// vesting and module accounts nest the base account
		BaseAccount *struct {
			AccountNumber uint64 `json:"account_number,string"`
			Sequence      uint64 `json:"sequence,string"`
		} `json:"base_account"`
		BaseVestingAccount *struct {
			BaseAccount struct {
				AccountNumber uint64 `json:"account_number,string"`
				Sequence      uint64 `json:"sequence,string"`
			} `json:"base_account"`
		} `json:"base_vesting_account"`
	} `json:"account"`
}

type broadcastRequest struct {
	TxBytes []byte `json:"tx_bytes"`
	Mode    string `json:"mode"`
}

type txResponseEnvelope struct {
	TxResponse TxReceipt `json:"tx_response"`
}
