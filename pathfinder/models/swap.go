package models

// TokenAsset is a tradable token as shown to wallets
type TokenAsset struct {
	Symbol        string `json:"symbol"`         // Normalized symbol (e.g., "ATOM")
	DisplaySymbol string `json:"display_symbol"` // Symbol as listed by the asset feed
	Denom         string `json:"denom"`          // Minimal denom on Osmosis (native or IBC hash)
	Decimals      uint32 `json:"decimals"`
	ImageURL      string `json:"image_url,omitempty"`
}

// Hop is one pool a swap passes through
type Hop struct {
	PoolID        string `json:"pool_id"`
	TokenOutDenom string `json:"token_out_denom"`
}

// Coin is an on-chain amount in minimal units
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// GetTargetOptionsRequest - empty one_of lists every tradable token
type GetTargetOptionsRequest struct {
	OneOf string `json:"one_of,omitempty"`
}

type GetTargetOptionsResponse struct {
	Tokens []TokenAsset `json:"tokens"`
}

type GetTokenPriceRequest struct {
	Symbol string `json:"symbol"`
}

type GetTokenPriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"` // USD, decimal string
}

// QuoteRequest - amount is human readable (e.g., "1.5")
type QuoteRequest struct {
	FromSymbol string `json:"from_symbol"`
	ToSymbol   string `json:"to_symbol"`
	Amount     string `json:"amount"`
}

type QuoteResponse struct {
	AmountOut string `json:"amount_out"`
	RouteType string `json:"route_type"` // "direct" | "bridged"
	Route     []Hop  `json:"route"`
}

type ResolveRouteRequest struct {
	FromSymbol string `json:"from_symbol"`
	ToSymbol   string `json:"to_symbol"`
}

type ResolveRouteResponse struct {
	RouteType string `json:"route_type"`
	Route     []Hop  `json:"route"`
}

type EstimateGasRequest struct {
	FromSymbol string `json:"from_symbol"`
	ToSymbol   string `json:"to_symbol"`
}

type EstimateGasResponse struct {
	Gas uint64 `json:"gas,string"`
}

// BuildSwapRequest - amounts are human readable, slippage is a percentage (0.5 = 0.5%).
// Account number and sequence are optional, the wallet fills them when signing.
type BuildSwapRequest struct {
	Sender        string `json:"sender"`
	FromSymbol    string `json:"from_symbol"`
	ToSymbol      string `json:"to_symbol"`
	FromAmount    string `json:"from_amount"`
	ToAmount      string `json:"to_amount"`
	Slippage      string `json:"slippage"`
	Memo          string `json:"memo,omitempty"`
	AccountNumber uint64 `json:"account_number,omitempty,string"`
	Sequence      uint64 `json:"sequence,omitempty,string"`
}

// EncodedMsg is a transaction message in amino JSON form with its type url
type EncodedMsg struct {
	TypeURL string `json:"type_url"`
	Value   any    `json:"value"`
}

type Fee struct {
	Amount []Coin `json:"amount"`
	Gas    uint64 `json:"gas,string"`
}

type BuildSwapResponse struct {
	Msgs        []EncodedMsg `json:"msgs"`
	Fee         Fee          `json:"fee"`
	Memo        string       `json:"memo"`
	RouteType   string       `json:"route_type"`
	Route       []Hop        `json:"route"`
	TokenIn     Coin         `json:"token_in"`
	TokenOutMin Coin         `json:"token_out_min"`
	ExpectedOut Coin         `json:"expected_out"`
}
