// Package osmosis implements brokers.Exchange on the Osmosis poolmanager.
package osmosis

import (
	"fmt"
	"strconv"

	chainclient "github.com/Cogwheel-Validator/spectra-swap/pathfinder/chain_client"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/shopspring/decimal"
)

const (
	// MsgSwapExactAmountInTypeURL is the poolmanager swap message type.
	MsgSwapExactAmountInTypeURL = "/osmosis.poolmanager.v1beta1.MsgSwapExactAmountIn"

	// Gas of a single pool swap and of every additional hop.
	BaseSwapGas   uint64 = 150000
	ExtraHopGas   uint64 = 30000
	DefaultBridge        = "OSMO"
)

// DefaultGasPrice is the minimum gas price of uosmo on osmosis-1.
var DefaultGasPrice = decimal.RequireFromString("0.0025")

// SwapAmountInRoute is one hop of a poolmanager swap.
type SwapAmountInRoute struct {
	PoolID        uint64 `json:"pool_id,string"`
	TokenOutDenom string `json:"token_out_denom"`
}

// MsgSwapExactAmountIn swaps exactly TokenIn along Routes and fails on chain
// when the output is below TokenOutMinAmount.
type MsgSwapExactAmountIn struct {
	Sender            string              `json:"sender"`
	Routes            []SwapAmountInRoute `json:"routes"`
	TokenIn           chainclient.Coin    `json:"token_in"`
	TokenOutMinAmount string              `json:"token_out_min_amount"`
}

func (MsgSwapExactAmountIn) TypeURL() string {
	return MsgSwapExactAmountInTypeURL
}

// routesFromSwapRoute converts resolved hops to the message form.
func routesFromSwapRoute(route router.SwapRoute) ([]SwapAmountInRoute, error) {
	routes := make([]SwapAmountInRoute, 0, len(route))
	for _, hop := range route {
		id, err := strconv.ParseUint(hop.PoolID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid pool id %q: %w", hop.PoolID, err)
		}
		routes = append(routes, SwapAmountInRoute{PoolID: id, TokenOutDenom: hop.TokenOutDenom})
	}
	return routes, nil
}
