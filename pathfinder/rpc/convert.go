package rpc

import (
	chainclient "github.com/Cogwheel-Validator/spectra-swap/pathfinder/chain_client"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

// CONVERT FUNCTIONS
// These convert between engine types and the API models

func convertRoute(route router.SwapRoute) []models.Hop {
	hops := make([]models.Hop, len(route))
	for i, h := range route {
		hops[i] = models.Hop{PoolID: h.PoolID, TokenOutDenom: h.TokenOutDenom}
	}
	return hops
}

func convertCoin(c chainclient.Coin) models.Coin {
	return models.Coin{Denom: c.Denom, Amount: c.Amount.String()}
}

func convertPreparedSwap(p *brokers.PreparedSwap) *models.BuildSwapResponse {
	msgs := make([]models.EncodedMsg, len(p.Msgs))
	for i, m := range p.Msgs {
		msgs[i] = models.EncodedMsg{TypeURL: m.TypeURL(), Value: m}
	}

	feeAmount := make([]models.Coin, len(p.Fee.Amount))
	for i, c := range p.Fee.Amount {
		feeAmount[i] = convertCoin(c)
	}

	return &models.BuildSwapResponse{
		Msgs:        msgs,
		Fee:         models.Fee{Amount: feeAmount, Gas: p.Fee.Gas},
		Memo:        p.Memo,
		RouteType:   p.RouteKind.String(),
		Route:       convertRoute(p.Route),
		TokenIn:     convertCoin(p.TokenIn),
		TokenOutMin: convertCoin(p.TokenOutMin),
		ExpectedOut: convertCoin(p.ExpectedOut),
	}
}
