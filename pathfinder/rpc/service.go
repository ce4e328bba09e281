package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	chainclient "github.com/Cogwheel-Validator/spectra-swap/pathfinder/chain_client"
	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

const SwapServiceName = "swap.v1.SwapService"

const (
	SwapServiceGetTargetOptionsProcedure = "/" + SwapServiceName + "/GetTargetOptions"
	SwapServiceGetTokenPriceProcedure    = "/" + SwapServiceName + "/GetTokenPrice"
	SwapServiceQuoteProcedure            = "/" + SwapServiceName + "/Quote"
	SwapServiceResolveRouteProcedure     = "/" + SwapServiceName + "/ResolveRoute"
	SwapServiceEstimateGasProcedure      = "/" + SwapServiceName + "/EstimateGas"
	SwapServiceBuildSwapProcedure        = "/" + SwapServiceName + "/BuildSwap"
)

// SwapServer serves the swap service over a single exchange.
// The server holds no keys, swaps are only built here and signed by the wallet.
// Calls made while market data is loading wait for it, up to the request deadline.
type SwapServer struct {
	exchange brokers.Exchange
}

// NewSwapServer creates a new SwapServer
func NewSwapServer(exchange brokers.Exchange) *SwapServer {
	return &SwapServer{exchange: exchange}
}

// NewSwapServiceHandler returns the path prefix and handler of every procedure.
func NewSwapServiceHandler(s *SwapServer, opts ...connect.HandlerOption) (string, http.Handler) {
	readOnly := append([]connect.HandlerOption{connect.WithIdempotency(connect.IdempotencyNoSideEffects)}, opts...)

	mux := http.NewServeMux()
	mux.Handle(SwapServiceGetTargetOptionsProcedure,
		connect.NewUnaryHandler(SwapServiceGetTargetOptionsProcedure, s.GetTargetOptions, readOnly...))
	mux.Handle(SwapServiceGetTokenPriceProcedure,
		connect.NewUnaryHandler(SwapServiceGetTokenPriceProcedure, s.GetTokenPrice, readOnly...))
	mux.Handle(SwapServiceQuoteProcedure,
		connect.NewUnaryHandler(SwapServiceQuoteProcedure, s.Quote, readOnly...))
	mux.Handle(SwapServiceResolveRouteProcedure,
		connect.NewUnaryHandler(SwapServiceResolveRouteProcedure, s.ResolveRoute, readOnly...))
	mux.Handle(SwapServiceEstimateGasProcedure,
		connect.NewUnaryHandler(SwapServiceEstimateGasProcedure, s.EstimateGas, readOnly...))
	mux.Handle(SwapServiceBuildSwapProcedure,
		connect.NewUnaryHandler(SwapServiceBuildSwapProcedure, s.BuildSwap, readOnly...))
	return "/" + SwapServiceName + "/", mux
}

// GetTargetOptions lists the tokens a swap can target
func (s *SwapServer) GetTargetOptions(
	ctx context.Context,
	req *connect.Request[models.GetTargetOptionsRequest],
) (*connect.Response[models.GetTargetOptionsResponse], error) {
	assets, err := s.exchange.GetTargetOptions(ctx, req.Msg.OneOf)
	if err != nil {
		return nil, connectError(err)
	}

	tokens := make([]models.TokenAsset, 0, len(assets))
	for _, a := range assets {
		tokens = append(tokens, models.TokenAsset{
			Symbol:        a.Symbol,
			DisplaySymbol: a.DisplaySymbol,
			Denom:         a.Denom,
			Decimals:      a.Decimals,
			ImageURL:      a.ImageURL,
		})
	}
	return connect.NewResponse(&models.GetTargetOptionsResponse{Tokens: tokens}), nil
}

// GetTokenPrice returns the USD price of a token
func (s *SwapServer) GetTokenPrice(
	ctx context.Context,
	req *connect.Request[models.GetTokenPriceRequest],
) (*connect.Response[models.GetTokenPriceResponse], error) {
	if err := requireSymbols(req.Msg.Symbol); err != nil {
		return nil, err
	}
	price, err := s.exchange.GetTokenUSDPrice(ctx, req.Msg.Symbol)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&models.GetTokenPriceResponse{
		Symbol: marketdata.NormalizeSymbol(req.Msg.Symbol),
		Price:  price.String(),
	}), nil
}

// Quote converts an amount between two tokens at pool prices
func (s *SwapServer) Quote(
	ctx context.Context,
	req *connect.Request[models.QuoteRequest],
) (*connect.Response[models.QuoteResponse], error) {
	if err := requireSymbols(req.Msg.FromSymbol, req.Msg.ToSymbol); err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, err
	}

	res, err := s.exchange.ResolveRoute(ctx, req.Msg.FromSymbol, req.Msg.ToSymbol)
	if err != nil {
		return nil, connectError(err)
	}
	out, err := s.exchange.Quote(ctx, req.Msg.FromSymbol, req.Msg.ToSymbol, amount)
	if err != nil {
		return nil, connectError(err)
	}

	resp := connect.NewResponse(&models.QuoteResponse{
		AmountOut: out.String(),
		RouteType: res.Kind.String(),
		Route:     convertRoute(res.Route),
	})
	return resp, nil
}

// ResolveRoute returns the pools a swap goes through
func (s *SwapServer) ResolveRoute(
	ctx context.Context,
	req *connect.Request[models.ResolveRouteRequest],
) (*connect.Response[models.ResolveRouteResponse], error) {
	if err := requireSymbols(req.Msg.FromSymbol, req.Msg.ToSymbol); err != nil {
		return nil, err
	}
	res, err := s.exchange.ResolveRoute(ctx, req.Msg.FromSymbol, req.Msg.ToSymbol)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&models.ResolveRouteResponse{
		RouteType: res.Kind.String(),
		Route:     convertRoute(res.Route),
	}), nil
}

// EstimateGas returns the gas limit of a swap
func (s *SwapServer) EstimateGas(
	ctx context.Context,
	req *connect.Request[models.EstimateGasRequest],
) (*connect.Response[models.EstimateGasResponse], error) {
	if err := requireSymbols(req.Msg.FromSymbol, req.Msg.ToSymbol); err != nil {
		return nil, err
	}
	gas, err := s.exchange.EstimateGas(ctx, req.Msg.FromSymbol, req.Msg.ToSymbol)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&models.EstimateGasResponse{Gas: gas}), nil
}

// BuildSwap assembles an unsigned swap transaction for the wallet to sign
func (s *SwapServer) BuildSwap(
	ctx context.Context,
	req *connect.Request[models.BuildSwapRequest],
) (*connect.Response[models.BuildSwapResponse], error) {
	msg := req.Msg
	if err := requireSymbols(msg.FromSymbol, msg.ToSymbol); err != nil {
		return nil, err
	}
	fromAmount, err := parseAmount("from_amount", msg.FromAmount)
	if err != nil {
		return nil, err
	}
	toAmount, err := parseAmount("to_amount", msg.ToAmount)
	if err != nil {
		return nil, err
	}
	slippage, err := parseAmount("slippage", msg.Slippage)
	if err != nil {
		return nil, err
	}

	prepared, err := s.exchange.BuildSwap(ctx, brokers.SwapRequest{
		Sender:     msg.Sender,
		FromSymbol: msg.FromSymbol,
		ToSymbol:   msg.ToSymbol,
		FromAmount: fromAmount,
		ToAmount:   toAmount,
		Slippage:   slippage,
		Memo:       msg.Memo,
		Signer: chainclient.SignerData{
			AccountNumber: msg.AccountNumber,
			Sequence:      msg.Sequence,
		},
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(convertPreparedSwap(prepared)), nil
}

func requireSymbols(symbols ...string) error {
	for _, s := range symbols {
		if marketdata.NormalizeSymbol(s) == "" {
			return connect.NewError(connect.CodeInvalidArgument, errors.New("token symbol is required"))
		}
	}
	return nil
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s is required", field))
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid %s: not a decimal number", field))
	}
	if err := router.CheckAmount(d); err != nil {
		return decimal.Zero, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid %s: %w", field, err))
	}
	return d, nil
}

// connectError maps engine errors to connect codes
func connectError(err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, brokers.ErrInvalidAmount),
		errors.Is(err, brokers.ErrInvalidSlippage),
		errors.Is(err, brokers.ErrInvalidSender),
		errors.Is(err, brokers.ErrUnsupportedPair),
		errors.Is(err, router.ErrAmountOutOfRange):
		code = connect.CodeInvalidArgument
	case errors.Is(err, router.ErrNoRouteFound),
		errors.Is(err, marketdata.ErrPriceNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, marketdata.ErrMarketDataUnavailable):
		code = connect.CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	default:
		Logger.Error().Err(err).Msg("Unexpected swap service error")
		return connect.NewError(connect.CodeInternal, errors.New("internal server error"))
	}
	return connect.NewError(code, err)
}
