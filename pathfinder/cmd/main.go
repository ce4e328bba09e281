package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	chainclient "github.com/Cogwheel-Validator/spectra-swap/pathfinder/chain_client"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/config"
	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/osmosis"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/rpc"
)

var log zerolog.Logger

func init() {
	// Initialize zerolog with console writer
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	// Share the logger with the RPC package
	rpc.SetLogger(log)
}

func main() {
	configPath := flag.String("config", "", "toml config file for the swap service, SWAP_* env vars when empty")
	denoms := flag.String("denoms", "", "denom registry source, overrides denom_registry from the config")
	tlsCert := flag.String("tls-cert", "", "TLS certificate file")
	tlsKey := flag.String("tls-key", "", "TLS key file")
	flag.Parse()

	log.Info().Str("config", *configPath).Msg("Starting Spectra Swap")

	var path *string
	if *configPath != "" {
		path = configPath
	}
	swapConfig, err := config.LoadRPCSwapConfig(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *denoms != "" {
		swapConfig.DenomRegistry = *denoms
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Market data loads in the background, the server reports ready once it lands
	feed, err := marketdata.NewFeedClient(swapConfig.PoolsURLs, swapConfig.AssetsURLs, marketdata.DefaultFailoverConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create market data client")
	}
	cache := marketdata.NewCache(ctx, feed)

	registry := loadRegistry(ctx, swapConfig)

	gasPrice, err := decimal.NewFromString(swapConfig.GasPrice)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid gas price")
	}

	// Nil interface when no LCD is configured, ExecuteSwap then fails with ErrNoChainClient
	var chain brokers.ChainClient
	if len(swapConfig.LCDURLs) > 0 {
		client, err := chainclient.NewClient(chainclient.DefaultConfig(swapConfig.LCDURLs[0], swapConfig.ChainID), nil)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create chain client")
		}
		chain = client
		log.Info().Str("lcd", swapConfig.LCDURLs[0]).Str("chain_id", swapConfig.ChainID).Msg("Chain client initialized")
	}

	broker := osmosis.NewBroker(cache, registry, chain, osmosis.Config{
		Bridge:       swapConfig.BridgeSymbol,
		Bech32Prefix: swapConfig.Bech32Prefix,
		FeeDenom:     swapConfig.FeeDenom,
		GasPrice:     gasPrice,
	})

	// A failed load is final for its cache, keep building new ones until one lands
	go superviseMarketData(ctx, cache, feed, broker)

	server, err := rpc.NewServer(ctx, buildServerConfig(swapConfig), broker)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create RPC server")
	}

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		var err error
		if *tlsCert != "" && *tlsKey != "" {
			err = server.StartTLS(*tlsCert, *tlsKey)
		} else {
			err = server.Start()
		}
		if err != nil {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

func superviseMarketData(ctx context.Context, cache *marketdata.Cache, feed marketdata.Fetcher, broker *osmosis.Broker) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Second
	b.MaxInterval = time.Minute

	if _, err := marketdata.Supervise(ctx, cache, feed, b, broker.SetCache); err != nil {
		log.Info().Err(err).Msg("Market data supervisor stopped")
		return
	}
	log.Info().Msg("Market data ready")
}

// loadRegistry returns the configured denom registry. Without one every
// swap build fails with an unsupported pair, quotes still work.
func loadRegistry(ctx context.Context, cfg *config.RPCSwapConfig) brokers.StaticDenomRegistry {
	if cfg.DenomRegistry == "" {
		log.Warn().Msg("No denom registry configured, swap building is disabled")
		return brokers.NewStaticDenomRegistry(nil)
	}

	file, err := config.LoadDenomRegistry(ctx, cfg.DenomRegistry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load denom registry")
	}
	registry, err := file.Registry()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid denom registry")
	}

	if file.ChainID != "" && file.ChainID != cfg.ChainID {
		log.Warn().Str("registry", file.ChainID).Str("config", cfg.ChainID).Msg("Denom registry is for another chain")
	}
	if prefix := file.Bech32Config.Bech32PrefixAccAddr; prefix != "" && prefix != cfg.Bech32Prefix {
		log.Warn().Str("registry", prefix).Str("config", cfg.Bech32Prefix).Msg("Denom registry bech32 prefix differs")
	}
	if avg, ok := file.AverageGasPrice(cfg.FeeDenom); ok {
		log.Info().Str("average", avg.String()).Str("configured", cfg.GasPrice).Msg("Registry gas price")
	}

	log.Info().Int("count", len(registry)).Str("source", cfg.DenomRegistry).Msg("Loaded denom registry")
	return registry
}

// buildServerConfig converts the loaded RPCSwapConfig to rpc.ServerConfig
func buildServerConfig(cfg *config.RPCSwapConfig) *rpc.ServerConfig {
	serverConfig := &rpc.ServerConfig{
		Address:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  cfg.UsePrometheus,
	}

	if cfg.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.RatePerMinute
	}
	if cfg.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.MaxConcurrentRequests
	}

	if cfg.EnableTracing || cfg.EnableMetrics || cfg.EnableLogs {
		serverConfig.OTelConfig = &rpc.OTelConfig{
			ServiceName:     cfg.ServiceName,
			ServiceVersion:  cfg.ServiceVersion,
			Environment:     cfg.Environment,
			EnableTracing:   cfg.EnableTracing,
			OTLPTracesURL:   cfg.OTLPTracesURL,
			EnableMetrics:   cfg.EnableMetrics,
			UsePrometheus:   cfg.UsePrometheus,
			OTLPMetricsURL:  cfg.OTLPMetricsURL,
			EnableLogs:      cfg.EnableLogs,
			OTLPLogsURL:     cfg.OTLPLogsURL,
			InsecureOTLP:    cfg.InsecureOTLP,
			DevelopmentMode: cfg.DevelopmentMode,
		}
	}

	return serverConfig
}
