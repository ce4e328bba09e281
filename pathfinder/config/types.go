package config

import "github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"

type RPCSwapConfig struct {
	// rpc configs
	Port int    `mapstructure:"port" toml:"port"`
	Host string `mapstructure:"host" toml:"host"`

	// CORS configs
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `mapstructure:"rate_per_minute" toml:"rate_per_minute"`
	MaxConcurrentRequests int `mapstructure:"max_concurrent_requests" toml:"max_concurrent_requests"`

	// OpenTelemetry configs
	ServiceName    string `mapstructure:"service_name" toml:"service_name"`
	ServiceVersion string `mapstructure:"service_version" toml:"service_version"`
	Environment    string `mapstructure:"environment" toml:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `mapstructure:"enable_tracing" toml:"enable_tracing"`
	OTLPTracesURL  string `mapstructure:"otlp_traces_url" toml:"otlp_traces_url"`
	EnableMetrics  bool   `mapstructure:"enable_metrics" toml:"enable_metrics"`
	UsePrometheus  bool   `mapstructure:"use_prometheus" toml:"use_prometheus"`
	OTLPMetricsURL string `mapstructure:"otlp_metrics_url" toml:"otlp_metrics_url"`
	EnableLogs     bool   `mapstructure:"enable_logs" toml:"enable_logs"`
	OTLPLogsURL    string `mapstructure:"otlp_logs_url" toml:"otlp_logs_url"`

	InsecureOTLP bool `mapstructure:"insecure_otlp" toml:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `mapstructure:"development_mode" toml:"development_mode"`

	// Market data feeds, each list is tried in order with failover
	PoolsURLs  []string `mapstructure:"pools_urls" toml:"pools_urls"`
	AssetsURLs []string `mapstructure:"assets_urls" toml:"assets_urls"`

	// Routing
	BridgeSymbol string `mapstructure:"bridge_symbol" toml:"bridge_symbol"` // default OSMO

	// Osmosis chain
	LCDURLs      []string `mapstructure:"lcd_urls" toml:"lcd_urls"`
	ChainID      string   `mapstructure:"chain_id" toml:"chain_id"`
	Bech32Prefix string   `mapstructure:"bech32_prefix" toml:"bech32_prefix"`
	FeeDenom     string   `mapstructure:"fee_denom" toml:"fee_denom"`
	GasPrice     string   `mapstructure:"gas_price" toml:"gas_price"` // decimal, e.g. "0.0025"

	// Local path or go-getter source of the Keplr style denom registry
	DenomRegistry string `mapstructure:"denom_registry" toml:"denom_registry"`
}

// DenomRegistryFile is the subset of a Keplr chain info file the swap
// service reads. TOML files use the snake_case keys.
type DenomRegistryFile struct {
	ChainID       string                `json:"chainId" toml:"chain_id"`
	Bech32Config  Bech32Config          `json:"bech32Config" toml:"bech32_config"`
	Currencies    []brokers.NativeDenom `json:"currencies" toml:"currencies"`
	FeeCurrencies []FeeCurrency         `json:"feeCurrencies" toml:"fee_currencies"`
}

type Bech32Config struct {
	Bech32PrefixAccAddr string `json:"bech32PrefixAccAddr" toml:"bech32_prefix_acc_addr"`
}

type FeeCurrency struct {
	CoinDenom        string       `json:"coinDenom" toml:"coin_denom"`
	CoinMinimalDenom string       `json:"coinMinimalDenom" toml:"coin_minimal_denom"`
	CoinDecimals     uint32       `json:"coinDecimals" toml:"coin_decimals"`
	GasPriceStep     GasPriceStep `json:"gasPriceStep" toml:"gas_price_step"`
}

type GasPriceStep struct {
	Low     float64 `json:"low" toml:"low"`
	Average float64 `json:"average" toml:"average"`
	High    float64 `json:"high" toml:"high"`
}
