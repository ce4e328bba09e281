package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// LoadRPCSwapConfig loads the swap service config from the given path.
// With a nil path the config comes from SWAP_* environment variables.
func LoadRPCSwapConfig(configPath *string) (*RPCSwapConfig, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == nil {
		// if no file expect envs
		config, err := loadEnv(v)
		if err != nil {
			return nil, fmt.Errorf("failed to load env config: %w", err)
		}
		return config, nil
	}
	config, err := loadFile(v, *configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load file config: %w", err)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("host", "localhost")
	v.SetDefault("max_concurrent_requests", 200)
	v.SetDefault("service_name", "spectra-swap")
	v.SetDefault("service_version", "1.0.0")
	v.SetDefault("environment", "PROD")
	v.SetDefault("bridge_symbol", "OSMO")
	v.SetDefault("chain_id", "osmosis-1")
	v.SetDefault("bech32_prefix", "osmo")
	v.SetDefault("fee_denom", "uosmo")
	v.SetDefault("gas_price", "0.0025")
}

func loadEnv(v *viper.Viper) (*RPCSwapConfig, error) {
	// godot might fail if .env file is missing but
	// env can be applied through docker, systmed or other means, so skip error
	_ = godotenv.Load()
	v.SetEnvPrefix("SWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var config RPCSwapConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal env config: %w", err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}
	return &config, nil
}

// bindEnvKeys binds each config key to its env var so Unmarshal sees env values
// when no config file is loaded (env-only mode).
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"port", "host", "allowed_origins",
		"rate_per_minute", "max_concurrent_requests",
		"service_name", "service_version", "environment",
		"enable_tracing", "otlp_traces_url",
		"enable_metrics", "use_prometheus", "otlp_metrics_url",
		"enable_logs", "otlp_logs_url",
		"insecure_otlp", "development_mode",
		"pools_urls", "assets_urls", "bridge_symbol",
		"lcd_urls", "chain_id", "bech32_prefix", "fee_denom", "gas_price",
		"denom_registry",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func loadFile(v *viper.Viper, configPath string) (*RPCSwapConfig, error) {
	if !strings.HasSuffix(configPath, ".toml") {
		return nil, fmt.Errorf("config file must be a toml file")
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config RPCSwapConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}

	return &config, nil
}

func verifyConfig(config *RPCSwapConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if config.Host == "" {
		return fmt.Errorf("host is required")
	}

	if len(config.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed_origins is required")
	}

	if err := requireURLs("pools_urls", config.PoolsURLs); err != nil {
		return err
	}
	if err := requireURLs("assets_urls", config.AssetsURLs); err != nil {
		return err
	}
	for _, url := range config.LCDURLs {
		if url == "" {
			return fmt.Errorf("lcd_urls must not be empty")
		}
	}

	if strings.TrimSpace(config.BridgeSymbol) == "" {
		return fmt.Errorf("bridge_symbol is required")
	}
	if config.Bech32Prefix == "" || config.FeeDenom == "" {
		return fmt.Errorf("bech32_prefix and fee_denom are required")
	}

	gasPrice, err := decimal.NewFromString(config.GasPrice)
	if err != nil {
		return fmt.Errorf("invalid gas_price %q: %w", config.GasPrice, err)
	}
	if !gasPrice.IsPositive() {
		return fmt.Errorf("gas_price must be positive")
	}

	return nil
}

func requireURLs(key string, urls []string) error {
	if len(urls) == 0 {
		return fmt.Errorf("%s is required", key)
	}
	for _, url := range urls {
		if url == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}
	return nil
}
