package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-getter"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

// maxCoinDecimals bounds the exponent accepted from a registry file
const maxCoinDecimals = 30

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "config").Logger()
}

var ErrEmptyDenomRegistry = errors.New("denom registry has no currencies")

// LoadDenomRegistry reads a Keplr style chain info file. source is a local
// path or anything go-getter understands (https url, github path, s3 ...).
// Files ending in .toml are decoded as TOML, everything else as JSON.
// A JSON file may also hold just the currencies array.
func LoadDenomRegistry(ctx context.Context, source string) (*DenomRegistryFile, error) {
	if source == "" {
		return nil, errors.New("denom registry source is required")
	}

	data, err := readSource(ctx, source)
	if err != nil {
		return nil, err
	}

	file, err := decodeDenomRegistry(data, sourceExt(source))
	if err != nil {
		return nil, fmt.Errorf("failed to decode denom registry %s: %w", source, err)
	}
	if len(file.Currencies) == 0 {
		return nil, ErrEmptyDenomRegistry
	}
	return file, nil
}

func readSource(ctx context.Context, source string) ([]byte, error) {
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read denom registry: %w", err)
		}
		return data, nil
	}

	dir, err := os.MkdirTemp("", "denom-registry")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	pwd, _ := os.Getwd()
	dst := filepath.Join(dir, "registry"+sourceExt(source))
	client := getter.Client{
		Ctx:  ctx,
		Src:  source,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
		Detectors: []getter.Detector{
			&getter.GitHubDetector{},
			&getter.S3Detector{},
			&getter.FileDetector{},
		},
		Getters: map[string]getter.Getter{
			"file":  &getter.FileGetter{Copy: true},
			"git":   &getter.GitGetter{},
			"http":  &getter.HttpGetter{},
			"https": &getter.HttpGetter{},
			"s3":    &getter.S3Getter{},
		},
	}
	log.Info().Str("source", source).Msg("Downloading denom registry")
	if err := client.Get(); err != nil {
		return nil, fmt.Errorf("failed to download denom registry: %w", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to read downloaded denom registry: %w", err)
	}
	return data, nil
}

// sourceExt returns the file extension of a path or url, query and
// go-getter forced getter prefixes ignored.
func sourceExt(source string) string {
	s := source
	if i := strings.Index(s, "::"); i != -1 {
		s = s[i+2:]
	}
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		s = u.Path
	}
	if i := strings.IndexAny(s, "?#"); i != -1 {
		s = s[:i]
	}
	return strings.ToLower(path.Ext(s))
}

func decodeDenomRegistry(data []byte, ext string) (*DenomRegistryFile, error) {
	var file DenomRegistryFile
	if ext == ".toml" {
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, err
		}
		return &file, nil
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &file.Currencies); err != nil {
			return nil, err
		}
		return &file, nil
	}
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// Registry validates the currencies and indexes them by symbol.
func (f *DenomRegistryFile) Registry() (brokers.StaticDenomRegistry, error) {
	for i, c := range f.Currencies {
		if marketdata.NormalizeSymbol(c.CoinDenom) == "" {
			return nil, fmt.Errorf("currency %d: coin denom is required", i)
		}
		if c.CoinMinimalDenom == "" {
			return nil, fmt.Errorf("currency %s: coin minimal denom is required", c.CoinDenom)
		}
		if c.CoinDecimals > maxCoinDecimals {
			return nil, fmt.Errorf("currency %s: %d decimals is out of range", c.CoinDenom, c.CoinDecimals)
		}
	}
	return brokers.NewStaticDenomRegistry(f.Currencies), nil
}

// AverageGasPrice returns the average gas price step of feeDenom.
func (f *DenomRegistryFile) AverageGasPrice(feeDenom string) (decimal.Decimal, bool) {
	for _, fc := range f.FeeCurrencies {
		if fc.CoinMinimalDenom == feeDenom && fc.GasPriceStep.Average > 0 {
			return decimal.NewFromFloat(fc.GasPriceStep.Average), true
		}
	}
	return decimal.Zero, false
}
