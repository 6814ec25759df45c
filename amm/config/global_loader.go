// Package config loads the protocol configuration and the server configuration.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/royalty"
	"github.com/btcsuite/btcutil/bech32"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
)

// FileReader defines the interface for reading files
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// DefaultFileReader implements FileReader using os.ReadFile
type DefaultFileReader struct{}

func (d *DefaultFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ValidationError names the field a config value failed on.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Global is the loaded protocol config together with the royalty table the
// static registry is seeded from.
type Global struct {
	Config    *models.GlobalConfig
	Royalties []royalty.Entry
}

type GlobalConfigLoader struct {
	fileReader FileReader
}

func NewGlobalConfigLoader(fileReader FileReader) *GlobalConfigLoader {
	return &GlobalConfigLoader{fileReader: fileReader}
}

func NewDefaultGlobalConfigLoader() *GlobalConfigLoader {
	return NewGlobalConfigLoader(&DefaultFileReader{})
}

// Load reads, converts and validates the protocol config at path.
func (l *GlobalConfigLoader) Load(path string) (*Global, error) {
	if !strings.HasSuffix(path, ".toml") {
		return nil, fmt.Errorf("config file must be a toml file")
	}
	body, err := l.fileReader.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read global config: %w", err)
	}

	var file GlobalConfigFile
	if err := toml.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal global config: %w", err)
	}
	return Convert(&file)
}

// Convert turns the on-disk form into domain types. Every field problem is
// reported, joined into one error.
func Convert(file *GlobalConfigFile) (*Global, error) {
	c := &converter{}
	g := &models.GlobalConfig{
		FairBurn:             file.FairBurn,
		FairBurnFeePercent:   c.percent("fair_burn_fee_percent", file.FairBurnFeePercent),
		MaxRoyaltyFeePercent: c.percent("max_royalty_fee_percent", file.MaxRoyaltyFeePercent),
		MaxSwapFeePercent:    c.percent("max_swap_fee_percent", file.MaxSwapFeePercent),
		PairCreationFee:      c.coin("pair_creation_fee", file.PairCreationFee),
		InfinityFactory:      file.InfinityFactory,
		InfinityIndex:        file.InfinityIndex,
		InfinityRouter:       file.InfinityRouter,
		RoyaltyRegistry:      file.RoyaltyRegistry,
		Marketplace:          file.Marketplace,
		Bech32Prefix:         file.Bech32Prefix,
	}

	if file.Bech32Prefix == "" {
		c.fail("bech32_prefix", "is required")
	}
	c.address("fair_burn", file.FairBurn, file.Bech32Prefix, true)
	c.address("infinity_factory", file.InfinityFactory, file.Bech32Prefix, true)
	c.address("infinity_index", file.InfinityIndex, file.Bech32Prefix, false)
	c.address("infinity_router", file.InfinityRouter, file.Bech32Prefix, false)
	c.address("royalty_registry", file.RoyaltyRegistry, file.Bech32Prefix, false)
	c.address("marketplace", file.Marketplace, file.Bech32Prefix, false)

	checksum, err := hex.DecodeString(file.PairCodeChecksum)
	switch {
	case err != nil:
		c.fail("pair_code_checksum", "must be hex encoded")
	case len(checksum) != 32:
		c.fail("pair_code_checksum", fmt.Sprintf("must be 32 bytes, got %d", len(checksum)))
	default:
		g.PairCodeChecksum = checksum
	}

	if len(file.MinPrices) == 0 {
		c.fail("min_prices", "at least one supported denom is required")
	}
	seen := make(map[string]bool, len(file.MinPrices))
	for i, mp := range file.MinPrices {
		field := fmt.Sprintf("min_prices[%d]", i)
		if seen[mp.Denom] {
			c.fail(field+".denom", fmt.Sprintf("duplicate denom %q", mp.Denom))
		}
		seen[mp.Denom] = true
		g.MinPrices = append(g.MinPrices, c.coin(field, mp))
	}

	royalties := make([]royalty.Entry, 0, len(file.Royalties))
	for i, r := range file.Royalties {
		field := fmt.Sprintf("royalties[%d]", i)
		if r.Collection == "" {
			c.fail(field+".collection", "is required")
		}
		c.address(field+".recipient", r.Recipient, file.Bech32Prefix, true)
		royalties = append(royalties, royalty.Entry{
			Collection: r.Collection,
			Recipient:  r.Recipient,
			Share:      c.percent(field+".share", r.Share),
		})
	}

	if len(c.errs) > 0 {
		return nil, errors.Join(c.errs...)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Global{Config: g, Royalties: royalties}, nil
}

type converter struct {
	errs []error
}

func (c *converter) fail(field, msg string) {
	c.errs = append(c.errs, &ValidationError{Field: field, Message: msg})
}

func (c *converter) percent(field, raw string) decimal.Decimal {
	if raw == "" {
		c.fail(field, "is required")
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		c.fail(field, fmt.Sprintf("%q is not a decimal", raw))
		return decimal.Zero
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		c.fail(field, "must be between 0 and 1")
	}
	return d
}

func (c *converter) coin(field string, raw CoinFile) models.Coin {
	if raw.Denom == "" {
		c.fail(field+".denom", "is required")
	}
	amount, ok := math.NewIntFromString(raw.Amount)
	if !ok {
		c.fail(field+".amount", fmt.Sprintf("%q is not an integer", raw.Amount))
		return models.Coin{Denom: raw.Denom, Amount: math.ZeroInt()}
	}
	if amount.IsNegative() {
		c.fail(field+".amount", "must be non-negative")
	}
	return models.Coin{Denom: raw.Denom, Amount: amount}
}

func (c *converter) address(field, addr, prefix string, required bool) {
	if addr == "" {
		if required {
			c.fail(field, "is required")
		}
		return
	}
	hrp, _, err := bech32.Decode(addr)
	if err != nil {
		c.fail(field, fmt.Sprintf("invalid bech32 address: %v", err))
		return
	}
	if prefix != "" && hrp != prefix {
		c.fail(field, fmt.Sprintf("expected prefix %q, got %q", prefix, hrp))
	}
}
