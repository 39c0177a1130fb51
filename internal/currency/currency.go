package currency

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned by an AddressDirectory that does not know an asset.
	ErrNotFound = errors.New("asset not found")

	// ErrCurrencyResolution is returned when a token has no symbol and decimals.
	ErrCurrencyResolution = errors.New("currency resolution failed")
)

// TokenInfo describes a wrapped token as stored by an AddressDirectory.
type TokenInfo struct {
	Name            string `json:"name,omitempty" yaml:"name"`
	Symbol          string `json:"symbol" yaml:"symbol"`
	Decimals        uint8  `json:"decimals" yaml:"decimals"`
	ContractAddress string `json:"contract_address,omitempty" yaml:"contract_address"`
	AssetAddress    string `json:"asset_address,omitempty" yaml:"asset_address"`
}

// AddressDirectory resolves a base64 asset identifier to token metadata.
// Implementations own their caching, retries and timeouts.
type AddressDirectory interface {
	Lookup(ctx context.Context, assetIdentifier string) (TokenInfo, error)
}

// Native Terra denominations carried inline in the token identifier.
var nativeDenoms = map[string]string{
	"uluna": "LUNA",
	"uusd":  "UST",
}

const (
	nativeDecimals   = 6
	shortDenomLength = 5
)

type Resolution struct {
	Currency string
	Decimals uint8
	Amount   decimal.Decimal
	// AssetIdentifier is set when the directory was consulted.
	AssetIdentifier string
}

type Resolver struct {
	directory AddressDirectory
}

// NewResolver creates a resolver. A nil directory resolves native
// denominations only.
func NewResolver(directory AddressDirectory) *Resolver {
	return &Resolver{directory: directory}
}

// ShortDenom reads the trailing bytes of a token identifier as an ASCII
// denomination with NUL padding removed.
func ShortDenom(tokenIdentifier []byte) string {
	start := len(tokenIdentifier) - shortDenomLength
	if start < 0 {
		start = 0
	}
	return strings.Trim(string(tokenIdentifier[start:]), "\x00")
}

// AssetIdentifier is the opaque directory key for a token identifier.
func AssetIdentifier(tokenIdentifier []byte) string {
	return base64.StdEncoding.EncodeToString(tokenIdentifier)
}

// Resolve finds the display symbol and decimals for a token and scales
// rawAmount by them. The directory is called at most once.
func (r *Resolver) Resolve(ctx context.Context, tokenIdentifier []byte, rawAmount *uint256.Int) (Resolution, error) {
	if symbol, ok := nativeDenoms[ShortDenom(tokenIdentifier)]; ok {
		return Resolution{
			Currency: symbol,
			Decimals: nativeDecimals,
			Amount:   Scale(rawAmount, nativeDecimals),
		}, nil
	}

	assetID := AssetIdentifier(tokenIdentifier)
	if r.directory == nil {
		return Resolution{}, fmt.Errorf("%w: no address directory for asset %s", ErrCurrencyResolution, assetID)
	}

	info, err := r.directory.Lookup(ctx, assetID)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: asset %s: %w", ErrCurrencyResolution, assetID, err)
	}

	return Resolution{
		Currency:        info.Symbol,
		Decimals:        info.Decimals,
		Amount:          Scale(rawAmount, info.Decimals),
		AssetIdentifier: assetID,
	}, nil
}

// Scale returns raw / 10^decimals as an exact decimal.
func Scale(raw *uint256.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw.ToBig(), -int32(decimals))
}
