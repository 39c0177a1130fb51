package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/wormhole-demo/transfer-decoder/internal/currency"
)

// Chain consults each directory in order until one knows the asset.
type Chain []currency.AddressDirectory

func (c Chain) Lookup(ctx context.Context, assetIdentifier string) (currency.TokenInfo, error) {
	for _, dir := range c {
		info, err := dir.Lookup(ctx, assetIdentifier)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, currency.ErrNotFound) {
			return currency.TokenInfo{}, err
		}
	}
	return currency.TokenInfo{}, fmt.Errorf("%w: %s", currency.ErrNotFound, assetIdentifier)
}
