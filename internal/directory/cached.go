package directory

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/wormhole-demo/transfer-decoder/internal/currency"
)

// Store persists resolved token info. Misses are reported with found == false.
type Store interface {
	Get(ctx context.Context, assetIdentifier string) (currency.TokenInfo, bool, error)
	Put(ctx context.Context, assetIdentifier string, info currency.TokenInfo) error
}

// LRUStore is an in-process Store bounded by entry count.
type LRUStore struct {
	cache *lru.Cache[string, currency.TokenInfo]
}

func NewLRUStore(size int) (*LRUStore, error) {
	cache, err := lru.New[string, currency.TokenInfo](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cache: %w", err)
	}
	return &LRUStore{cache: cache}, nil
}

func (s *LRUStore) Get(_ context.Context, assetIdentifier string) (currency.TokenInfo, bool, error) {
	info, ok := s.cache.Get(assetIdentifier)
	return info, ok, nil
}

func (s *LRUStore) Put(_ context.Context, assetIdentifier string, info currency.TokenInfo) error {
	s.cache.Add(assetIdentifier, info)
	return nil
}

// Cached serves lookups from a Store and fills it from the next directory.
// Only successful lookups are stored.
type Cached struct {
	next   currency.AddressDirectory
	store  Store
	logger *zap.Logger
}

func NewCached(logger *zap.Logger, next currency.AddressDirectory, store Store) *Cached {
	return &Cached{
		next:   next,
		store:  store,
		logger: logger.With(zap.String("component", "CachedDirectory")),
	}
}

func (c *Cached) Lookup(ctx context.Context, assetIdentifier string) (currency.TokenInfo, error) {
	info, found, err := c.store.Get(ctx, assetIdentifier)
	if err != nil {
		c.logger.Warn("Token cache read failed", zap.String("asset", assetIdentifier), zap.Error(err))
	} else if found {
		c.logger.Debug("Token cache hit", zap.String("asset", assetIdentifier), zap.String("symbol", info.Symbol))
		return info, nil
	}

	info, err = c.next.Lookup(ctx, assetIdentifier)
	if err != nil {
		return currency.TokenInfo{}, err
	}

	if err := c.store.Put(ctx, assetIdentifier, info); err != nil {
		c.logger.Warn("Token cache write failed", zap.String("asset", assetIdentifier), zap.Error(err))
	}
	return info, nil
}
