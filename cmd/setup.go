package cmd

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wormhole-demo/transfer-decoder/internal/chains"
	"github.com/wormhole-demo/transfer-decoder/internal/currency"
	"github.com/wormhole-demo/transfer-decoder/internal/decoder"
	"github.com/wormhole-demo/transfer-decoder/internal/directory"
	"github.com/wormhole-demo/transfer-decoder/internal/store"
	"github.com/wormhole-demo/transfer-decoder/internal/tokenbridge"
)

// runtime holds the shared pieces built from the root flags.
type runtime struct {
	decoder *decoder.Decoder
	redis   *store.Redis
}

func (r *runtime) Close() {
	if r.redis != nil {
		r.redis.Close()
	}
}

func newRuntime(logger *zap.Logger) (*runtime, error) {
	rt := &runtime{}

	table := chains.Default()
	if path := viper.GetString("chain_table"); path != "" {
		t, err := chains.LoadFile(path)
		if err != nil {
			return nil, err
		}
		table = t
		logger.Info("Loaded chain table", zap.String("path", path), zap.Int("chains", t.Len()))
	}

	layout, err := tokenbridge.ParseLayout(viper.GetString("layout"))
	if err != nil {
		return nil, err
	}

	if addr := viper.GetString("redis_addr"); addr != "" {
		rt.redis = store.NewRedis(store.NewPool(addr), viper.GetString("redis_prefix"), viper.GetDuration("token_ttl"))
	}

	dir, err := buildDirectory(logger, rt.redis)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.decoder = decoder.New(table, dir, decoder.Options{
		Layout:          layout,
		LegacyChainIDs:  viper.GetBool("legacy_chain_ids"),
		RecipientPrefix: viper.GetString("recipient_prefix"),
	})

	logger.Debug("Decoder configured",
		zap.Stringer("layout", layout),
		zap.Bool("legacyChainIds", viper.GetBool("legacy_chain_ids")),
		zap.String("recipientPrefix", viper.GetString("recipient_prefix")))
	return rt, nil
}

// buildDirectory chains the static metadata with the cached LCD lookup.
// It returns nil when no source is configured, in which case only native
// denominations resolve.
func buildDirectory(logger *zap.Logger, redis *store.Redis) (currency.AddressDirectory, error) {
	var (
		chain     directory.Chain
		contracts []string
	)

	if path := viper.GetString("token_metadata"); path != "" {
		meta, err := directory.LoadMetadataFile(path)
		if err != nil {
			return nil, err
		}
		static := directory.NewStaticFromMetadata(meta)
		contracts = meta.TokenContracts
		chain = append(chain, static)
		logger.Info("Loaded token metadata",
			zap.String("path", path),
			zap.Int("tokens", static.Len()),
			zap.Int("contracts", len(contracts)))
	}

	if lcdURL := viper.GetString("lcd_url"); lcdURL != "" {
		if len(contracts) == 0 {
			logger.Warn("LCD lookups disabled: no token_contract entries", zap.String("lcd", lcdURL))
		} else {
			var lookup currency.AddressDirectory = directory.NewLCD(logger, lcdURL, contracts)
			cacheStore, err := tokenStore(redis)
			if err != nil {
				return nil, err
			}
			if cacheStore != nil {
				lookup = directory.NewCached(logger, lookup, cacheStore)
			}
			chain = append(chain, lookup)
		}
	}

	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}

func tokenStore(redis *store.Redis) (directory.Store, error) {
	if redis != nil {
		return redis, nil
	}
	size := viper.GetInt("cache_size")
	if size <= 0 {
		return nil, nil
	}
	s, err := directory.NewLRUStore(size)
	if err != nil {
		return nil, fmt.Errorf("token cache: %w", err)
	}
	return s, nil
}
