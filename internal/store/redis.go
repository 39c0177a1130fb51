// Package store holds the Redis-backed state shared between decoder
// processes: resolved token metadata and published transfers.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/wormhole-demo/transfer-decoder/internal/currency"
)

const DefaultPrefix = "transferdecoder"

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

// NewPool creates a connection pool for the Redis server at addr (host:port).
func NewPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     5,
		IdleTimeout: 4 * time.Minute,
		Dial:        func() (redis.Conn, error) { return redis.Dial("tcp", addr, timeoutDialOptions()...) },
	}
}

type Redis struct {
	pool   *redis.Pool
	prefix string
	// tokenTTL of zero keeps token entries forever.
	tokenTTL time.Duration
}

func NewRedis(pool *redis.Pool, prefix string, tokenTTL time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{pool: pool, prefix: prefix, tokenTTL: tokenTTL}
}

func (r *Redis) tokenKey(assetID string) string {
	return fmt.Sprintf("%s:token:%s", r.prefix, assetID)
}

func (r *Redis) listKey(name string) string {
	return fmt.Sprintf("%s:%s", r.prefix, name)
}

// Get returns the cached token info for assetID. A missing key is
// reported with found == false and no error.
func (r *Redis) Get(ctx context.Context, assetID string) (currency.TokenInfo, bool, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return currency.TokenInfo{}, false, fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", r.tokenKey(assetID)))
	if errors.Is(err, redis.ErrNil) {
		return currency.TokenInfo{}, false, nil
	}
	if err != nil {
		return currency.TokenInfo{}, false, fmt.Errorf("redis get: %w", err)
	}

	var info currency.TokenInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return currency.TokenInfo{}, false, fmt.Errorf("invalid token entry for %s: %w", assetID, err)
	}
	return info, true, nil
}

func (r *Redis) Put(ctx context.Context, assetID string, info currency.TokenInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal token info: %w", err)
	}

	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	args := redis.Args{}.Add(r.tokenKey(assetID), data)
	if r.tokenTTL > 0 {
		// EX takes whole seconds and rejects 0.
		args = args.Add("EX", int64((r.tokenTTL+time.Second-1)/time.Second))
	}
	if _, err := conn.Do("SET", args...); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// PushTransfer prepends a serialized transfer to the named list.
func (r *Redis) PushTransfer(ctx context.Context, list string, record []byte) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("LPUSH", r.listKey(list), record); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.pool.Close()
}
