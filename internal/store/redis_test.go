package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/require"

	"github.com/wormhole-demo/transfer-decoder/internal/currency"
)

// fakeConn implements the handful of commands the store issues.
type fakeConn struct {
	mu       sync.Mutex
	values   map[string][]byte
	ttls     map[string]int64
	lists    map[string][][]byte
	commands []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		values: map[string][]byte{},
		ttls:   map[string]int64{},
		lists:  map[string][][]byte{},
	}
}

func toBytes(v interface{}) []byte {
	switch b := v.(type) {
	case []byte:
		return b
	case string:
		return []byte(b)
	default:
		return []byte(fmt.Sprint(b))
	}
}

func (c *fakeConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cmd == "" {
		return nil, nil
	}
	c.commands = append(c.commands, cmd)

	switch cmd {
	case "GET":
		v, ok := c.values[args[0].(string)]
		if !ok {
			return nil, nil
		}
		return v, nil
	case "SET":
		key := args[0].(string)
		c.values[key] = toBytes(args[1])
		if len(args) == 4 && args[2] == "EX" {
			c.ttls[key] = args[3].(int64)
		}
		return "OK", nil
	case "LPUSH":
		key := args[0].(string)
		c.lists[key] = append([][]byte{toBytes(args[1])}, c.lists[key]...)
		return int64(len(c.lists[key])), nil
	default:
		return nil, fmt.Errorf("unsupported command %s", cmd)
	}
}

func (c *fakeConn) Close() error                      { return nil }
func (c *fakeConn) Err() error                        { return nil }
func (c *fakeConn) Send(string, ...interface{}) error { return nil }
func (c *fakeConn) Flush() error                      { return nil }
func (c *fakeConn) Receive() (interface{}, error)     { return nil, nil }

func fakePool(conn *fakeConn) *redis.Pool {
	return &redis.Pool{
		MaxIdle: 1,
		Dial:    func() (redis.Conn, error) { return conn, nil },
	}
}

func TestRedisTokenRoundTrip(t *testing.T) {
	conn := newFakeConn()
	r := NewRedis(fakePool(conn), "", time.Hour)
	ctx := context.Background()

	_, found, err := r.Get(ctx, "AAAA")
	require.NoError(t, err)
	require.False(t, found)

	info := currency.TokenInfo{Name: "Wrapped Ether", Symbol: "WETH", Decimals: 8, AssetAddress: "AAAA"}
	require.NoError(t, r.Put(ctx, "AAAA", info))
	require.Equal(t, int64(3600), conn.ttls["transferdecoder:token:AAAA"])

	got, found, err := r.Get(ctx, "AAAA")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, info, got)
}

func TestRedisTokenWithoutTTL(t *testing.T) {
	conn := newFakeConn()
	r := NewRedis(fakePool(conn), "custom", 0)
	require.NoError(t, r.Put(context.Background(), "BBBB", currency.TokenInfo{Symbol: "X"}))

	_, hasTTL := conn.ttls["custom:token:BBBB"]
	require.False(t, hasTTL)
	require.Contains(t, conn.values, "custom:token:BBBB")
}

func TestRedisSubSecondTTLRoundsUp(t *testing.T) {
	conn := newFakeConn()
	r := NewRedis(fakePool(conn), "", 500*time.Millisecond)
	require.NoError(t, r.Put(context.Background(), "DDDD", currency.TokenInfo{Symbol: "X"}))
	require.Equal(t, int64(1), conn.ttls["transferdecoder:token:DDDD"])

	r = NewRedis(fakePool(conn), "", 1500*time.Millisecond)
	require.NoError(t, r.Put(context.Background(), "EEEE", currency.TokenInfo{Symbol: "X"}))
	require.Equal(t, int64(2), conn.ttls["transferdecoder:token:EEEE"])
}

func TestRedisInvalidEntry(t *testing.T) {
	conn := newFakeConn()
	conn.values["transferdecoder:token:CCCC"] = []byte("not json")

	_, _, err := NewRedis(fakePool(conn), "", 0).Get(context.Background(), "CCCC")
	require.Error(t, err)
}

func TestRedisPushTransfer(t *testing.T) {
	conn := newFakeConn()
	r := NewRedis(fakePool(conn), "", 0)
	ctx := context.Background()

	require.NoError(t, r.PushTransfer(ctx, "transfers", []byte(`{"sequence":1}`)))
	require.NoError(t, r.PushTransfer(ctx, "transfers", []byte(`{"sequence":2}`)))

	list := conn.lists["transferdecoder:transfers"]
	require.Len(t, list, 2)
	require.JSONEq(t, `{"sequence":2}`, string(list[0]))
}
