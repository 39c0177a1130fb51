package sink

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wormhole-demo/transfer-decoder/internal/decoder"
)

func TestSinkInterface(t *testing.T) {
	var _ TransferSink = (*LogSink)(nil)
	var _ TransferSink = (*RedisSink)(nil)
}

func sampleTransfer() *decoder.ParsedTransfer {
	return &decoder.ParsedTransfer{
		Sequence:       42,
		FromChainName:  "ethereum",
		Recipient:      "terra1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5exk7yu",
		RecipientChain: 3,
		Amount:         decimal.RequireFromString("2.5"),
		RawAmount:      uint256.NewInt(2500000),
		Currency:       "UST",
		Decimals:       6,
		Fee:            uint256.NewInt(0),
	}
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSink(zap.New(core))

	require.NoError(t, s.Publish(context.Background(), sampleTransfer()))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "2.5", fields["amount"])
	require.Equal(t, "UST", fields["currency"])
	require.Equal(t, "LogSink", fields["component"])
	require.NotContains(t, fields, "diagnostic")
}

type fakePusher struct {
	mu      sync.Mutex
	lists   map[string][][]byte
	failure error
}

func (p *fakePusher) PushTransfer(_ context.Context, list string, record []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failure != nil {
		return p.failure
	}
	if p.lists == nil {
		p.lists = map[string][][]byte{}
	}
	p.lists[list] = append(p.lists[list], record)
	return nil
}

func TestRedisSink(t *testing.T) {
	pusher := &fakePusher{}
	s := NewRedisSink(zap.NewNop(), pusher, "")

	require.NoError(t, s.Publish(context.Background(), sampleTransfer()))
	require.Len(t, pusher.lists[DefaultList], 1)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(pusher.lists[DefaultList][0], &got))
	require.Equal(t, "2.5", got["amount"])
	require.Equal(t, "UST", got["currency"])
	require.Equal(t, float64(42), got["sequence"])
}

func TestRedisSinkError(t *testing.T) {
	pusher := &fakePusher{failure: errors.New("connection refused")}
	s := NewRedisSink(zap.NewNop(), pusher, "out")

	err := s.Publish(context.Background(), sampleTransfer())
	require.ErrorIs(t, err, pusher.failure)
}
