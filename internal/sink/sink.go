// Package sink delivers decoded transfers to their destination.
package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/wormhole-demo/transfer-decoder/internal/decoder"
)

const DefaultList = "transfers"

type TransferSink interface {
	// Publish hands a decoded transfer to the sink. Implementations must be
	// safe for concurrent use.
	Publish(ctx context.Context, transfer *decoder.ParsedTransfer) error
}

// LogSink writes every transfer as a structured log entry.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{
		logger: logger.With(zap.String("component", "LogSink")),
	}
}

func (s *LogSink) Publish(_ context.Context, t *decoder.ParsedTransfer) error {
	fields := []zap.Field{
		zap.Uint64("sequence", t.Sequence),
		zap.String("fromChain", t.FromChainName),
		zap.String("amount", t.Amount.String()),
		zap.String("currency", t.Currency),
		zap.String("recipient", t.Recipient),
		zap.Uint16("recipientChain", t.RecipientChain),
	}
	if t.Diagnostic != "" {
		fields = append(fields, zap.String("diagnostic", t.Diagnostic))
	}
	s.logger.Info("Token transfer", fields...)
	return nil
}

type transferPusher interface {
	PushTransfer(ctx context.Context, list string, record []byte) error
}

// RedisSink prepends each transfer, JSON encoded, to a Redis list.
type RedisSink struct {
	store  transferPusher
	list   string
	logger *zap.Logger
}

func NewRedisSink(logger *zap.Logger, store transferPusher, list string) *RedisSink {
	if list == "" {
		list = DefaultList
	}
	return &RedisSink{
		store:  store,
		list:   list,
		logger: logger.With(zap.String("component", "RedisSink")),
	}
}

func (s *RedisSink) Publish(ctx context.Context, t *decoder.ParsedTransfer) error {
	record, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode transfer: %w", err)
	}
	if err := s.store.PushTransfer(ctx, s.list, record); err != nil {
		return fmt.Errorf("failed to publish transfer %d: %w", t.Sequence, err)
	}
	s.logger.Debug("Transfer published",
		zap.Uint64("sequence", t.Sequence),
		zap.String("list", s.list))
	return nil
}
