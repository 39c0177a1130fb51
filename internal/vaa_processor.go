package internal

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/wormhole-demo/transfer-decoder/internal/decoder"
	"github.com/wormhole-demo/transfer-decoder/internal/sink"
)

const (
	defaultProcessTimeout = 30 * time.Second
	seenCacheSize         = 4096
)

type VAAProcessor interface {
	// ProcessVAA decodes the given VAA and publishes the transfer. A nil
	// transfer with a nil error means the VAA was skipped.
	ProcessVAA(ctx context.Context, vaaData VAAData) (*decoder.ParsedTransfer, error)
}

type VAAProcessorConfig struct {
	ChainIDs       []uint16 // Emitter chains to accept (empty = all)
	EmitterAddress string   // Hex-encoded emitter address to filter (empty = no filter)
	Timeout        time.Duration
}

type DefaultVAAProcessor struct {
	config   VAAProcessorConfig
	chainSet map[uint16]struct{}
	decoder  *decoder.Decoder
	sink     sink.TransferSink
	seen     *lru.Cache[string, struct{}]
	logger   *zap.Logger
}

func NewDefaultVAAProcessor(logger *zap.Logger, config VAAProcessorConfig, dec *decoder.Decoder, out sink.TransferSink) (*DefaultVAAProcessor, error) {
	config.EmitterAddress = NormalizeEmitter(config.EmitterAddress)
	if config.Timeout <= 0 {
		config.Timeout = defaultProcessTimeout
	}

	seen, err := lru.New[string, struct{}](seenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create seen cache: %w", err)
	}

	chainSet := make(map[uint16]struct{}, len(config.ChainIDs))
	for _, id := range config.ChainIDs {
		chainSet[id] = struct{}{}
	}

	return &DefaultVAAProcessor{
		config:   config,
		chainSet: chainSet,
		decoder:  dec,
		sink:     out,
		seen:     seen,
		logger:   logger.With(zap.String("component", "DefaultVAAProcessor")),
	}, nil
}

func (p *DefaultVAAProcessor) accepts(vaaData VAAData) bool {
	if len(p.chainSet) > 0 {
		if _, ok := p.chainSet[vaaData.ChainID]; !ok {
			p.logger.Debug("Skipping VAA (not from configured chain)",
				zap.Uint64("sequence", vaaData.Sequence),
				zap.Uint16("chain", vaaData.ChainID))
			return false
		}
	}
	if p.config.EmitterAddress != "" && vaaData.EmitterHex != p.config.EmitterAddress {
		p.logger.Debug("Skipping VAA (not from configured emitter)",
			zap.Uint64("sequence", vaaData.Sequence),
			zap.String("emitter", vaaData.EmitterHex),
			zap.String("expectedEmitter", p.config.EmitterAddress))
		return false
	}
	return true
}

func (p *DefaultVAAProcessor) ProcessVAA(ctx context.Context, vaaData VAAData) (*decoder.ParsedTransfer, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	p.logger.Debug("VAA Details",
		zap.Uint16("emitterChain", vaaData.ChainID),
		zap.String("emitterAddress", vaaData.EmitterHex),
		zap.Uint64("sequence", vaaData.Sequence),
		zap.Uint32("timestamp", vaaData.Body.Timestamp),
		zap.Int("payloadLength", len(vaaData.Body.Payload)))
	logPayloadSummary(p.logger, vaaData.Body.Payload)

	if !p.accepts(vaaData) {
		return nil, nil
	}

	// Re-signed copies of a VAA share the body digest.
	if ok, _ := p.seen.ContainsOrAdd(vaaData.Key, struct{}{}); ok {
		p.logger.Debug("Skipping duplicate VAA", zap.Uint64("sequence", vaaData.Sequence))
		return nil, nil
	}

	transfer, err := p.decoder.DecodeTransferBytes(ctx, vaaData.RawBytes)
	if err != nil {
		if decoder.IsStructural(err) {
			p.logger.Debug("Skipping VAA (not a transfer)",
				zap.Uint64("sequence", vaaData.Sequence),
				zap.Error(err))
			return nil, nil
		}
		p.seen.Remove(vaaData.Key)
		return nil, fmt.Errorf("decode failed for sequence %d: %w", vaaData.Sequence, err)
	}

	if transfer.RecipientUnresolved != nil {
		p.logger.Warn("Recipient could not be re-encoded",
			zap.Uint64("sequence", vaaData.Sequence),
			zap.String("recipientRaw", transfer.RecipientRaw),
			zap.Error(transfer.RecipientUnresolved))
	}

	if err := p.sink.Publish(ctx, transfer); err != nil {
		p.seen.Remove(vaaData.Key)
		if ctx.Err() != nil {
			p.logger.Warn("Publishing cancelled or timed out", zap.Error(ctx.Err()))
			return nil, fmt.Errorf("publish interrupted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("publish failed: %w", err)
	}

	p.logger.Info("Transfer decoded",
		zap.Uint64("sequence", vaaData.Sequence),
		zap.String("fromChain", transfer.FromChainName),
		zap.String("amount", transfer.Amount.String()),
		zap.String("currency", transfer.Currency))

	return transfer, nil
}
