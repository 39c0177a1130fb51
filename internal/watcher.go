package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wormhole-demo/transfer-decoder/internal/clients"
)

const resubscribeDelay = 5 * time.Second

// VAASource opens signed VAA subscriptions. *clients.SpyClient satisfies it.
type VAASource interface {
	Subscribe(ctx context.Context) (clients.VAAStream, error)
	Close()
}

type Watcher struct {
	source           VAASource
	vaaProcessor     VAAProcessor
	resubscribeDelay time.Duration
	logger           *zap.Logger
}

// NewWatcher creates a watcher that feeds every VAA from source to processor.
func NewWatcher(logger *zap.Logger, source VAASource, processor VAAProcessor) *Watcher {
	return &Watcher{
		logger:           logger.With(zap.String("component", "Watcher")),
		source:           source,
		vaaProcessor:     processor,
		resubscribeDelay: resubscribeDelay,
	}
}

// Close cleans up resources used by the watcher
func (w *Watcher) Close() {
	if w.source != nil {
		w.source.Close()
	}
}

// Start listens for VAAs until ctx is cancelled or resubscribing fails.
// In-flight VAAs are drained before it returns.
func (w *Watcher) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stream, err := w.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to VAA stream: %w", err)
	}

	w.logger.Info("Listening for VAAs")

	for {
		resp, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("Shutting down watcher")
				return nil
			}
			w.logger.Warn("Stream error, resubscribing",
				zap.Error(err),
				zap.Duration("retryIn", w.resubscribeDelay))
			select {
			case <-time.After(w.resubscribeDelay):
			case <-ctx.Done():
				return nil
			}
			stream, err = w.source.Subscribe(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("subscribe to VAA stream after retry: %w", err)
			}
			continue
		}

		wg.Add(1)
		go func(vaaBytes []byte) {
			defer wg.Done()
			w.processVAA(ctx, vaaBytes)
		}(resp.VaaBytes)
	}
}

func (w *Watcher) processVAA(ctx context.Context, vaaBytes []byte) {
	select {
	case <-ctx.Done():
		w.logger.Debug("Processing cancelled for VAA")
		return
	default:
	}

	vaaData, err := newVAAData(vaaBytes)
	if err != nil {
		w.logger.Error("Failed to parse VAA", zap.Error(err))
		return
	}

	w.logger.Debug("Processing VAA",
		zap.Uint16("chain", vaaData.ChainID),
		zap.Uint64("sequence", vaaData.Sequence),
		zap.String("emitter", vaaData.EmitterHex))

	if _, err := w.vaaProcessor.ProcessVAA(ctx, *vaaData); err != nil {
		w.logger.Error("Error processing VAA", zap.Error(err))
	}
}
