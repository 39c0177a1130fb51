package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wormhole-demo/transfer-decoder/internal"
	"github.com/wormhole-demo/transfer-decoder/internal/clients"
	"github.com/wormhole-demo/transfer-decoder/internal/sink"
)

const (
	// Token Bridge on Terra Classic (chain 3)
	DefaultTokenBridgeEmitter = "0x0000000000000000000000007cf7b764e38a0a5e967972c1df77d432510564e2"
)

// Default emitter chains (Terra=3)
var DefaultWatchChains = []int{3}

// watchCmd represents the command that decodes transfers from a spy stream
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Decode Token Bridge transfers from a Wormhole spy",
	Long: `Subscribes to a Wormhole spy service, decodes every Token Bridge transfer
emitted by the configured chains and hands it to a sink.

The log sink writes transfers as log entries; the redis sink pushes them as
JSON onto a Redis list (requires --redis-addr).`,
	PreRun: func(cmd *cobra.Command, args []string) {
		printBanner()
		configureLogging(cmd, args)
	},
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String(
		"spy-rpc-host",
		"localhost:7073",
		"Wormhole spy service endpoint")

	watchCmd.Flags().IntSlice(
		"chain-ids",
		DefaultWatchChains,
		"Emitter chain IDs to decode (Terra=3)")

	watchCmd.Flags().String(
		"emitter-address",
		DefaultTokenBridgeEmitter,
		"Token Bridge emitter address to filter (hex, empty = any)")

	watchCmd.Flags().String(
		"sink",
		"log",
		"Where decoded transfers go (log or redis)")

	watchCmd.Flags().String(
		"redis-list",
		sink.DefaultList,
		"Redis list receiving transfers when --sink=redis")

	viper.BindPFlag("spy_rpc_host", watchCmd.Flags().Lookup("spy-rpc-host"))
	viper.BindPFlag("sink", watchCmd.Flags().Lookup("sink"))
	viper.BindPFlag("redis_list", watchCmd.Flags().Lookup("redis-list"))
}

type WatchConfig struct {
	SpyRPCHost     string   // Wormhole spy service endpoint
	ChainIDs       []uint16 // Emitter chains to decode
	EmitterAddress string   // Token Bridge emitter to filter
	Sink           string   // log or redis
	RedisList      string   // Redis list for the redis sink
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := configureLogging(cmd, args)
	logger.Info("Starting transfer watcher")

	// Get flags directly from command (viper bindings conflict across commands)
	emitterAddress, _ := cmd.Flags().GetString("emitter-address")
	chainIDsInt, _ := cmd.Flags().GetIntSlice("chain-ids")

	chainIDs := make([]uint16, len(chainIDsInt))
	for i, id := range chainIDsInt {
		if id < 0 || id > 0xffff {
			return fmt.Errorf("chain id %d out of range", id)
		}
		chainIDs[i] = uint16(id)
	}

	config := WatchConfig{
		SpyRPCHost:     viper.GetString("spy_rpc_host"),
		ChainIDs:       chainIDs,
		EmitterAddress: emitterAddress,
		Sink:           viper.GetString("sink"),
		RedisList:      viper.GetString("redis_list"),
	}

	logger.Info("Configuration",
		zap.String("spyRPC", config.SpyRPCHost),
		zap.Any("chainIds", config.ChainIDs),
		zap.String("emitterFilter", config.EmitterAddress),
		zap.String("sink", config.Sink))

	rt, err := newRuntime(logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	var out sink.TransferSink
	switch config.Sink {
	case "log":
		out = sink.NewLogSink(logger)
	case "redis":
		if rt.redis == nil {
			return fmt.Errorf("redis sink requires --redis-addr")
		}
		out = sink.NewRedisSink(logger, rt.redis, config.RedisList)
	default:
		return fmt.Errorf("unknown sink %q", config.Sink)
	}

	vaaProcessor, err := internal.NewDefaultVAAProcessor(logger,
		internal.VAAProcessorConfig{
			ChainIDs:       config.ChainIDs,
			EmitterAddress: config.EmitterAddress,
		},
		rt.decoder, out)
	if err != nil {
		return err
	}

	spyClient, err := clients.NewSpyClient(logger, config.SpyRPCHost, spyFilters(config)...)
	if err != nil {
		return fmt.Errorf("failed to create spy client: %w", err)
	}

	watcher := internal.NewWatcher(logger, spyClient, vaaProcessor)
	defer watcher.Close()

	ctx, cancel := signalContext(logger)
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("watcher stopped with error: %w", err)
	}
	return nil
}

// spyFilters narrows the subscription server-side when an emitter is set.
// The processor applies the same filter again.
func spyFilters(config WatchConfig) []clients.EmitterFilter {
	if config.EmitterAddress == "" {
		return nil
	}
	emitter := internal.NormalizeEmitter(config.EmitterAddress)
	filters := make([]clients.EmitterFilter, 0, len(config.ChainIDs))
	for _, id := range config.ChainIDs {
		filters = append(filters, clients.EmitterFilter{ChainID: id, Address: emitter})
	}
	return filters
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-c:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()

	return ctx, cancel
}
