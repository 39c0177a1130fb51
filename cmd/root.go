package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	dotenv "github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wormhole-demo/transfer-decoder/internal/recipient"
	"github.com/wormhole-demo/transfer-decoder/internal/store"
	"github.com/wormhole-demo/transfer-decoder/internal/tokenbridge"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "transfer-decoder",
	Short: "Decoder for Wormhole Token Bridge transfer VAAs",
}

func init() {
	// Tentatively load .env file
	_ = dotenv.Load()

	rootCmd.PersistentFlags().Bool(
		"debug",
		false,
		"Enables debug output.")

	rootCmd.PersistentFlags().Bool(
		"json",
		false,
		"Enables structured logging in JSON format.")

	// Decoding
	rootCmd.PersistentFlags().String(
		"chain-table",
		"",
		"Chain id table file (JSON or YAML, wormhole_chain_id key); built-in table when empty")

	rootCmd.PersistentFlags().String(
		"layout",
		tokenbridge.LayoutDocumented.String(),
		"Transfer payload layout (documented or legacy)")

	rootCmd.PersistentFlags().Bool(
		"legacy-chain-ids",
		false,
		"Combine reversed chain id bytes as byte*2^index when naming the source chain")

	rootCmd.PersistentFlags().String(
		"recipient-prefix",
		recipient.DefaultPrefix,
		"Bech32 prefix for re-encoded recipients")

	// Token directory
	rootCmd.PersistentFlags().String(
		"token-metadata",
		"",
		"Token metadata file with token_contract and token_contract_meta entries")

	rootCmd.PersistentFlags().String(
		"lcd-url",
		"",
		"Terra LCD endpoint used to resolve token_contract entries (disabled when empty)")

	rootCmd.PersistentFlags().Int(
		"cache-size",
		1024,
		"Number of resolved tokens kept in memory (0 disables the cache)")

	rootCmd.PersistentFlags().String(
		"redis-addr",
		"",
		"Redis address (host:port) for the shared token cache and the redis sink")

	rootCmd.PersistentFlags().String(
		"redis-prefix",
		store.DefaultPrefix,
		"Key prefix for Redis entries")

	rootCmd.PersistentFlags().Duration(
		"token-ttl",
		24*time.Hour,
		"Expiry of token entries cached in Redis (0 keeps them forever)")

	// Bind flags to viper for env variable support
	viper.BindPFlag("chain_table", rootCmd.PersistentFlags().Lookup("chain-table"))
	viper.BindPFlag("layout", rootCmd.PersistentFlags().Lookup("layout"))
	viper.BindPFlag("legacy_chain_ids", rootCmd.PersistentFlags().Lookup("legacy-chain-ids"))
	viper.BindPFlag("recipient_prefix", rootCmd.PersistentFlags().Lookup("recipient-prefix"))
	viper.BindPFlag("token_metadata", rootCmd.PersistentFlags().Lookup("token-metadata"))
	viper.BindPFlag("lcd_url", rootCmd.PersistentFlags().Lookup("lcd-url"))
	viper.BindPFlag("cache_size", rootCmd.PersistentFlags().Lookup("cache-size"))
	viper.BindPFlag("redis_addr", rootCmd.PersistentFlags().Lookup("redis-addr"))
	viper.BindPFlag("redis_prefix", rootCmd.PersistentFlags().Lookup("redis-prefix"))
	viper.BindPFlag("token_ttl", rootCmd.PersistentFlags().Lookup("token-ttl"))

	cobra.OnInitialize(initConfig)
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("transfer-decoder")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

func printBanner() {
	colours := []string{
		"\033[38;5;81m", // Cyan
		"\033[38;5;75m", // Light Blue
		"\033[38;5;69m", // Sky Blue
		"\033[38;5;63m", // Dodger Blue
		"\033[38;5;57m", // Deep Sky Blue
		"\033[38;5;51m", // Cornflower Blue
		"\033[38;5;45m", // Royal Blue
	}
	banner := `
 _____                      __              ____                     _
|_   _| __ __ _ _ __  ___  / _| ___ _ __   |  _ \  ___  ___ ___   __| | ___ _ __
  | || '__/ _' | '_ \/ __|| |_ / _ \ '__|  | | | |/ _ \/ __/ _ \ / _' |/ _ \ '__|
  | || | | (_| | | | \__ \|  _|  __/ |     | |_| |  __/ (_| (_) | (_| |  __/ |
  |_||_|  \__,_|_| |_|___/|_|  \___|_|     |____/ \___|\___\___/ \__,_|\___|_|
`
	lines := strings.Split(banner, "\n")

	// remove empty lines
	for i := 0; i < len(lines); i++ {
		if lines[i] == "" {
			lines = append(lines[:i], lines[i+1:]...)
			i--
		}
	}

	for i, line := range lines {
		fmt.Printf("%s%s\n", colours[i], line)
	}

	fmt.Println("\033[0m") // Reset
}

func configureLogging(cmd *cobra.Command, _ []string) *zap.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	json, _ := cmd.Flags().GetBool("json")

	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.Development = true
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Configure JSON output if requested
	if json {
		config.Encoding = "json"
	} else {
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := config.Build()
	if err != nil {
		// Fallback to a basic logger if config fails
		logger, _ = zap.NewProduction()
	}

	// Replace the global logger
	zap.ReplaceGlobals(logger)

	return logger
}
