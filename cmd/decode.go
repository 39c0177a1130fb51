package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wormhole-demo/transfer-decoder/internal/decoder"
)

// decodeCmd decodes VAAs given as arguments or on standard input
var decodeCmd = &cobra.Command{
	Use:   "decode [vaa...]",
	Short: "Decode base64 Token Bridge transfer VAAs",
	Long: `Decodes base64 encoded Wormhole VAAs carrying Token Bridge transfers and
prints one JSON object per VAA.

VAAs are read from the arguments, or one per line from standard input when no
argument is given. Decoding stops at the first failure unless --continue is set.`,
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().Bool(
		"continue",
		false,
		"Report failures on stderr and keep decoding")
}

func runDecode(cmd *cobra.Command, args []string) error {
	logger := configureLogging(cmd, args)
	keepGoing, _ := cmd.Flags().GetBool("continue")

	rt, err := newRuntime(logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signalContext(logger)
	defer cancel()

	var in io.Reader
	if len(args) > 0 {
		in = strings.NewReader(strings.Join(args, "\n"))
	} else {
		in = cmd.InOrStdin()
	}

	failures, err := decodeLines(ctx, rt.decoder, in, cmd.OutOrStdout(), func(line int, err error) bool {
		logger.Error("Failed to decode VAA", zap.Int("line", line), zap.Error(err))
		return keepGoing
	})
	if err != nil {
		return err
	}
	if failures > 0 {
		return fmt.Errorf("%d VAA(s) failed to decode", failures)
	}
	return nil
}

// decodeLines decodes every non-empty line of in and writes one JSON object
// per transfer to out. onError decides whether to continue after a failure.
func decodeLines(ctx context.Context, dec *decoder.Decoder, in io.Reader, out io.Writer, onError func(line int, err error) bool) (int, error) {
	enc := json.NewEncoder(out)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	failures, line := 0, 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		transfer, err := dec.DecodeTransfer(ctx, text)
		if err != nil {
			failures++
			if !onError(line, err) {
				return failures, nil
			}
			continue
		}
		if err := enc.Encode(transfer); err != nil {
			return failures, fmt.Errorf("failed to write transfer: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return failures, fmt.Errorf("failed to read input: %w", err)
	}
	return failures, nil
}
